// Package embedder generates vector embeddings for document sections.
//
// Two remote providers share one OpenAI-compatible HTTP client (OpenAI and
// Jina AI). A deterministic local provider needs no network access and is
// meant for development and tests.
//
// # Basic Usage
//
//	emb, err := embedder.NewFromConfig(cfg.Embedding)
//	if err != nil {
//	    return err
//	}
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "## Overview Weekly highlights...",
//	})
//	fmt.Println(len(result.Vector), result.TokenCount)
//
// # Errors and Retry
//
// A non-200 response or a transport failure is returned as a
// *types.EmbeddingServiceError. Rate limiting (429), server errors (5xx) and
// transport failures are retried with exponential backoff:
//
//	100ms -> 200ms -> 400ms ... capped at 5s
//
// Other statuses fail immediately. Setting MaxRetries to zero disables retry.
//
// # Caching
//
// With a non-zero CacheSize, embeddings are kept in an LRU cache keyed by
// model and input text. Unchanged sections of a page that is regenerated
// (for example after a forced refresh) are then served without a request.
package embedder
