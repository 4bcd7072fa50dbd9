package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dshills/docsync/internal/embedder"
	"github.com/dshills/docsync/internal/source"
	"github.com/dshills/docsync/internal/storage"
	"github.com/dshills/docsync/pkg/types"
)

// Outcome is the result of syncing one source
type Outcome string

const (
	OutcomeUnchanged     Outcome = "unchanged"
	OutcomeParentUpdated Outcome = "parent updated"
	OutcomeRegenerated   Outcome = "regenerated"
	OutcomeFailed        Outcome = "failed"
)

// previewLength is how much of a failed section is quoted in the log
const previewLength = 40

// Indexer synchronizes embedding sources into the store: load -> diff -> embed -> store
type Indexer struct {
	storage  storage.Storage
	embedder embedder.Embedder
}

// Options controls a sync run
type Options struct {
	Refresh bool // Regenerate every page even when its checksum matches
}

// Result records what happened to one source
type Result struct {
	Path     string
	File     string
	Outcome  Outcome
	Sections int
	Tokens   int
	Err      error
}

// Statistics contains statistics about a sync run
type Statistics struct {
	Pages           int
	Unchanged       int
	ParentUpdated   int
	Regenerated     int
	Failed          int
	SectionsWritten int
	TokensUsed      int
	Duration        time.Duration
	Results         []Result
}

// New creates a new Indexer instance
func New(store storage.Storage, emb embedder.Embedder) *Indexer {
	return &Indexer{
		storage:  store,
		embedder: emb,
	}
}

// Sync processes sources one at a time in the given order.
// A failing source is logged and recorded; it never stops the run.
// Only context cancellation ends the run early.
func (idx *Indexer) Sync(ctx context.Context, sources []source.EmbeddingSource, opts *Options) *Statistics {
	if opts == nil {
		opts = &Options{}
	}

	startTime := time.Now()
	stats := &Statistics{Results: make([]Result, 0, len(sources))}

	if opts.Refresh {
		slog.Info("Refresh flag set, re-generating all pages")
	} else {
		slog.Info("Checking which pages are new or have changed")
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			slog.Warn("sync canceled", slog.Int("remaining", len(sources)-stats.Pages), slog.Any("error", err))
			break
		}

		result := idx.syncSource(ctx, src, opts.Refresh)
		stats.record(result)
	}

	stats.Duration = time.Since(startTime)
	slog.Info("Embedding generation complete",
		slog.Int("pages", stats.Pages),
		slog.Int("unchanged", stats.Unchanged),
		slog.Int("parent_updated", stats.ParentUpdated),
		slog.Int("regenerated", stats.Regenerated),
		slog.Int("failed", stats.Failed),
		slog.Int("sections", stats.SectionsWritten),
		slog.Int("tokens", stats.TokensUsed),
		slog.Duration("duration", stats.Duration),
	)
	return stats
}

func (s *Statistics) record(r Result) {
	s.Pages++
	switch r.Outcome {
	case OutcomeUnchanged:
		s.Unchanged++
	case OutcomeParentUpdated:
		s.ParentUpdated++
	case OutcomeRegenerated:
		s.Regenerated++
	case OutcomeFailed:
		s.Failed++
	}
	s.SectionsWritten += r.Sections
	s.TokensUsed += r.Tokens
	s.Results = append(s.Results, r)
}

// syncSource runs the per-source algorithm and converts any failure into a result
func (idx *Indexer) syncSource(ctx context.Context, src source.EmbeddingSource, refresh bool) Result {
	result := Result{Path: src.RoutePath(), File: src.FilePath()}

	outcome, err := idx.processSource(ctx, src, refresh, &result)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err

		var pending *pendingError
		if errors.As(err, &pending) {
			slog.Error(fmt.Sprintf("Page '%s' or one/multiple sections failed to store properly. Checksum left null to signal regeneration is needed.", result.Path),
				slog.String("path", result.Path),
				slog.String("file", result.File),
				slog.Any("error", pending.err))
		} else {
			slog.Error("failed to sync page",
				slog.String("path", result.Path),
				slog.String("file", result.File),
				slog.Any("error", err))
		}
		return result
	}

	result.Outcome = outcome
	slog.Info("page synced", slog.String("path", result.Path), slog.String("outcome", string(outcome)))
	return result
}

// pendingError marks a failure after the page row was written with a pending checksum
type pendingError struct {
	err error
}

func (e *pendingError) Error() string { return e.err.Error() }
func (e *pendingError) Unwrap() error { return e.err }

func (idx *Indexer) processSource(ctx context.Context, src source.EmbeddingSource, refresh bool, result *Result) (Outcome, error) {
	path := src.RoutePath()
	parentPath := src.ParentRoutePath()

	loaded, err := src.Load(ctx)
	if err != nil {
		return "", err
	}

	existing, err := idx.storage.GetPageByPath(ctx, path)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", &types.StoreError{Op: "fetch page", Path: path, Err: err}
	}
	if errors.Is(err, storage.ErrNotFound) {
		existing = nil
	}

	if !refresh && existing != nil && existing.Checksum.Matches(loaded.Checksum) {
		if existing.ParentPath == parentPath {
			return OutcomeUnchanged, nil
		}

		parentID, err := idx.resolveParent(ctx, path, parentPath)
		if err != nil {
			return "", err
		}
		// A parent that is still not indexed resolves to the link already stored
		if sameParent(existing.ParentPageID, parentID) {
			return OutcomeUnchanged, nil
		}

		slog.Info(fmt.Sprintf("[%s] Parent page changed -> '%s'", path, parentPath), slog.String("path", path))
		if err := idx.storage.UpdatePageParent(ctx, existing.ID, parentID); err != nil {
			return "", &types.StoreError{Op: "update parent", Path: path, Err: err}
		}
		return OutcomeParentUpdated, nil
	}

	if existing != nil {
		reason := "Changed"
		if refresh {
			reason = "Refreshing"
		}
		slog.Info(fmt.Sprintf("[%s] %s -> deleting old sections", path, reason), slog.String("path", path))
		if err := idx.storage.DeletePageSections(ctx, existing.ID); err != nil {
			return "", &types.StoreError{Op: "delete sections", Path: path, Err: err}
		}
	}

	parentID, err := idx.resolveParent(ctx, path, parentPath)
	if err != nil {
		return "", err
	}

	page := &types.Page{
		Path:         path,
		Source:       src.Kind(),
		Type:         src.Type(),
		Checksum:     types.PendingChecksum(),
		Metadata:     loaded.Metadata,
		ParentPageID: parentID,
	}
	if err := idx.storage.UpsertPage(ctx, page); err != nil {
		return "", &types.StoreError{Op: "upsert page", Path: path, Err: err}
	}

	slog.Info(fmt.Sprintf("[%s] Adding %d sections (with embeddings)", path, len(loaded.Sections)), slog.String("path", path))
	for _, section := range loaded.Sections {
		if err := idx.storeSection(ctx, page, section, result); err != nil {
			return "", &pendingError{err: err}
		}
	}

	if err := idx.storage.UpdatePageChecksum(ctx, page.ID, loaded.Checksum); err != nil {
		return "", &pendingError{err: &types.StoreError{Op: "update checksum", Path: path, Err: err}}
	}
	return OutcomeRegenerated, nil
}

// resolveParent looks up the parent page id. A parent that is absent or not
// yet indexed resolves to nil.
func (idx *Indexer) resolveParent(ctx context.Context, path, parentPath string) (*int64, error) {
	if parentPath == "" {
		return nil, nil
	}

	parent, err := idx.storage.GetPageByPath(ctx, parentPath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &types.StoreError{Op: "fetch parent page", Path: path, Err: err}
	}
	id := parent.ID
	return &id, nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// storeSection embeds one section and inserts it
func (idx *Indexer) storeSection(ctx context.Context, page *types.Page, section types.Section, result *Result) error {
	input := strings.ReplaceAll(section.Content, "\n", " ")

	emb, err := idx.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: input})
	if err != nil {
		slog.Error(fmt.Sprintf("Failed to generate embeddings for '%s' section starting '%s...'", page.Path, preview(input)),
			slog.String("path", page.Path),
			slog.Any("error", err))
		return err
	}

	row := &types.PageSection{
		PageID:     page.ID,
		Slug:       section.Slug,
		Heading:    section.Heading,
		Content:    section.Content,
		TokenCount: emb.TokenCount,
		Embedding:  emb.Vector,
	}
	if err := idx.storage.InsertPageSection(ctx, row); err != nil {
		return &types.StoreError{Op: "insert section", Path: page.Path, Err: err}
	}

	result.Sections++
	result.Tokens += emb.TokenCount
	return nil
}

// preview returns the first previewLength characters of s
func preview(s string) string {
	r := []rune(s)
	if len(r) > previewLength {
		r = r[:previewLength]
	}
	return string(r)
}
