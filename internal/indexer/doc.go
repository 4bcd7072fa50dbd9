// Package indexer synchronizes documentation sources into the store.
//
// # Basic Usage
//
//	idx := indexer.New(store, emb)
//	stats := idx.Sync(ctx, sources, &indexer.Options{Refresh: false})
//	fmt.Printf("regenerated %d pages in %v\n", stats.Regenerated, stats.Duration)
//
// # Sync Algorithm
//
// Sources are processed strictly one at a time, in order, so a child page
// always sees its parent when the parent sorts first. For each source:
//
//  1. Load: read and segment the document
//  2. Diff: fetch the stored page by route path and compare checksums
//  3. Unchanged body: relink the parent if it moved, otherwise skip
//  4. Otherwise: delete old sections, upsert the page with a pending
//     checksum, embed and insert each section, then write the checksum
//
// # Recovery
//
// The checksum is written last. A page whose sections failed part way keeps
// a pending (NULL) checksum and is regenerated on the next run, even
// without a refresh.
//
// # Failure Isolation
//
// Errors from one source are logged with its path and recorded in
// Statistics.Results; Sync itself never fails.
//
// # Locking
//
// IndexLock lets long-running callers, such as the MCP server, reject a
// second sync while one is in progress.
package indexer
