// Package types provides shared type definitions for docsync.
//
// This package defines the domain types exchanged between the segmenter, the
// source model, the storage layer and the synchronization engine.
//
// # Core Types
//
// Section is a heading-delimited slice of a markdown document, the unit of
// embedding and retrieval:
//
//	section := types.Section{
//	    Heading: types.StringPtr("Overview"),
//	    Slug:    types.StringPtr("overview"),
//	    Content: "## Overview\n\nBody text\n",
//	}
//
// Page is the persisted record of one document, keyed by its route path:
//
//	page := &types.Page{
//	    Path:     "/2024/wk-01",
//	    Source:   "newsletter",
//	    Type:     "markdown",
//	    Checksum: types.PendingChecksum(),
//	}
//
// # Checksum State
//
// A page checksum is either pending (sections are not yet fully written) or
// synced with a concrete digest. Pending is stored as NULL and never matches a
// freshly computed checksum, which forces regeneration of pages that failed
// mid-write in an earlier run:
//
//	if existing.Checksum.Matches(loaded.Checksum) {
//	    // unchanged
//	}
//
// # Errors
//
// ParseError, StoreError, EmbeddingServiceError and ConfigurationError form the
// error taxonomy of the pipeline. All of them unwrap to their cause:
//
//	var perr *types.ParseError
//	if errors.As(err, &perr) {
//	    log.Printf("cannot parse %s", perr.Path)
//	}
package types
