// Package segmenter splits markdown documents into heading-delimited sections.
//
// A document is processed in four steps:
//
//  1. Front-matter: a leading YAML (---) or TOML (+++) block is split off and
//     decoded into a metadata map.
//  2. Checksum: the remaining body is hashed (SHA-256, base64) before any
//     other transformation, so metadata-only edits do not change it.
//  3. Parse: the body is parsed into a CommonMark tree with goldmark.
//  4. Split: every top-level heading starts a new section. Content before the
//     first heading forms a leading section without heading or slug.
//
// # Usage
//
//	seg := segmenter.New()
//	result, err := seg.Segment(raw)
//	if err != nil {
//	    return err
//	}
//	for _, s := range result.Sections {
//	    fmt.Println(s.SlugText(), len(s.Content))
//	}
//
// # Slugs
//
// Slugs follow GitHub's anchor rules and are unique per document: two
// "Overview" headings yield "overview" and "overview-1".
package segmenter
