package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/docsync/internal/segmenter"
	"github.com/dshills/docsync/pkg/types"
)

// MarkdownType is the type recorded for pages loaded from markdown files
const MarkdownType = "markdown"

// EmbeddingSource is a document that can be loaded into sections
type EmbeddingSource interface {
	// Kind is the configured source label, e.g. "newsletter"
	Kind() string
	// Type names the document format, e.g. "markdown"
	Type() string
	// RoutePath is the unique identity of the page
	RoutePath() string
	// ParentRoutePath is empty when the document has no parent
	ParentRoutePath() string
	// FilePath locates the document on disk
	FilePath() string
	// Load reads the document and splits it into sections
	Load(ctx context.Context) (*types.LoadResult, error)
}

// MarkdownSource is a markdown file on the local filesystem
type MarkdownSource struct {
	kind            string
	filePath        string
	parentFilePath  string
	routePath       string
	parentRoutePath string
	segmenter       *segmenter.Segmenter

	loaded *types.LoadResult
}

// NewMarkdownSource creates a markdown source for filePath below root.
// parentFilePath may be empty.
func NewMarkdownSource(kind, root, filePath, parentFilePath string, seg *segmenter.Segmenter) *MarkdownSource {
	if seg == nil {
		seg = segmenter.New()
	}
	s := &MarkdownSource{
		kind:           kind,
		filePath:       filePath,
		parentFilePath: parentFilePath,
		routePath:      RoutePath(root, filePath),
		segmenter:      seg,
	}
	if parentFilePath != "" {
		s.parentRoutePath = RoutePath(root, parentFilePath)
	}
	return s
}

func (s *MarkdownSource) Kind() string            { return s.kind }
func (s *MarkdownSource) Type() string            { return MarkdownType }
func (s *MarkdownSource) RoutePath() string       { return s.routePath }
func (s *MarkdownSource) ParentRoutePath() string { return s.parentRoutePath }
func (s *MarkdownSource) FilePath() string        { return s.filePath }

// ParentFilePath returns the parent document on disk, if any
func (s *MarkdownSource) ParentFilePath() string { return s.parentFilePath }

// Loaded returns the result of the last successful Load, or nil
func (s *MarkdownSource) Loaded() *types.LoadResult { return s.loaded }

// Load reads the file and segments it. Malformed documents yield a
// *types.ParseError carrying the file path.
func (s *MarkdownSource) Load(ctx context.Context) (*types.LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.filePath, err)
	}

	result, err := s.segmenter.Segment(raw)
	if err != nil {
		return nil, &types.ParseError{Path: s.filePath, Err: err}
	}

	s.loaded = result
	return result, nil
}

// RoutePath converts a file path below root into a route:
// root/2024/wk-01.md becomes /2024/wk-01.
func RoutePath(root, filePath string) string {
	route := filepath.ToSlash(filePath)
	if rel, err := filepath.Rel(root, filePath); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		route = "/" + filepath.ToSlash(rel)
	}
	return strings.TrimSuffix(route, filepath.Ext(route))
}
