package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dshills/docsync/internal/segmenter"
	"github.com/dshills/docsync/internal/walker"
)

// MarkdownExt is the extension of files that become sources
const MarkdownExt = ".md"

// DiscoverOptions controls which files become sources
type DiscoverOptions struct {
	Kind    string   // Source label stored on every page (default: "newsletter")
	Ignore  []string // Files to exclude, as paths relative to the working directory
	Workers int      // Concurrent directory reads (default: NumCPU)
}

// DefaultKind is the source label used when none is configured
const DefaultKind = "newsletter"

// Discover walks root and returns one markdown source per .md file, sorted by path
func Discover(ctx context.Context, root string, opts DiscoverOptions) ([]EmbeddingSource, error) {
	if opts.Kind == "" {
		opts.Kind = DefaultKind
	}

	files, err := walker.New(walker.WithWorkers(opts.Workers)).Walk(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	ignored := make(map[string]struct{}, len(opts.Ignore))
	for _, p := range opts.Ignore {
		ignored[filepath.Clean(p)] = struct{}{}
	}

	seg := segmenter.New()
	sources := make([]EmbeddingSource, 0, len(files))
	for _, f := range walker.FilterExt(files, MarkdownExt) {
		if _, skip := ignored[filepath.Clean(f.Path)]; skip {
			slog.Debug("ignoring file", slog.String("file", f.Path))
			continue
		}
		sources = append(sources, NewMarkdownSource(opts.Kind, root, f.Path, f.ParentPath, seg))
	}

	slog.Info(fmt.Sprintf("Discovered %d Markdown files under %s", len(sources), root))
	return sources, nil
}
