package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ParentExt is the extension of directory-level parent documents
const ParentExt = ".md"

// DiscoveredFile is a file found by the walker
type DiscoveredFile struct {
	Path       string
	ParentPath string // Empty when no parent document applies
}

// Walker recursively lists files under a root directory
type Walker struct {
	workers int
}

// Option configures a Walker
type Option func(*Walker)

// WithWorkers sets how many sibling entries are inspected concurrently
func WithWorkers(n int) Option {
	return func(w *Walker) {
		if n > 0 {
			w.workers = n
		}
	}
}

// New creates a new Walker
func New(opts ...Option) *Walker {
	w := &Walker{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ParentFor returns the parent document for the directory dirPath, given the
// names of the entries in the directory that contains it. It returns an empty
// string when none of the entries is named <dir>.md.
func ParentFor(entries []string, dirPath string) string {
	docName := filepath.Base(dirPath) + ParentExt
	for _, name := range entries {
		if name == docName {
			return filepath.Join(filepath.Dir(dirPath), docName)
		}
	}
	return ""
}

// Walk returns every regular file below root, sorted by path
func (w *Walker) Walk(ctx context.Context, root string) ([]DiscoveredFile, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	files, err := w.walkDir(ctx, root, "", []string{resolved})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// walkDir lists dir. ancestry holds the resolved paths of dir and its ancestors.
func (w *Walker) walkDir(ctx context.Context, dir, parentPath string, ancestry []string) ([]DiscoveredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}

	results := make([][]DiscoveredFile, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	for i, name := range names {
		path := filepath.Join(dir, name)
		g.Go(func() error {
			found, err := w.visit(gctx, path, names, parentPath, ancestry)
			if err != nil {
				return err
			}
			results[i] = found
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var files []DiscoveredFile
	for _, r := range results {
		files = append(files, r...)
	}
	return files, nil
}

// visit handles one directory entry. siblings are the names of the entries
// in the same directory.
func (w *Walker) visit(ctx context.Context, path string, siblings []string, parentPath string, ancestry []string) ([]DiscoveredFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("skipping broken link", slog.String("path", path))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	switch {
	case info.IsDir():
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		if containsPath(ancestry, resolved) {
			slog.Warn("skipping symlink cycle",
				slog.String("path", path),
				slog.String("target", resolved))
			return nil, nil
		}

		inherited := parentPath
		if p := ParentFor(siblings, path); p != "" {
			inherited = p
		}

		chain := make([]string, len(ancestry), len(ancestry)+1)
		copy(chain, ancestry)
		return w.walkDir(ctx, path, inherited, append(chain, resolved))

	case info.Mode().IsRegular():
		return []DiscoveredFile{{Path: path, ParentPath: parentPath}}, nil

	default:
		// Sockets, devices and pipes
		return nil, nil
	}
}

func containsPath(chain []string, path string) bool {
	for _, p := range chain {
		if p == path {
			return true
		}
	}
	return false
}

// FilterExt keeps files whose name ends with ext
func FilterExt(files []DiscoveredFile, ext string) []DiscoveredFile {
	out := make([]DiscoveredFile, 0, len(files))
	for _, f := range files {
		if strings.HasSuffix(f.Path, ext) {
			out = append(out, f)
		}
	}
	return out
}
