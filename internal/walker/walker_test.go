package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (relative path -> content) under root
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func rel(t *testing.T, root string, files []DiscoveredFile) map[string]string {
	t.Helper()
	out := make(map[string]string, len(files))
	for _, f := range files {
		path, err := filepath.Rel(root, f.Path)
		require.NoError(t, err)
		parent := ""
		if f.ParentPath != "" {
			parent, err = filepath.Rel(root, f.ParentPath)
			require.NoError(t, err)
		}
		out[filepath.ToSlash(path)] = filepath.ToSlash(parent)
	}
	return out
}

func TestParentFor(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		dir     string
		want    string
	}{
		{"matching doc", []string{"2024", "2024.md", "index.md"}, "docs/2024", filepath.Join("docs", "2024.md")},
		{"no doc", []string{"2024", "index.md"}, "docs/2024", ""},
		{"other extension", []string{"2024", "2024.mdx"}, "docs/2024", ""},
		{"empty entries", nil, "docs/2024", ""},
		{"case sensitive", []string{"guides", "Guides.md"}, "docs/guides", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParentFor(tt.entries, tt.dir))
		})
	}
}

func TestWalk_InfersParents(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"index.md":              "# Home",
		"2024.md":               "# 2024",
		"2024/wk-01.md":         "# Week 1",
		"2024/wk-02.md":         "# Week 2",
		"2024/deep/notes.md":    "# Notes",
		"2024/deep.md":          "# Deep",
		"2024/deep/more/end.md": "# End",
		"orphans/lonely.md":     "# Lonely",
	})

	files, err := New().Walk(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"index.md":              "",
		"2024.md":               "",
		"2024/wk-01.md":         "2024.md",
		"2024/wk-02.md":         "2024.md",
		"2024/deep.md":          "2024.md",
		"2024/deep/notes.md":    "2024/deep.md",
		"2024/deep/more/end.md": "2024/deep.md",
		"orphans/lonely.md":     "",
	}, rel(t, root, files))
}

func TestWalk_SortedByPath(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"b.md":     "",
		"a/z.md":   "",
		"a/b/c.md": "",
		"c.md":     "",
		"a.md":     "",
	})

	files, err := New(WithWorkers(4)).Walk(context.Background(), root)
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		p, err := filepath.Rel(root, f.Path)
		require.NoError(t, err)
		paths = append(paths, filepath.ToSlash(p))
	}
	assert.Equal(t, []string{"a.md", "a/b/c.md", "a/z.md", "b.md", "c.md"}, paths)
}

func TestWalk_Deterministic(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for _, dir := range []string{"a", "b", "c", "d"} {
		for _, name := range []string{"1.md", "2.md", "3.md"} {
			files[dir+"/"+name] = ""
		}
		files[dir+".md"] = ""
	}
	writeTree(t, root, files)

	first, err := New(WithWorkers(8)).Walk(context.Background(), root)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := New(WithWorkers(8)).Walk(context.Background(), root)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestWalk_EmptyDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "nested"), 0o755))

	files, err := New().Walk(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWalk_MissingRoot(t *testing.T) {
	_, err := New().Walk(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestWalk_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.md": ""})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Walk(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalk_SymlinkCycle(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"docs/page.md": ""})

	if err := os.Symlink(root, filepath.Join(root, "docs", "loop")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	files, err := New().Walk(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"docs/page.md": ""}, rel(t, root, files))
}

func TestWalk_FollowsSymlinkedDirectory(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeTree(t, outside, map[string]string{"shared.md": ""})
	writeTree(t, root, map[string]string{"linked.md": ""})

	if err := os.Symlink(outside, filepath.Join(root, "linked")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	files, err := New().Walk(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"linked.md":        "",
		"linked/shared.md": "linked.md",
	}, rel(t, root, files))
}

func TestWalk_SkipsBrokenLinks(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"page.md": ""})

	if err := os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "dangling.md")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	files, err := New().Walk(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"page.md": ""}, rel(t, root, files))
}

func TestFilterExt(t *testing.T) {
	files := []DiscoveredFile{
		{Path: "a.md"},
		{Path: "b.txt"},
		{Path: "c.md.bak"},
		{Path: "d/e.md", ParentPath: "d.md"},
	}

	assert.Equal(t, []DiscoveredFile{
		{Path: "a.md"},
		{Path: "d/e.md", ParentPath: "d.md"},
	}, FilterExt(files, ".md"))
}
