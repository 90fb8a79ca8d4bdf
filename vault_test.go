package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elcuervo/otq/internal/tasks"
)

// parseLines builds tasks as if the lines were read from path
func parseLines(t *testing.T, path string, lines ...string) []*tasks.Task {
	t.Helper()

	out := make([]*tasks.Task, 0, len(lines))
	for i, line := range lines {
		task, ok := tasks.LineParser{}.ParseLine(line, tasks.Location{Path: path, LineNumber: i + 1})
		require.True(t, ok, "not a task: %q", line)
		out = append(out, task)
	}
	return out
}

func relPaths(t *testing.T, root string, files []string) []string {
	t.Helper()

	out := make([]string, len(files))
	for i, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestScanVault(t *testing.T) {
	vault := t.TempDir()

	writeFile(t, filepath.Join(vault, "inbox.md"), "")
	writeFile(t, filepath.Join(vault, "Projects", "plan.MD"), "")
	writeFile(t, filepath.Join(vault, "Projects", "notes.txt"), "")
	writeFile(t, filepath.Join(vault, ".obsidian", "workspace.md"), "")
	writeFile(t, filepath.Join(vault, "Templates", "daily.md"), "")
	writeFile(t, filepath.Join(vault, "Archive", "2023", "old.md"), "")
	writeFile(t, filepath.Join(vault, "Archive", "keep.md"), "")

	files, err := scanVault(vault, []string{"Templates/**", "Archive/2023/**"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"inbox.md", "Projects/plan.MD", "Archive/keep.md"}, relPaths(t, vault, files))
}

func TestScanVaultExcludesFiles(t *testing.T) {
	vault := t.TempDir()

	writeFile(t, filepath.Join(vault, "a.md"), "")
	writeFile(t, filepath.Join(vault, "b.excalidraw.md"), "")

	files, err := scanVault(vault, []string{"**/*.excalidraw.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md"}, relPaths(t, vault, files))
}

func TestParseFile(t *testing.T) {
	vault := t.TempDir()
	path := filepath.Join(vault, "Projects", "Home.md")

	writeFile(t, path, "- [ ] before any heading\n"+
		"## Chores ##\n"+
		"- [ ] sweep\n"+
		"```\n"+
		"- [ ] not a task, inside a fence\n"+
		"```\n"+
		"### Garden\n"+
		"    - [x] water plants\n"+
		"plain text\n")

	found, err := parseFile(vault, path, tasks.LineParser{})
	require.NoError(t, err)
	require.Len(t, found, 3)

	assert.Equal(t, "before any heading", found[0].Description)
	assert.Empty(t, found[0].Heading)
	assert.Equal(t, 1, found[0].LineNumber)

	assert.Equal(t, "sweep", found[1].Description)
	assert.Equal(t, "Chores", found[1].Heading)
	assert.Equal(t, 3, found[1].LineNumber)

	assert.Equal(t, "water plants", found[2].Description)
	assert.Equal(t, "Garden", found[2].Heading)
	assert.Equal(t, 8, found[2].LineNumber)
	assert.Equal(t, "Projects/Home.md", found[2].Path)
	assert.True(t, found[2].IsSubItem())
}

func TestVaultLoadUsesCache(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "todo.md")
	writeFile(t, path, "- [ ] one\n")

	v := NewVault(root, nil, tasks.LineParser{}, zerolog.Nop())

	var phases []string
	all, err := v.Load(func(p ScanProgress) { phases = append(phases, p.Phase) })
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{"scanning", "parsing"}, phases)
	assert.Equal(t, 1, v.cache.Len())

	again, err := v.Load(nil)
	require.NoError(t, err)
	assert.Same(t, all[0], again[0])

	// a newer mtime makes the cached copy stale
	writeFile(t, path, "- [ ] one\n- [ ] two\n")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	reloaded, err := v.Load(nil)
	require.NoError(t, err)
	assert.Len(t, reloaded, 2)

	v.Invalidate(path)
	assert.Zero(t, v.cache.Len())
}

func TestVaultPath(t *testing.T) {
	v := NewVault("/vault", nil, tasks.LineParser{}, zerolog.Nop())
	assert.Equal(t, filepath.Join("/vault", "a", "b.md"), v.Path(&tasks.Task{Path: "a/b.md"}))
}

func TestTaskCacheMissingFile(t *testing.T) {
	c := NewTaskCache()

	called := false
	_, _, err := c.Tasks("/does/not/exist.md", func(string) ([]*tasks.Task, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, called)
	assert.Zero(t, c.Len())
}

func TestTaskCacheParsesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.md")
	writeFile(t, path, "- [ ] one\n")

	c := NewTaskCache()
	calls := 0
	parse := func(p string) ([]*tasks.Task, error) {
		calls++
		return parseLines(t, p, "- [ ] one"), nil
	}

	first, hit, err := c.Tasks(path, parse)
	require.NoError(t, err)
	assert.False(t, hit)

	again, hit, err := c.Tasks(path, parse)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first[0], again[0])
	assert.Equal(t, 1, calls)
}

func TestTaskCacheRetain(t *testing.T) {
	dir := t.TempDir()
	kept, gone := filepath.Join(dir, "kept.md"), filepath.Join(dir, "gone.md")
	writeFile(t, kept, "")
	writeFile(t, gone, "")

	c := NewTaskCache()
	none := func(string) ([]*tasks.Task, error) { return nil, nil }
	for _, p := range []string{kept, gone} {
		_, _, err := c.Tasks(p, none)
		require.NoError(t, err)
	}
	require.Equal(t, 2, c.Len())

	c.Retain([]string{kept})
	assert.Equal(t, 1, c.Len())

	c.Invalidate(kept)
	assert.Zero(t, c.Len())
}

func TestVaultLoadForgetsDeletedNotes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "- [ ] a\n")
	writeFile(t, filepath.Join(root, "b.md"), "- [ ] b\n")

	v := NewVault(root, nil, tasks.LineParser{}, zerolog.Nop())
	_, err := v.Load(nil)
	require.NoError(t, err)
	require.Equal(t, 2, v.cache.Len())

	require.NoError(t, os.Remove(filepath.Join(root, "b.md")))

	all, err := v.Load(nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 1, v.cache.Len())
}
