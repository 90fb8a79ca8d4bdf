package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elcuervo/otq/internal/query"
)

func TestParseQueryBlocks(t *testing.T) {
	content := "# Dashboard\n" +
		"\n" +
		"```tasks\n" +
		"not done\n" +
		"```\n" +
		"\n" +
		"## Due soon\n" +
		"\n" +
		"```tasks\n" +
		"due before next week\n" +
		"sort by due\n" +
		"```\n" +
		"\n" +
		"## Notes\n" +
		"```go\n" +
		"fmt.Println()\n" +
		"```\n"

	blocks := parseQueryBlocks(content)

	require.Len(t, blocks, 2)
	assert.Equal(t, QueryBlock{Name: "", Source: "not done"}, blocks[0])
	assert.Equal(t, QueryBlock{Name: "Due soon", Source: "due before next week\nsort by due"}, blocks[1])
}

func TestParseQueryFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "Today.md")
	writeFile(t, path, "## Open\n```tasks\nnot done\n```\n")

	blocks, err := parseQueryFile(path)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Open", blocks[0].Name)

	empty := filepath.Join(dir, "Empty.md")
	writeFile(t, empty, "nothing here\n")

	_, err = parseQueryFile(empty)
	assert.ErrorContains(t, err, "no ```tasks block found")
}

func TestQuerySourceInlineNewlines(t *testing.T) {
	blocks, err := querySource{Text: `not done\nlimit 5`}.blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "not done\nlimit 5", blocks[0].Source)
}

func TestBuildSections(t *testing.T) {
	all := parseLines(t, "notes/a.md", "- [ ] open", "- [x] closed")

	sections := buildSections([]QueryBlock{
		{Name: "Open", Source: "not done"},
		{Name: "Broken", Source: "frobnicate"},
	}, all, []query.Option{query.WithSettings(query.Settings{})})

	require.Len(t, sections, 2)
	assert.Equal(t, "Open", sections[0].Name)
	assert.Equal(t, 1, sections[0].Result.TotalTasksCount())
	assert.True(t, sections[1].Result.HasError())
}
