package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/elcuervo/otq/internal/query"
)

var renderNow = time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)

func plainOptions() renderOptions {
	return renderOptions{Plain: true, Now: renderNow}
}

func section(t *testing.T, name, source string, lines ...string) QuerySection {
	t.Helper()

	q := query.New(source, query.WithClock(func() time.Time { return renderNow }))
	return QuerySection{
		Name:   name,
		Query:  q,
		Result: q.ApplyToTasks(parseLines(t, "notes/a.md", lines...)),
	}
}

func TestTaskMarkdown(t *testing.T) {
	task := parseLines(t, "a.md", "- [ ] Fix sink #home 🔼 📅 2024-01-05 🆔 s1 ⛔ p1,p2")[0]

	layout := query.NewLayout()
	assert.Equal(t, "- [ ] Fix sink #home 🔼 📅 2024-01-05 🆔 s1 ⛔ p1,p2", taskMarkdown(task, layout, renderNow))

	layout = query.New("hide tags\nhide id\nshort mode").Layout()
	assert.Equal(t, "- [ ] Fix sink 🔼 📅 ⛔", taskMarkdown(task, layout, renderNow))

	layout = query.New("hide due date\nhide depends on\nhide priority\nhide id\nshow urgency").Layout()
	line := taskMarkdown(task, layout, renderNow)
	assert.True(t, strings.HasPrefix(line, "- [ ] Fix sink #home (urgency "), line)
}

func TestRenderSectionPlain(t *testing.T) {
	s := section(t, "Today", "not done\ngroup by folder", "- [ ] open", "- [x] closed")

	assert.Equal(t, "## Today\n\n### notes/\n- [ ] open (a)\n1 task\n", renderSection(s, plainOptions()))
}

func TestRenderSectionHidesBacklinkAndCount(t *testing.T) {
	s := section(t, "", "hide backlink\nhide task count", "- [ ] open")

	assert.Equal(t, "- [ ] open\n", renderSection(s, plainOptions()))
}

func TestRenderSectionError(t *testing.T) {
	s := section(t, "Broken", "frobnicate", "- [ ] open")

	out := renderSection(s, plainOptions())
	assert.True(t, strings.HasPrefix(out, "## Broken\n\nTasks query: do not understand query"), out)
}

func TestRenderSectionExplain(t *testing.T) {
	s := section(t, "", "explain\nnot done", "- [ ] open")

	out := renderSection(s, plainOptions())
	assert.True(t, strings.HasPrefix(out, "not done\n"), out)

	s = section(t, "", "not done", "- [ ] open")
	opts := plainOptions()
	opts.Explain = true
	assert.True(t, strings.HasPrefix(renderSection(s, opts), "not done\n"))
}

func TestSectionLinesMarkTasks(t *testing.T) {
	s := section(t, "Today", "", "- [ ] one", "- [ ] two")

	var found []string
	for _, l := range sectionLines(s, plainOptions()) {
		if l.task != nil {
			found = append(found, l.task.Description)
		}
	}
	assert.Equal(t, []string{"one", "two"}, found)
}

func TestTaskCount(t *testing.T) {
	s := section(t, "", "limit 2", "- [ ] a", "- [ ] b", "- [ ] c")
	assert.Equal(t, "2 of 3 tasks", taskCount(s.Result))

	s = section(t, "", "", "- [ ] a")
	assert.Equal(t, "1 task", taskCount(s.Result))

	s = section(t, "", "", "- [ ] a", "- [ ] b")
	assert.Equal(t, "2 tasks", taskCount(s.Result))
}

func TestWriteJSON(t *testing.T) {
	sections := []QuerySection{
		section(t, "Open", "not done", "- [ ] open", "- [x] closed"),
		section(t, "Broken", "frobnicate"),
	}

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, sections))

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)

	assert.Equal(t, "Open", out[0]["name"])
	assert.EqualValues(t, 1, out[0]["total_tasks_count"])
	assert.NotContains(t, out[0], "error")
	assert.Contains(t, out[1]["error"], "do not understand query")
}

func TestWriteYAML(t *testing.T) {
	sections := []QuerySection{section(t, "Open", "not done", "- [ ] open")}

	var buf bytes.Buffer
	require.NoError(t, writeYAML(&buf, sections))

	var out []sectionOutput
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Open", out[0].Name)
	assert.Equal(t, 1, out[0].TotalTasksCount)
}
