package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/elcuervo/otq/internal/tasks"
)

// today is Wednesday 2024-01-10
var today = time.Date(2024, time.January, 10, 9, 30, 0, 0, time.UTC)

func fixedClock() Option {
	return WithClock(func() time.Time { return today })
}

// taskList parses markdown lines into tasks of notes/inbox.md
func taskList(t *testing.T, lines ...string) []*tasks.Task {
	t.Helper()
	return taskListAt(t, "notes/inbox.md", lines...)
}

func taskListAt(t *testing.T, path string, lines ...string) []*tasks.Task {
	t.Helper()

	out := make([]*tasks.Task, 0, len(lines))
	for i, line := range lines {
		task, ok := tasks.LineParser{}.ParseLine(line, tasks.Location{Path: path, LineNumber: i + 1})
		require.True(t, ok, "not a task: %q", line)
		out = append(out, task)
	}
	return out
}

func descriptions(list []*tasks.Task) []string {
	out := make([]string, 0, len(list))
	for _, t := range list {
		out = append(out, t.Description)
	}
	return out
}

// resultDescriptions flattens every group of a result, in display order
func resultDescriptions(r *QueryResult) []string {
	var out []string
	for _, g := range r.Groups() {
		out = append(out, descriptions(g.Tasks)...)
	}
	return out
}

// run compiles source with a fixed clock and applies it
func run(t *testing.T, source string, all []*tasks.Task, opts ...Option) *QueryResult {
	t.Helper()

	q := New(source, append([]Option{fixedClock()}, opts...)...)
	require.NoError(t, q.Err(), "query %q", source)

	result := q.ApplyToTasks(all)
	require.False(t, result.HasError(), result.SearchErrorMessage)
	return result
}
