package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, ok := ParseDate(value)
	require.True(t, ok, "bad date %q", value)
	return d
}

func TestParseLine(t *testing.T) {
	loc := Location{Path: "Projects/Home.md", LineNumber: 7, Heading: "Chores"}

	task, ok := LineParser{}.ParseLine("- [ ] Fix the sink #home 🔼 🛫 2024-01-02 ⏳ 2024-01-03 📅 2024-01-05 🆔 sink ⛔ plumber,parts ^abc", loc)
	require.True(t, ok)

	assert.Equal(t, "Fix the sink #home", task.Description)
	assert.Equal(t, StatusTodoDefault, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)
	assert.Equal(t, []string{"#home"}, task.Tags)
	assert.Equal(t, "sink", task.ID)
	assert.Equal(t, []string{"plumber", "parts"}, task.DependsOn)
	assert.Equal(t, " ^abc", task.BlockLink)
	assert.Equal(t, day(t, "2024-01-02"), *task.StartDate)
	assert.Equal(t, day(t, "2024-01-03"), *task.ScheduledDate)
	assert.Equal(t, day(t, "2024-01-05"), *task.DueDate)

	assert.Equal(t, "Projects/Home.md", task.Path)
	assert.Equal(t, 7, task.LineNumber)
	assert.Equal(t, "Chores", task.Heading)
	assert.Equal(t, "-", task.ListMarker)
}

func TestParseLineTrailingTagsStayInDescription(t *testing.T) {
	task, ok := LineParser{}.ParseLine("- [x] Ship it 📅 2024-03-01 #work ✅ 2024-03-02", Location{})
	require.True(t, ok)

	assert.Equal(t, "Ship it #work", task.Description)
	assert.True(t, task.IsDone())
	assert.Equal(t, day(t, "2024-03-01"), *task.DueDate)
	assert.Equal(t, day(t, "2024-03-02"), *task.DoneDate)
}

func TestParseLineRejectsNonTasks(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "plain text", line: "just a note"},
		{name: "list item", line: "- groceries"},
		{name: "heading", line: "## Tasks"},
		{name: "missing space", line: "-[ ] nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := LineParser{}.ParseLine(tt.line, Location{})
			assert.False(t, ok)
		})
	}
}

func TestParseLineGlobalFilter(t *testing.T) {
	parser := LineParser{GlobalFilter: "#task"}

	_, ok := parser.ParseLine("- [ ] no marker here", Location{})
	assert.False(t, ok)

	task, ok := parser.ParseLine("- [ ] #task water plants", Location{})
	require.True(t, ok)
	assert.Equal(t, "water plants", task.Description)
}

func TestParseLineRecurrenceAndPriority(t *testing.T) {
	task, ok := LineParser{}.ParseLine("- [ ] Pay rent 🔁 every month ⏫", Location{})
	require.True(t, ok)

	require.NotNil(t, task.Recurrence)
	assert.Equal(t, "every month", task.Recurrence.Rule)
	assert.True(t, task.IsRecurring())
	assert.Equal(t, PriorityHigh, task.Priority)
	assert.Equal(t, "Pay rent", task.Description)
}

func TestParseLineIndentation(t *testing.T) {
	tests := []struct {
		line    string
		subItem bool
	}{
		{line: "- [ ] top", subItem: false},
		{line: "    - [ ] nested", subItem: true},
		{line: "> - [ ] quoted", subItem: false},
		{line: ">     - [ ] quoted nested", subItem: true},
		{line: "1. [ ] numbered", subItem: false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			task, ok := LineParser{}.ParseLine(tt.line, Location{})
			require.True(t, ok)
			assert.Equal(t, tt.subItem, task.IsSubItem())
		})
	}
}

func TestTaskPathHelpers(t *testing.T) {
	task := &Task{Path: "a/b/c.md"}

	assert.Equal(t, "c.md", task.Filename())
	assert.Equal(t, "c", task.FilenameWithoutExtension())
	assert.Equal(t, "a/b/c", task.PathWithoutExtension())
	assert.Equal(t, "a/b/", task.Folder())
	assert.Equal(t, "a/", task.Root())

	top := &Task{Path: "inbox.md"}
	assert.Equal(t, "/", top.Folder())
	assert.Equal(t, "/", top.Root())
}

func TestHappensDate(t *testing.T) {
	start := day(t, "2024-01-10")
	due := day(t, "2024-01-05")

	task := &Task{StartDate: &start, DueDate: &due}
	assert.Equal(t, due, *task.HappensDate())

	assert.Nil(t, (&Task{}).HappensDate())
}

func TestUrgency(t *testing.T) {
	now := day(t, "2024-01-10")
	due := day(t, "2024-01-10")

	assert.InDelta(t, 1.95, (&Task{Priority: PriorityNone}).Urgency(now), 0.00001)
	// due today: ((0+14)*0.8/21+0.2)*12 + 1.95
	assert.InDelta(t, 10.75, (&Task{Priority: PriorityNone, DueDate: &due}).Urgency(now), 0.00001)
}

func TestBlockedAndBlocking(t *testing.T) {
	parent := &Task{ID: "a", Status: StatusTodoDefault}
	child := &Task{DependsOn: []string{"a"}, Status: StatusTodoDefault}
	all := []*Task{parent, child}

	assert.True(t, child.IsBlocked(all))
	assert.True(t, parent.IsBlocking(all))

	parent.Status = StatusDoneDefault
	assert.False(t, child.IsBlocked(all))
	assert.False(t, parent.IsBlocking(all))
}
