// Package tasks holds the task records the query engine filters, sorts and groups.
package tasks

import (
	"math"
	"path"
	"slices"
	"strings"
	"time"
)

// DateLayout is the on-disk date format of every task date marker
const DateLayout = "2006-01-02"

// Recurrence is the recurrence rule attached with 🔁
type Recurrence struct {
	Rule string `json:"rule" yaml:"rule"`
}

// Task represents a single task line from a markdown file. Values are never
// mutated after parsing; edits build a new Task.
//
// Description has the global filter and markers removed. Path is relative to
// the vault, LineNumber is 1-indexed and Heading is the closest preceding
// heading, empty when none.
type Task struct {
	Status      Status   `json:"status" yaml:"status"`
	Description string   `json:"description" yaml:"description"`
	Path        string   `json:"path" yaml:"path"`
	LineNumber  int      `json:"line_number" yaml:"line_number"`
	Indentation string   `json:"indentation,omitempty" yaml:"indentation,omitempty"`
	ListMarker  string   `json:"list_marker" yaml:"list_marker"`
	Heading     string   `json:"heading,omitempty" yaml:"heading,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Priority    Priority `json:"priority" yaml:"priority"`

	CreatedDate   *time.Time `json:"created,omitempty" yaml:"created,omitempty"`
	StartDate     *time.Time `json:"start,omitempty" yaml:"start,omitempty"`
	ScheduledDate *time.Time `json:"scheduled,omitempty" yaml:"scheduled,omitempty"`
	DueDate       *time.Time `json:"due,omitempty" yaml:"due,omitempty"`
	DoneDate      *time.Time `json:"done,omitempty" yaml:"done,omitempty"`
	CancelledDate *time.Time `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`

	Recurrence *Recurrence `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`
	ID         string      `json:"id,omitempty" yaml:"id,omitempty"`
	DependsOn  []string    `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	BlockLink  string      `json:"block_link,omitempty" yaml:"block_link,omitempty"`

	OriginalMarkdown string `json:"original_markdown" yaml:"original_markdown"`
}

// StartOfDay returns the time truncated to midnight UTC
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date, rejecting impossible days such as 2023-02-30
func ParseDate(value string) (time.Time, bool) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// IsDone reports whether the task no longer needs work
func (t *Task) IsDone() bool {
	return t.Status.IsCompleted()
}

// IsRecurring reports whether the task has a recurrence rule
func (t *Task) IsRecurring() bool {
	return t.Recurrence != nil
}

// HappensDate returns the earliest of the start, scheduled and due dates
func (t *Task) HappensDate() *time.Time {
	var earliest *time.Time

	for _, d := range []*time.Time{t.StartDate, t.ScheduledDate, t.DueDate} {
		if d == nil {
			continue
		}
		if earliest == nil || d.Before(*earliest) {
			earliest = d
		}
	}

	return earliest
}

// Filename returns the file name including its extension
func (t *Task) Filename() string {
	if t.Path == "" {
		return ""
	}
	return path.Base(t.Path)
}

// FilenameWithoutExtension strips the .md suffix from Filename
func (t *Task) FilenameWithoutExtension() string {
	return strings.TrimSuffix(t.Filename(), path.Ext(t.Filename()))
}

// PathWithoutExtension strips the .md suffix from Path
func (t *Task) PathWithoutExtension() string {
	return strings.TrimSuffix(t.Path, path.Ext(t.Path))
}

// Folder returns the containing folder with a trailing slash, "/" at the vault root
func (t *Task) Folder() string {
	return FolderOf(t.Path)
}

// Root returns the top-level folder with a trailing slash, "/" at the vault root
func (t *Task) Root() string {
	return RootOf(t.Path)
}

// FolderOf returns the folder part of a vault path with a trailing slash
func FolderOf(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	dir := path.Dir(p)
	if dir == "." || dir == "/" || dir == "" {
		return "/"
	}
	return strings.TrimPrefix(dir, "/") + "/"
}

// RootOf returns the top-level folder of a vault path with a trailing slash
func RootOf(p string) string {
	p = strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "/")
	idx := strings.Index(p, "/")
	if idx < 0 {
		return "/"
	}
	return p[:idx+1]
}

// Urgency scores the task the way the Tasks plugin does: due dates dominate,
// then scheduled and start dates, then priority.
func (t *Task) Urgency(now time.Time) float64 {
	today := StartOfDay(now)
	urgency := 0.0

	if t.DueDate != nil {
		daysOverdue := math.Round(today.Sub(StartOfDay(*t.DueDate)).Hours() / 24)

		var coefficient float64
		switch {
		case daysOverdue >= 7:
			coefficient = 1.0
		case daysOverdue >= -14:
			coefficient = ((daysOverdue+14)*0.8)/21 + 0.2
		default:
			coefficient = 0.2
		}
		urgency += coefficient * 12.0
	}

	if t.ScheduledDate != nil && !today.Before(StartOfDay(*t.ScheduledDate)) {
		urgency += 5.0
	}

	if t.StartDate != nil && today.Before(StartOfDay(*t.StartDate)) {
		urgency -= 3.0
	}

	urgency += t.Priority.urgencyScore()

	return math.Round(urgency*100000) / 100000
}

// IsBlocked reports whether any task this one depends on is still open
func (t *Task) IsBlocked(all []*Task) bool {
	if len(t.DependsOn) == 0 || t.IsDone() {
		return false
	}

	for _, other := range all {
		if other.ID == "" || other.IsDone() {
			continue
		}
		if slices.Contains(t.DependsOn, other.ID) {
			return true
		}
	}

	return false
}

// IsBlocking reports whether an open task depends on this one
func (t *Task) IsBlocking(all []*Task) bool {
	if t.ID == "" || t.IsDone() {
		return false
	}

	for _, other := range all {
		if other == t || other.IsDone() {
			continue
		}
		if slices.Contains(other.DependsOn, t.ID) {
			return true
		}
	}

	return false
}

// IsSubItem reports whether the task is indented under another list item.
// Blockquote markers do not count as indentation.
func (t *Task) IsSubItem() bool {
	indent := t.Indentation
	if idx := strings.LastIndex(indent, ">"); idx >= 0 {
		indent = strings.TrimPrefix(indent[idx+1:], " ")
	}
	return indent != ""
}
