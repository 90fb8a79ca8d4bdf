package query

import (
	"strings"
	"time"

	"github.com/elcuervo/otq/internal/tasks"
)

// momentTokens maps moment.js style tokens to Go layouts, longest first
var momentTokens = []struct {
	token  string
	layout string
}{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"dddd", "Monday"},
	{"ddd", "Mon"},
	{"DD", "02"},
	{"D", "2"},
	{"HH", "15"},
	{"mm", "04"},
}

// formatMoment formats a date with a moment-style pattern. Text inside square
// brackets is copied literally.
func formatMoment(t time.Time, pattern string) string {
	var b strings.Builder

	for i := 0; i < len(pattern); {
		if pattern[i] == '[' {
			end := strings.IndexByte(pattern[i:], ']')
			if end > 0 {
				b.WriteString(pattern[i+1 : i+end])
				i += end + 1
				continue
			}
		}

		matched := false
		for _, tok := range momentTokens {
			if strings.HasPrefix(pattern[i:], tok.token) {
				b.WriteString(t.Format(tok.layout))
				i += len(tok.token)
				matched = true
				break
			}
		}

		if !matched {
			b.WriteByte(pattern[i])
			i++
		}
	}

	return b.String()
}

// dateContext wraps an optional date for custom functions
func dateContext(d *time.Time) map[string]any {
	if d == nil {
		return map[string]any{
			"moment":    nil,
			"formatted": "",
			"format":    func(string) string { return "" },
		}
	}

	day := *d
	return map[string]any{
		"moment":    day,
		"formatted": day.Format(tasks.DateLayout),
		"format":    func(pattern string) string { return formatMoment(day, pattern) },
	}
}

// taskContext is the read-only view of a task given to custom functions
func taskContext(t *tasks.Task, info *SearchInfo) map[string]any {
	recurrence := ""
	if t.Recurrence != nil {
		recurrence = t.Recurrence.Rule
	}

	tags := make([]any, len(t.Tags))
	for i, tag := range t.Tags {
		tags[i] = tag
	}

	dependsOn := make([]any, len(t.DependsOn))
	for i, id := range t.DependsOn {
		dependsOn[i] = id
	}

	now := time.Now()
	if info != nil && !info.Now.IsZero() {
		now = info.Now
	}

	return map[string]any{
		"description": t.Description,
		"status": map[string]any{
			"name":             t.Status.Name,
			"type":             string(t.Status.Type),
			"symbol":           t.Status.Symbol,
			"nextStatusSymbol": t.Status.NextSymbol,
		},
		"priorityNumber":   int(t.Priority),
		"priorityName":     t.Priority.Name(),
		"tags":             tags,
		"urgency":          t.Urgency(now),
		"isDone":           t.IsDone(),
		"isRecurring":      t.IsRecurring(),
		"recurrenceRule":   recurrence,
		"id":               t.ID,
		"dependsOn":        dependsOn,
		"blockLink":        t.BlockLink,
		"heading":          t.Heading,
		"lineNumber":       t.LineNumber,
		"indentation":      t.Indentation,
		"listMarker":       t.ListMarker,
		"originalMarkdown": t.OriginalMarkdown,
		"file":             fileContext(t.Path),
		"created":          dateContext(t.CreatedDate),
		"start":            dateContext(t.StartDate),
		"scheduled":        dateContext(t.ScheduledDate),
		"due":              dateContext(t.DueDate),
		"done":             dateContext(t.DoneDate),
		"cancelled":        dateContext(t.CancelledDate),
		"happens":          dateContext(t.HappensDate()),
	}
}

// functionEnv builds a fresh evaluation context for one task
func functionEnv(t *tasks.Task, info *SearchInfo) Env {
	queryPath := ""
	if info != nil {
		queryPath = info.QueryPath
	}

	return Env{
		"task": taskContext(t, info),
		"query": map[string]any{
			"file": fileContext(queryPath),
		},
	}
}
