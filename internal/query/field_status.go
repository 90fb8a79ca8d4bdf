package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/elcuervo/otq/internal/tasks"
)

// statusField handles "done", "not done" and sorting or grouping by done-ness
type statusField struct{}

func (statusField) Name() string { return "status" }

func (statusField) canFilter(line string) bool {
	l := strings.ToLower(line)
	return l == "done" || l == "not done"
}

func (statusField) filter(line string, _ *parseEnv) (*Filter, error) {
	done := strings.EqualFold(line, "done")

	return NewFilter(line, taskPredicate(func(t *tasks.Task) bool {
		return t.IsDone() == done
	})), nil
}

func (statusField) sorter(line string, _ *parseEnv) (*Sorter, bool, error) {
	reverse, ok := matchSortBy(line, "status")
	if !ok {
		return nil, false, nil
	}

	return newSorter(line, "status", reverse, plainComparator(func(a, b *tasks.Task) int {
		// open tasks first
		return compareBools(!a.IsDone(), !b.IsDone())
	})), true, nil
}

func (statusField) grouper(line string, _ *parseEnv) (*Grouper, bool, error) {
	reverse, ok := matchGroupBy(line, "status")
	if !ok {
		return nil, false, nil
	}

	return newGrouper(line, "status", reverse, singleGroup(func(t *tasks.Task, _ *SearchInfo) string {
		if t.IsDone() {
			return "Done"
		}
		return "Todo"
	})), true, nil
}

// statusTypeField matches on the behavioral type behind a status symbol
type statusTypeField struct{}

var statusTypeRe = regexp.MustCompile(`(?i)^status\.type (is not|is) (.*)$`)

func (statusTypeField) Name() string { return "status.type" }

func (statusTypeField) canFilter(line string) bool {
	return statusTypeRe.MatchString(line)
}

func (statusTypeField) filter(line string, _ *parseEnv) (*Filter, error) {
	m := statusTypeRe.FindStringSubmatch(line)

	want, ok := tasks.ParseStatusType(m[2])
	if !ok {
		return nil, instructionError("Invalid status.type instruction: '%s'.\n"+
			"    Allowed values are: TODO DONE IN_PROGRESS CANCELLED NON_TASK\n"+
			"    Note: values are case-insensitive,\n"+
			"          so 'in_progress' works too, for example.", line)
	}

	match := taskPredicate(func(t *tasks.Task) bool {
		return t.Status.Type == want
	})
	if strings.EqualFold(m[1], "is not") {
		match = negate(match)
	}

	return NewFilter(line, match), nil
}

func (statusTypeField) sorter(line string, _ *parseEnv) (*Sorter, bool, error) {
	reverse, ok := matchSortBy(line, "status.type")
	if !ok {
		return nil, false, nil
	}

	return newSorter(line, "status.type", reverse, plainComparator(func(a, b *tasks.Task) int {
		return compareInts(a.Status.Type.Order(), b.Status.Type.Order())
	})), true, nil
}

func (statusTypeField) grouper(line string, _ *parseEnv) (*Grouper, bool, error) {
	reverse, ok := matchGroupBy(line, "status.type")
	if !ok {
		return nil, false, nil
	}

	return newGrouper(line, "status.type", reverse, singleGroup(func(t *tasks.Task, _ *SearchInfo) string {
		return fmt.Sprintf("%%%%%d%%%%%s", t.Status.Type.Order(), t.Status.Type)
	})), true, nil
}

// recurringField handles "is recurring" and "is not recurring"
type recurringField struct{}

func (recurringField) Name() string { return "recurring" }

func (recurringField) canFilter(line string) bool {
	l := strings.ToLower(line)
	return l == "is recurring" || l == "is not recurring"
}

func (recurringField) filter(line string, _ *parseEnv) (*Filter, error) {
	want := strings.EqualFold(line, "is recurring")

	return NewFilter(line, taskPredicate(func(t *tasks.Task) bool {
		return t.IsRecurring() == want
	})), nil
}

func (recurringField) sorter(line string, _ *parseEnv) (*Sorter, bool, error) {
	reverse, ok := matchSortBy(line, "recurring")
	if !ok {
		return nil, false, nil
	}

	return newSorter(line, "recurring", reverse, plainComparator(func(a, b *tasks.Task) int {
		return compareBools(a.IsRecurring(), b.IsRecurring())
	})), true, nil
}

func (recurringField) grouper(line string, _ *parseEnv) (*Grouper, bool, error) {
	reverse, ok := matchGroupBy(line, "recurring")
	if !ok {
		return nil, false, nil
	}

	return newGrouper(line, "recurring", reverse, singleGroup(func(t *tasks.Task, _ *SearchInfo) string {
		if t.IsRecurring() {
			return "%%1%%Recurring"
		}
		return "%%2%%Not Recurring"
	})), true, nil
}

// priorityField compares the priority marker against a named level
type priorityField struct{}

var priorityRe = regexp.MustCompile(`(?i)^priority (is )?(above |below |not )?(lowest|low|none|normal|medium|high|highest)$`)

func (priorityField) Name() string { return "priority" }

func (priorityField) canFilter(line string) bool {
	return strings.HasPrefix(strings.ToLower(line), "priority ")
}

func (priorityField) filter(line string, _ *parseEnv) (*Filter, error) {
	m := priorityRe.FindStringSubmatch(line)
	if m == nil {
		return nil, instructionError("do not understand priority")
	}

	level, _ := tasks.ParsePriority(m[3])

	var match func(t *tasks.Task) bool
	switch strings.ToLower(strings.TrimSpace(m[2])) {
	case "above":
		match = func(t *tasks.Task) bool { return t.Priority < level }
	case "below":
		match = func(t *tasks.Task) bool { return t.Priority > level }
	case "not":
		match = func(t *tasks.Task) bool { return t.Priority != level }
	default:
		match = func(t *tasks.Task) bool { return t.Priority == level }
	}

	return NewFilter(line, taskPredicate(match)), nil
}

func (priorityField) sorter(line string, _ *parseEnv) (*Sorter, bool, error) {
	reverse, ok := matchSortBy(line, "priority")
	if !ok {
		return nil, false, nil
	}

	return newSorter(line, "priority", reverse, plainComparator(func(a, b *tasks.Task) int {
		return compareInts(int(a.Priority), int(b.Priority))
	})), true, nil
}

func (priorityField) grouper(line string, _ *parseEnv) (*Grouper, bool, error) {
	reverse, ok := matchGroupBy(line, "priority")
	if !ok {
		return nil, false, nil
	}

	return newGrouper(line, "priority", reverse, singleGroup(func(t *tasks.Task, _ *SearchInfo) string {
		return fmt.Sprintf("%%%%%d%%%%%s priority", int(t.Priority), t.Priority.Name())
	})), true, nil
}
