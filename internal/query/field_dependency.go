package query

import (
	"strings"

	"github.com/elcuervo/otq/internal/tasks"
)

// dependencyField covers presence of ids and the blocking relationship between
// tasks. Blocking needs the full task list, so it reads SearchInfo.
type dependencyField struct{}

func (dependencyField) Name() string { return "depends on" }

var dependencyFilters = map[string]FilterFunc{
	"has id": taskPredicate(func(t *tasks.Task) bool {
		return t.ID != ""
	}),
	"no id": taskPredicate(func(t *tasks.Task) bool {
		return t.ID == ""
	}),
	"has depends on": taskPredicate(func(t *tasks.Task) bool {
		return len(t.DependsOn) > 0
	}),
	"no depends on": taskPredicate(func(t *tasks.Task) bool {
		return len(t.DependsOn) == 0
	}),
	"is blocked": searchPredicate(func(t *tasks.Task, info *SearchInfo) bool {
		return t.IsBlocked(info.AllTasks)
	}),
	"is not blocked": searchPredicate(func(t *tasks.Task, info *SearchInfo) bool {
		return !t.IsBlocked(info.AllTasks)
	}),
	"is blocking": searchPredicate(func(t *tasks.Task, info *SearchInfo) bool {
		return t.IsBlocking(info.AllTasks)
	}),
	"is not blocking": searchPredicate(func(t *tasks.Task, info *SearchInfo) bool {
		return !t.IsBlocking(info.AllTasks)
	}),
}

func (dependencyField) canFilter(line string) bool {
	_, ok := dependencyFilters[strings.ToLower(line)]
	return ok
}

func (dependencyField) filter(line string, _ *parseEnv) (*Filter, error) {
	return NewFilter(line, dependencyFilters[strings.ToLower(line)]), nil
}
