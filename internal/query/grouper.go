package query

import (
	"regexp"
	"strings"

	"github.com/elcuervo/otq/internal/tasks"
)

// GroupFunc returns the names of the groups a task belongs to. A task may fan
// out into several groups; returning no names drops it from the grouping.
type GroupFunc func(task *tasks.Task, info *SearchInfo) ([]string, error)

// Grouper is a compiled "group by" instruction
type Grouper struct {
	Instruction string
	Property    string
	Group       GroupFunc
	Reverse     bool
}

var sortPrefixRe = regexp.MustCompile(`%%[^%]*%%`)

// DisplayName strips the %%n%% ordering prefixes used to control group order
func DisplayName(name string) string {
	return strings.TrimSpace(sortPrefixRe.ReplaceAllString(name, ""))
}

// singleGroup adapts a grouper that yields exactly one name per task
func singleGroup(fn func(task *tasks.Task, info *SearchInfo) string) GroupFunc {
	return func(task *tasks.Task, info *SearchInfo) ([]string, error) {
		return []string{fn(task, info)}, nil
	}
}
