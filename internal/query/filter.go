package query

import (
	"time"

	"github.com/elcuervo/otq/internal/tasks"
)

// SearchInfo carries what cross-task predicates need. It is computed once per
// search over the full task list, not the filtered subset.
type SearchInfo struct {
	AllTasks  []*tasks.Task
	QueryPath string
	Now       time.Time
}

// FilterFunc is a pure predicate. Only custom functions return errors.
type FilterFunc func(task *tasks.Task, info *SearchInfo) (bool, error)

// Filter is a compiled filter instruction
type Filter struct {
	Instruction string
	Explanation *Explanation
	Match       FilterFunc
}

// NewFilter builds a filter whose explanation is the instruction itself
func NewFilter(instruction string, match FilterFunc) *Filter {
	return &Filter{
		Instruction: instruction,
		Explanation: NewExplanation(instruction),
		Match:       match,
	}
}

// ExplainIndented renders "instruction" when the explanation adds nothing,
// otherwise "instruction =>" followed by the indented explanation.
func (f *Filter) ExplainIndented(indent string) string {
	if f.Explanation == nil || (len(f.Explanation.Children) == 0 && f.Explanation.Description == f.Instruction) {
		return indent + f.Instruction + "\n"
	}

	return indent + f.Instruction + " =>\n" + f.Explanation.Indented(indent+"  ") + "\n"
}

// taskPredicate adapts a plain boolean predicate
func taskPredicate(fn func(task *tasks.Task) bool) FilterFunc {
	return func(task *tasks.Task, _ *SearchInfo) (bool, error) {
		return fn(task), nil
	}
}

// searchPredicate adapts a predicate that needs the search context
func searchPredicate(fn func(task *tasks.Task, info *SearchInfo) bool) FilterFunc {
	return func(task *tasks.Task, info *SearchInfo) (bool, error) {
		return fn(task, info), nil
	}
}

func negate(fn FilterFunc) FilterFunc {
	return func(task *tasks.Task, info *SearchInfo) (bool, error) {
		ok, err := fn(task, info)
		return !ok, err
	}
}
