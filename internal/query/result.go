package query

import (
	"github.com/elcuervo/otq/internal/tasks"
)

// GroupHeading is a heading a renderer prints before a group. Level 0 is the
// outermost grouping.
type GroupHeading struct {
	Level       int    `json:"level" yaml:"level"`
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name" yaml:"display_name"`
}

// TaskGroup is the tasks found at one path of group names
type TaskGroup struct {
	GroupNames []string       `json:"group_names" yaml:"group_names"`
	Headings   []GroupHeading `json:"headings" yaml:"headings"`
	Tasks      []*tasks.Task  `json:"tasks" yaml:"tasks"`
}

// DisplayNames returns the group names without ordering prefixes
func (g *TaskGroup) DisplayNames() []string {
	out := make([]string, len(g.GroupNames))
	for i, name := range g.GroupNames {
		out[i] = DisplayName(name)
	}
	return out
}

// TaskGroups is the grouped output of a search
type TaskGroups struct {
	Groups []*TaskGroup `json:"groups" yaml:"groups"`
}

// TotalTasksCount counts distinct tasks. A task in several groups counts once.
func (tg *TaskGroups) TotalTasksCount() int {
	seen := make(map[*tasks.Task]bool)
	for _, g := range tg.Groups {
		for _, t := range g.Tasks {
			seen[t] = true
		}
	}
	return len(seen)
}

// QueryResult is the outcome of applying a query to a task list
type QueryResult struct {
	TaskGroups                 *TaskGroups `json:"task_groups" yaml:"task_groups"`
	TotalTasksCountBeforeLimit int         `json:"total_tasks_count_before_limit" yaml:"total_tasks_count_before_limit"`
	SearchErrorMessage         string      `json:"search_error_message,omitempty" yaml:"search_error_message,omitempty"`
	Explanation                string      `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Layout                     *Layout     `json:"layout" yaml:"layout"`
}

// Groups returns the groups in display order
func (r *QueryResult) Groups() []*TaskGroup {
	if r.TaskGroups == nil {
		return nil
	}
	return r.TaskGroups.Groups
}

// TotalTasksCount is the number of distinct tasks after limits
func (r *QueryResult) TotalTasksCount() int {
	if r.TaskGroups == nil {
		return 0
	}
	return r.TaskGroups.TotalTasksCount()
}

// HasError reports whether the search failed
func (r *QueryResult) HasError() bool {
	return r.SearchErrorMessage != ""
}

func errorResult(message string, layout *Layout) *QueryResult {
	return &QueryResult{
		TaskGroups:         &TaskGroups{},
		SearchErrorMessage: message,
		Layout:             layout,
	}
}
