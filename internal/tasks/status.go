package tasks

import (
	"fmt"
	"strings"
)

// StatusType is the behavioral category of a status symbol
type StatusType string

const (
	StatusTodo       StatusType = "TODO"
	StatusInProgress StatusType = "IN_PROGRESS"
	StatusDone       StatusType = "DONE"
	StatusCancelled  StatusType = "CANCELLED"
	StatusNonTask    StatusType = "NON_TASK"
	StatusEmpty      StatusType = "EMPTY"
)

// statusTypeOrder is the sort and grouping order of status types
var statusTypeOrder = map[StatusType]int{
	StatusInProgress: 1,
	StatusTodo:       2,
	StatusDone:       3,
	StatusCancelled:  4,
	StatusNonTask:    5,
	StatusEmpty:      6,
}

// ParseStatusType converts a keyword such as "in_progress" to a StatusType
func ParseStatusType(value string) (StatusType, bool) {
	st := StatusType(strings.ToUpper(strings.TrimSpace(value)))
	_, ok := statusTypeOrder[st]
	return st, ok
}

// Order returns the position of the type in the canonical ordering
func (st StatusType) Order() int {
	if n, ok := statusTypeOrder[st]; ok {
		return n
	}
	return len(statusTypeOrder) + 1
}

// Status describes the checkbox symbol of a task
type Status struct {
	Symbol     string     `json:"symbol" yaml:"symbol" toml:"symbol"`
	Name       string     `json:"name" yaml:"name" toml:"name"`
	NextSymbol string     `json:"next_symbol" yaml:"next_symbol" toml:"next_symbol"`
	Type       StatusType `json:"type" yaml:"type" toml:"type"`
}

var (
	StatusTodoDefault       = Status{Symbol: " ", Name: "Todo", NextSymbol: "x", Type: StatusTodo}
	StatusDoneDefault       = Status{Symbol: "x", Name: "Done", NextSymbol: " ", Type: StatusDone}
	StatusInProgressDefault = Status{Symbol: "/", Name: "In Progress", NextSymbol: "x", Type: StatusInProgress}
	StatusCancelledDefault  = Status{Symbol: "-", Name: "Cancelled", NextSymbol: " ", Type: StatusCancelled}
)

// IsCompleted reports whether the status counts as finished work
func (s Status) IsCompleted() bool {
	return s.Type == StatusDone || s.Type == StatusCancelled || s.Type == StatusNonTask
}

// StatusRegistry maps checkbox symbols to statuses
type StatusRegistry struct {
	statuses []Status
}

// NewStatusRegistry returns a registry holding the built-in statuses
func NewStatusRegistry() *StatusRegistry {
	return &StatusRegistry{
		statuses: []Status{
			StatusTodoDefault,
			StatusDoneDefault,
			{Symbol: "X", Name: "Done", NextSymbol: " ", Type: StatusDone},
			StatusInProgressDefault,
			StatusCancelledDefault,
		},
	}
}

// DefaultStatuses is the process-wide read-only registry used when no custom one is given
var DefaultStatuses = NewStatusRegistry()

// Add registers a status, returning an error if the symbol is already taken
func (r *StatusRegistry) Add(s Status) error {
	if s.Symbol == "" {
		return fmt.Errorf("status %q has an empty symbol", s.Name)
	}

	if existing, ok := r.BySymbol(s.Symbol); ok {
		return fmt.Errorf("the symbol %q is already in use by status %q", s.Symbol, existing.Name)
	}

	r.statuses = append(r.statuses, s)
	return nil
}

// BulkAdd registers several statuses and returns one warning per status that could not be added
func (r *StatusRegistry) BulkAdd(statuses []Status) []string {
	var warnings []string

	for _, s := range statuses {
		if err := r.Add(s); err != nil {
			warnings = append(warnings, fmt.Sprintf("The status %s (%s) is already added.", s.Name, s.Symbol))
		}
	}

	return warnings
}

// BySymbol looks up a status
func (r *StatusRegistry) BySymbol(symbol string) (Status, bool) {
	for _, s := range r.statuses {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return Status{}, false
}

// Lookup returns the registered status or an unknown TODO status carrying the symbol
func (r *StatusRegistry) Lookup(symbol string) Status {
	if s, ok := r.BySymbol(symbol); ok {
		return s
	}
	return Status{Symbol: symbol, Name: "Unknown", NextSymbol: "x", Type: StatusTodo}
}

// Statuses returns a copy of the registered statuses in insertion order
func (r *StatusRegistry) Statuses() []Status {
	out := make([]Status, len(r.statuses))
	copy(out, r.statuses)
	return out
}
