package query

import (
	"cmp"
	"slices"
	"time"

	"github.com/elcuervo/otq/internal/tasks"
)

// Comparator orders two tasks, returning -1, 0 or 1
type Comparator func(a, b *tasks.Task, info *SearchInfo) (int, error)

// Sorter is a compiled "sort by" instruction
type Sorter struct {
	Instruction string
	Property    string
	Compare     Comparator
	Reverse     bool
}

func (s *Sorter) compare(a, b *tasks.Task, info *SearchInfo) (int, error) {
	n, err := s.Compare(a, b, info)
	if s.Reverse {
		n = -n
	}
	return n, err
}

// sortTasks sorts a copy of the tasks with the sorters as successive keys. The
// sort is stable so equal tasks keep their input order.
func sortTasks(list []*tasks.Task, sorters []*Sorter, info *SearchInfo) ([]*tasks.Task, error) {
	sorted := make([]*tasks.Task, len(list))
	copy(sorted, list)

	if len(sorters) == 0 {
		return sorted, nil
	}

	var firstErr error

	slices.SortStableFunc(sorted, func(a, b *tasks.Task) int {
		for _, s := range sorters {
			n, err := s.compare(a, b, info)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return 0
			}
			if n != 0 {
				return n
			}
		}
		return 0
	})

	if firstErr != nil {
		return nil, firstErr
	}

	return sorted, nil
}

// plainComparator adapts a comparator that cannot fail
func plainComparator(fn func(a, b *tasks.Task) int) Comparator {
	return func(a, b *tasks.Task, _ *SearchInfo) (int, error) {
		return fn(a, b), nil
	}
}

// compareDates puts dated tasks first in ascending order and undated tasks last
func compareDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return tasks.StartOfDay(*a).Compare(tasks.StartOfDay(*b))
}

func compareBools(a, b bool) int {
	// true sorts first
	switch {
	case a == b:
		return 0
	case a:
		return -1
	}
	return 1
}

func compareInts(a, b int) int {
	return cmp.Compare(a, b)
}
