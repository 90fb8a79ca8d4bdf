package query

import (
	"fmt"
	"math"
	"strings"

	"github.com/elcuervo/otq/internal/tasks"
)

type excludeSubItemsField struct{}

func (excludeSubItemsField) Name() string { return "exclude sub-items" }

func (excludeSubItemsField) canFilter(line string) bool {
	return strings.EqualFold(line, "exclude sub-items")
}

func (excludeSubItemsField) filter(line string, _ *parseEnv) (*Filter, error) {
	return NewFilter(line, taskPredicate(func(t *tasks.Task) bool {
		return !t.IsSubItem()
	})), nil
}

// urgencyField sorts and groups by the computed urgency score
type urgencyField struct{}

func (urgencyField) Name() string { return "urgency" }

func (urgencyField) sorter(line string, _ *parseEnv) (*Sorter, bool, error) {
	reverse, ok := matchSortBy(line, "urgency")
	if !ok {
		return nil, false, nil
	}

	return newSorter(line, "urgency", reverse, func(a, b *tasks.Task, info *SearchInfo) (int, error) {
		// most urgent first
		ua, ub := a.Urgency(info.Now), b.Urgency(info.Now)
		switch {
		case ua > ub:
			return -1, nil
		case ua < ub:
			return 1, nil
		}
		return 0, nil
	}), true, nil
}

func (urgencyField) grouper(line string, _ *parseEnv) (*Grouper, bool, error) {
	reverse, ok := matchGroupBy(line, "urgency")
	if !ok {
		return nil, false, nil
	}

	return newGrouper(line, "urgency", reverse, singleGroup(func(t *tasks.Task, info *SearchInfo) string {
		u := t.Urgency(info.Now)
		// higher urgency gets a smaller key so it is listed first
		return fmt.Sprintf("%%%%%d%%%%Urgency %.2f", 10000-int(math.Round(u*100)), u)
	})), true, nil
}

// backlinkField groups by the note and heading a task was found under
type backlinkField struct{}

func (backlinkField) Name() string { return "backlink" }

func (backlinkField) grouper(line string, _ *parseEnv) (*Grouper, bool, error) {
	reverse, ok := matchGroupBy(line, "backlink")
	if !ok {
		return nil, false, nil
	}

	return newGrouper(line, "backlink", reverse, singleGroup(func(t *tasks.Task, _ *SearchInfo) string {
		if t.Path == "" {
			return "Unknown Location"
		}

		name := "[[" + t.FilenameWithoutExtension() + "]]"
		if t.Heading != "" && t.Heading != t.FilenameWithoutExtension() {
			name += " > " + t.Heading
		}
		return name
	})), true, nil
}
