package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/elcuervo/otq/internal/tasks"
)

// tagsField matches when any tag matches; the negated forms match when none does
type tagsField struct{}

var (
	tagsFilterRe   = regexp.MustCompile(`(?i)^(tag|tags) (include|includes|do not include|does not include|regex matches|regex does not match) (.*)$`)
	tagsPresenceRe = regexp.MustCompile(`(?i)^(has|no) tags?$`)
	tagsSortRe     = regexp.MustCompile(`(?i)^sort by tag( reverse)?( \d+)?$`)
)

func (tagsField) Name() string { return "tags" }

func (tagsField) canFilter(line string) bool {
	return tagsPresenceRe.MatchString(line) || tagsFilterRe.MatchString(line)
}

func (tagsField) filter(line string, _ *parseEnv) (*Filter, error) {
	if m := tagsPresenceRe.FindStringSubmatch(line); m != nil {
		want := strings.EqualFold(m[1], "has")
		return NewFilter(line, taskPredicate(func(t *tasks.Task) bool {
			return (len(t.Tags) > 0) == want
		})), nil
	}

	m := tagsFilterRe.FindStringSubmatch(line)
	op := strings.ToLower(m[2])

	matcher, err := newTextMatcher(line, op, m[3])
	if err != nil {
		return nil, err
	}

	match := taskPredicate(func(t *tasks.Task) bool {
		for _, tag := range t.Tags {
			if matcher.Matches(tag) {
				return true
			}
		}
		return false
	})

	if strings.Contains(op, "not") {
		match = negate(match)
	}

	filter := NewFilter(line, match)
	if expl := matcher.Explain("tags"); expl != nil {
		filter.Explanation = expl
	}

	return filter, nil
}

// sorter handles "sort by tag [n]", comparing the nth tag (1-based). Tasks
// without that tag sort last.
func (tagsField) sorter(line string, _ *parseEnv) (*Sorter, bool, error) {
	m := tagsSortRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false, nil
	}

	index := 1
	if n := strings.TrimSpace(m[2]); n != "" {
		index, _ = strconv.Atoi(n)
		if index < 1 {
			return nil, false, instructionError("tag number must be 1 or more")
		}
	}

	nth := func(t *tasks.Task) (string, bool) {
		if len(t.Tags) < index {
			return "", false
		}
		return strings.ToLower(t.Tags[index-1]), true
	}

	return newSorter(line, "tag", m[1] != "", plainComparator(func(a, b *tasks.Task) int {
		ta, okA := nth(a)
		tb, okB := nth(b)

		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		}
		return compareText(ta, tb)
	})), true, nil
}

// grouper fans a task out into one group per tag
func (tagsField) grouper(line string, _ *parseEnv) (*Grouper, bool, error) {
	reverse, ok := matchGroupBy(line, "tags", "tag")
	if !ok {
		return nil, false, nil
	}

	return newGrouper(line, "tags", reverse, func(t *tasks.Task, _ *SearchInfo) ([]string, error) {
		if len(t.Tags) == 0 {
			return []string{"(No tags)"}, nil
		}

		names := make([]string, 0, len(t.Tags))
		seen := make(map[string]bool, len(t.Tags))
		for _, tag := range t.Tags {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			names = append(names, tag)
		}
		return names, nil
	}), true, nil
}
