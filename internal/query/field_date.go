package query

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/elcuervo/otq/internal/tasks"
)

// dateField filters, sorts and groups by one of the task dates. The happens
// field reads several dates and matches when any of them does.
type dateField struct {
	keyword string // filter keyword, "starts" for the start date
	noun    string // used in "has <noun> date" and in messages
	label   string // used in explanations
	dates   func(t *tasks.Task) []*time.Time
	sortBy  func(t *tasks.Task) *time.Time

	// missingMatches makes tasks without the date match every comparison
	missingMatches bool

	filterRe   *regexp.Regexp
	presenceRe *regexp.Regexp
}

func newDateField(keyword, noun string, get func(t *tasks.Task) *time.Time) *dateField {
	return &dateField{
		keyword: keyword,
		noun:    noun,
		label:   noun + " date",
		dates: func(t *tasks.Task) []*time.Time {
			return []*time.Time{get(t)}
		},
		sortBy:     get,
		filterRe:   regexp.MustCompile(`(?i)^` + keyword + `( date)?( on or before| on or after| before| after| on| in)? (.+)$`),
		presenceRe: regexp.MustCompile(`(?i)^(has|no) ` + noun + ` date$`),
	}
}

var (
	dueField = newDateField("due", "due", func(t *tasks.Task) *time.Time {
		return t.DueDate
	})
	scheduledField = newDateField("scheduled", "scheduled", func(t *tasks.Task) *time.Time {
		return t.ScheduledDate
	})
	doneField = newDateField("done", "done", func(t *tasks.Task) *time.Time {
		return t.DoneDate
	})
	createdField = newDateField("created", "created", func(t *tasks.Task) *time.Time {
		return t.CreatedDate
	})
	cancelledField = newDateField("cancelled", "cancelled", func(t *tasks.Task) *time.Time {
		return t.CancelledDate
	})

	startField = func() *dateField {
		f := newDateField("starts", "start", func(t *tasks.Task) *time.Time {
			return t.StartDate
		})
		f.missingMatches = true
		return f
	}()

	happensField = func() *dateField {
		f := newDateField("happens", "happens", func(t *tasks.Task) *time.Time {
			return t.HappensDate()
		})
		f.label = "due, start or scheduled date"
		f.dates = func(t *tasks.Task) []*time.Time {
			return []*time.Time{t.StartDate, t.ScheduledDate, t.DueDate}
		}
		return f
	}()
)

func (f *dateField) Name() string { return f.noun }

func (f *dateField) canFilter(line string) bool {
	return f.presenceRe.MatchString(line) || f.filterRe.MatchString(line)
}

func (f *dateField) filter(line string, env *parseEnv) (*Filter, error) {
	if m := f.presenceRe.FindStringSubmatch(line); m != nil {
		want := strings.EqualFold(m[1], "has")
		return NewFilter(line, taskPredicate(func(t *tasks.Task) bool {
			return f.hasDate(t) == want
		})), nil
	}

	m := f.filterRe.FindStringSubmatch(line)
	op := strings.ToLower(strings.TrimSpace(m[2]))

	r, ok := ParseDateRange(m[3], env.now)
	if !ok {
		return nil, instructionError("do not understand %s date", f.noun)
	}

	test := rangeTest(op, r)
	match := taskPredicate(func(t *tasks.Task) bool {
		dates := f.presentDates(t)
		if len(dates) == 0 {
			return f.missingMatches
		}
		for _, d := range dates {
			if test(*d) {
				return true
			}
		}
		return false
	})

	filter := NewFilter(line, match)
	filter.Explanation = NewExplanation(f.explainRange(op, r))
	return filter, nil
}

func (f *dateField) presentDates(t *tasks.Task) []*time.Time {
	var out []*time.Time
	for _, d := range f.dates(t) {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

func (f *dateField) hasDate(t *tasks.Task) bool {
	return len(f.presentDates(t)) > 0
}

// rangeTest compares a day against the range according to the operator
func rangeTest(op string, r DateRange) func(day time.Time) bool {
	return func(day time.Time) bool {
		day = tasks.StartOfDay(day)

		switch op {
		case "before":
			return day.Before(r.Start)
		case "after":
			return day.After(r.End)
		case "on or before":
			return !day.After(r.End)
		case "on or after":
			return !day.Before(r.Start)
		}
		return r.Contains(day)
	}
}

func (f *dateField) explainRange(op string, r DateRange) string {
	var text string

	switch op {
	case "before":
		text = fmt.Sprintf("%s is before %s", f.label, describeDate(r.Start))
	case "after":
		text = fmt.Sprintf("%s is after %s", f.label, describeDate(r.End))
	case "on or before":
		text = fmt.Sprintf("%s is on or before %s", f.label, describeDate(r.End))
	case "on or after":
		text = fmt.Sprintf("%s is on or after %s", f.label, describeDate(r.Start))
	default:
		if r.IsSingleDay() {
			text = fmt.Sprintf("%s is on %s", f.label, describeDate(r.Start))
		} else {
			text = fmt.Sprintf("%s is between %s and %s inclusive", f.label, describeDate(r.Start), describeDate(r.End))
		}
	}

	if f.missingMatches {
		text += " OR no " + f.label
	}

	return text
}

func (f *dateField) sorter(line string, _ *parseEnv) (*Sorter, bool, error) {
	reverse, ok := matchSortBy(line, f.noun, f.keyword)
	if !ok {
		return nil, false, nil
	}

	return newSorter(line, f.noun, reverse, plainComparator(func(a, b *tasks.Task) int {
		return compareDates(f.sortBy(a), f.sortBy(b))
	})), true, nil
}

func (f *dateField) grouper(line string, _ *parseEnv) (*Grouper, bool, error) {
	reverse, ok := matchGroupBy(line, f.noun, f.keyword)
	if !ok {
		return nil, false, nil
	}

	return newGrouper(line, f.noun, reverse, singleGroup(func(t *tasks.Task, _ *SearchInfo) string {
		d := f.sortBy(t)
		if d == nil {
			return "No " + f.noun + " date"
		}
		return d.Format(tasks.DateLayout) + " " + d.Weekday().String()
	})), true, nil
}
