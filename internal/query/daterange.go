package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/elcuervo/otq/internal/tasks"
)

// DateRange is an inclusive span of calendar days
type DateRange struct {
	Start time.Time
	End   time.Time
}

// SingleDay returns the range covering one day
func SingleDay(day time.Time) DateRange {
	day = tasks.StartOfDay(day)
	return DateRange{Start: day, End: day}
}

// IsSingleDay reports whether the range covers exactly one day
func (r DateRange) IsSingleDay() bool {
	return r.Start.Equal(r.End)
}

// Contains reports whether day falls inside the range
func (r DateRange) Contains(day time.Time) bool {
	day = tasks.StartOfDay(day)
	return !day.Before(r.Start) && !day.After(r.End)
}

var (
	isoDateRe      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	absoluteSpanRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+(\d{4}-\d{2}-\d{2})$`)
	relativeSpanRe = regexp.MustCompile(`(?i)^(last|this|next) (week|month|quarter|year)$`)
	yearRe         = regexp.MustCompile(`^(\d{4})$`)
	quarterRe      = regexp.MustCompile(`(?i)^(\d{4})-Q([1-4])$`)
	monthRe        = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	weekRe         = regexp.MustCompile(`(?i)^(\d{4})-W(\d{2})$`)
)

var naturalDates = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseDateRange interprets a date expression relative to now. Strategies are
// tried in order and the first that matches wins: absolute dates and keywords,
// relative spans, numbered spans, then natural language.
func ParseDateRange(input string, now time.Time) (DateRange, bool) {
	input = strings.TrimSpace(input)
	today := tasks.StartOfDay(now)

	if input == "" {
		return DateRange{}, false
	}

	if r, ok := parseAbsoluteDate(input, today); ok {
		return r, true
	}

	if r, ok := parseRelativeSpan(input, today); ok {
		return r, true
	}

	if r, ok := parseNumberedSpan(input); ok {
		return r, true
	}

	return parseNaturalDate(input, now)
}

func parseAbsoluteDate(input string, today time.Time) (DateRange, bool) {
	switch strings.ToLower(input) {
	case "today":
		return SingleDay(today), true
	case "tomorrow":
		return SingleDay(today.AddDate(0, 0, 1)), true
	case "yesterday":
		return SingleDay(today.AddDate(0, 0, -1)), true
	}

	if isoDateRe.MatchString(input) {
		d, ok := tasks.ParseDate(input)
		if !ok {
			return DateRange{}, false
		}
		return SingleDay(d), true
	}

	if m := absoluteSpanRe.FindStringSubmatch(input); m != nil {
		start, ok1 := tasks.ParseDate(m[1])
		end, ok2 := tasks.ParseDate(m[2])
		if !ok1 || !ok2 {
			return DateRange{}, false
		}
		if end.Before(start) {
			start, end = end, start
		}
		return DateRange{Start: start, End: end}, true
	}

	return DateRange{}, false
}

func parseRelativeSpan(input string, today time.Time) (DateRange, bool) {
	m := relativeSpanRe.FindStringSubmatch(input)
	if m == nil {
		return DateRange{}, false
	}

	offset := map[string]int{"last": -1, "this": 0, "next": 1}[strings.ToLower(m[1])]

	switch strings.ToLower(m[2]) {
	case "week":
		start := startOfISOWeek(today).AddDate(0, 0, 7*offset)
		return DateRange{Start: start, End: start.AddDate(0, 0, 6)}, true
	case "month":
		start := time.Date(today.Year(), today.Month()+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
		return DateRange{Start: start, End: start.AddDate(0, 1, -1)}, true
	case "quarter":
		q := (int(today.Month())-1)/3 + offset
		start := time.Date(today.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
		return DateRange{Start: start, End: start.AddDate(0, 3, -1)}, true
	default:
		start := time.Date(today.Year()+offset, time.January, 1, 0, 0, 0, 0, time.UTC)
		return DateRange{Start: start, End: start.AddDate(1, 0, -1)}, true
	}
}

func parseNumberedSpan(input string) (DateRange, bool) {
	if m := yearRe.FindStringSubmatch(input); m != nil {
		year, _ := strconv.Atoi(m[1])
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return DateRange{Start: start, End: start.AddDate(1, 0, -1)}, true
	}

	if m := quarterRe.FindStringSubmatch(input); m != nil {
		year, _ := strconv.Atoi(m[1])
		q, _ := strconv.Atoi(m[2])
		start := time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return DateRange{Start: start, End: start.AddDate(0, 3, -1)}, true
	}

	if m := monthRe.FindStringSubmatch(input); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return DateRange{}, false
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return DateRange{Start: start, End: start.AddDate(0, 1, -1)}, true
	}

	if m := weekRe.FindStringSubmatch(input); m != nil {
		year, _ := strconv.Atoi(m[1])
		week, _ := strconv.Atoi(m[2])
		if week < 1 || week > 53 {
			return DateRange{}, false
		}
		// ISO week 1 is the week holding January 4th
		jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
		start := startOfISOWeek(jan4).AddDate(0, 0, 7*(week-1))
		return DateRange{Start: start, End: start.AddDate(0, 0, 6)}, true
	}

	return DateRange{}, false
}

func parseNaturalDate(input string, now time.Time) (DateRange, bool) {
	r, err := naturalDates.Parse(input, now)
	if err != nil || r == nil {
		return DateRange{}, false
	}

	if !strings.EqualFold(strings.TrimSpace(r.Text), input) {
		return DateRange{}, false
	}

	return SingleDay(r.Time), true
}

func startOfISOWeek(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return tasks.StartOfDay(day).AddDate(0, 0, -offset)
}

// describeDate renders "2012-01-23 (Monday 23rd January 2012)"
func describeDate(day time.Time) string {
	return fmt.Sprintf("%s (%s %s %s %d)",
		day.Format(tasks.DateLayout),
		day.Weekday(),
		humanize.Ordinal(day.Day()),
		day.Month(),
		day.Year(),
	)
}
