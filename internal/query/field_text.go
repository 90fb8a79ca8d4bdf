package query

import (
	"regexp"
	"strings"

	"github.com/elcuervo/otq/internal/tasks"
)

// textField is a string property filtered with includes or regex operators
type textField struct {
	name     string
	value    func(t *tasks.Task) string
	filterRe *regexp.Regexp

	// sortable and group are optional; group is nil for fields that do not group
	sortable bool
	group    func(t *tasks.Task) string
}

func newTextField(name string, value func(t *tasks.Task) string) *textField {
	return &textField{
		name:     name,
		value:    value,
		filterRe: regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(name) + ` (includes|does not include|regex matches|regex does not match) (.*)$`),
	}
}

func (f *textField) withSort() *textField {
	f.sortable = true
	return f
}

func (f *textField) withGroup(group func(t *tasks.Task) string) *textField {
	f.group = group
	return f
}

var (
	descriptionField = newTextField("description", func(t *tasks.Task) string {
		return t.Description
	}).withSort()

	pathField = newTextField("path", func(t *tasks.Task) string {
		return t.Path
	}).withSort().withGroup(func(t *tasks.Task) string {
		return t.PathWithoutExtension()
	})

	rootField = newTextField("root", func(t *tasks.Task) string {
		return t.Root()
	}).withGroup(func(t *tasks.Task) string {
		return t.Root()
	})

	folderField = newTextField("folder", func(t *tasks.Task) string {
		return t.Folder()
	}).withGroup(func(t *tasks.Task) string {
		return t.Folder()
	})

	filenameField = newTextField("filename", func(t *tasks.Task) string {
		return t.Filename()
	}).withSort().withGroup(func(t *tasks.Task) string {
		if t.Path == "" {
			return "Unknown Location"
		}
		return "[[" + t.FilenameWithoutExtension() + "]]"
	})

	headingField = newTextField("heading", func(t *tasks.Task) string {
		return t.Heading
	}).withSort().withGroup(func(t *tasks.Task) string {
		if t.Heading == "" {
			return "(No heading)"
		}
		return t.Heading
	})

	statusNameField = newTextField("status.name", func(t *tasks.Task) string {
		return t.Status.Name
	}).withSort().withGroup(func(t *tasks.Task) string {
		return t.Status.Name
	})

	recurrenceField = newTextField("recurrence", func(t *tasks.Task) string {
		if t.Recurrence == nil {
			return ""
		}
		return t.Recurrence.Rule
	}).withGroup(func(t *tasks.Task) string {
		if t.Recurrence == nil {
			return "None"
		}
		return t.Recurrence.Rule
	})

	idField = newTextField("id", func(t *tasks.Task) string {
		return t.ID
	}).withSort().withGroup(func(t *tasks.Task) string {
		if t.ID == "" {
			return "No id"
		}
		return t.ID
	})
)

func (f *textField) Name() string { return f.name }

func (f *textField) canFilter(line string) bool {
	return f.filterRe.MatchString(line)
}

func (f *textField) filter(line string, _ *parseEnv) (*Filter, error) {
	m := f.filterRe.FindStringSubmatch(line)
	if m == nil {
		return nil, ErrUnknownInstruction
	}

	matcher, err := newTextMatcher(line, strings.ToLower(m[1]), m[2])
	if err != nil {
		return nil, err
	}

	match := taskPredicate(func(t *tasks.Task) bool {
		return matcher.Matches(f.value(t))
	})

	op := strings.ToLower(m[1])
	if op == "does not include" || op == "regex does not match" {
		match = negate(match)
	}

	filter := NewFilter(line, match)
	if expl := matcher.Explain(f.name); expl != nil {
		filter.Explanation = expl
	}

	return filter, nil
}

// newTextMatcher picks substring or regex matching from the operator
func newTextMatcher(line, op, value string) (TextMatcher, error) {
	if strings.HasPrefix(op, "regex") {
		return newRegexMatcher(line, value)
	}
	return substringMatcher{needle: value}, nil
}

func (f *textField) sorter(line string, _ *parseEnv) (*Sorter, bool, error) {
	if !f.sortable {
		return nil, false, nil
	}

	reverse, ok := matchSortBy(line, f.name)
	if !ok {
		return nil, false, nil
	}

	return newSorter(line, f.name, reverse, plainComparator(func(a, b *tasks.Task) int {
		return compareText(strings.ToLower(f.value(a)), strings.ToLower(f.value(b)))
	})), true, nil
}

func (f *textField) grouper(line string, _ *parseEnv) (*Grouper, bool, error) {
	if f.group == nil {
		return nil, false, nil
	}

	reverse, ok := matchGroupBy(line, f.name)
	if !ok {
		return nil, false, nil
	}

	return newGrouper(line, f.name, reverse, singleGroup(func(t *tasks.Task, _ *SearchInfo) string {
		return f.group(t)
	})), true, nil
}
