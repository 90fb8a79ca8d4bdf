package query

import (
	"regexp"
	"strings"
	"time"
)

// parseEnv carries what fields need while compiling one instruction
type parseEnv struct {
	now       time.Time
	evaluator Evaluator
	path      string
}

// Field is one property of the query language. Fields opt into filtering,
// sorting and grouping by implementing the matching capability.
type Field interface {
	Name() string
}

type filterField interface {
	Field
	canFilter(line string) bool
	filter(line string, env *parseEnv) (*Filter, error)
}

type sortField interface {
	Field
	// sorter returns ok=false when the line is not a sort instruction for this field
	sorter(line string, env *parseEnv) (s *Sorter, ok bool, err error)
}

type groupField interface {
	Field
	grouper(line string, env *parseEnv) (g *Grouper, ok bool, err error)
}

// fields is the ordered, process-wide registry. The first field that accepts a
// line wins, so specific fields come before general ones (status.name before status).
var fields []Field

func init() {
	fields = []Field{
		statusNameField,
		statusTypeField{},
		statusField{},
		recurringField{},
		priorityField{},
		happensField,
		startField,
		scheduledField,
		dueField,
		doneField,
		createdField,
		cancelledField,
		descriptionField,
		pathField,
		rootField,
		folderField,
		filenameField,
		headingField,
		tagsField{},
		idField,
		dependencyField{},
		recurrenceField,
		excludeSubItemsField{},
		urgencyField{},
		backlinkField{},
		functionField{},
		booleanField{},
	}
}

// Fields returns the registry in matching order
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

func parseFilter(line string, env *parseEnv) (*Filter, error) {
	for _, f := range fields {
		ff, ok := f.(filterField)
		if !ok || !ff.canFilter(line) {
			continue
		}
		return ff.filter(line, env)
	}
	return nil, ErrUnknownInstruction
}

func parseSorter(line string, env *parseEnv) (*Sorter, error) {
	for _, f := range fields {
		sf, ok := f.(sortField)
		if !ok {
			continue
		}
		s, ok, err := sf.sorter(line, env)
		if err != nil {
			return nil, err
		}
		if ok {
			return s, nil
		}
	}
	return nil, ErrUnknownInstruction
}

func parseGrouper(line string, env *parseEnv) (*Grouper, error) {
	for _, f := range fields {
		gf, ok := f.(groupField)
		if !ok {
			continue
		}
		g, ok, err := gf.grouper(line, env)
		if err != nil {
			return nil, err
		}
		if ok {
			return g, nil
		}
	}
	return nil, ErrUnknownInstruction
}

var (
	sortByRe  = regexp.MustCompile(`(?i)^sort by ([a-z.]+)( reverse)?$`)
	groupByRe = regexp.MustCompile(`(?i)^group by ([a-z.]+)( reverse)?$`)
)

// matchSortBy recognizes "sort by <name>[ reverse]" for any of the names
func matchSortBy(line string, names ...string) (reverse, ok bool) {
	return matchKeywordLine(sortByRe, line, names)
}

// matchGroupBy recognizes "group by <name>[ reverse]" for any of the names
func matchGroupBy(line string, names ...string) (reverse, ok bool) {
	return matchKeywordLine(groupByRe, line, names)
}

func matchKeywordLine(re *regexp.Regexp, line string, names []string) (bool, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return false, false
	}

	for _, name := range names {
		if strings.EqualFold(m[1], name) {
			return m[2] != "", true
		}
	}

	return false, false
}

// newSorter builds a sorter for a property that cannot fail to compare
func newSorter(line, property string, reverse bool, fn Comparator) *Sorter {
	return &Sorter{Instruction: line, Property: property, Compare: fn, Reverse: reverse}
}

// newGrouper builds a grouper for a property
func newGrouper(line, property string, reverse bool, fn GroupFunc) *Grouper {
	return &Grouper{Instruction: line, Property: property, Group: fn, Reverse: reverse}
}
