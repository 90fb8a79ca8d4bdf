package query

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/elcuervo/otq/internal/tasks"
)

var limitRe = regexp.MustCompile(`(?i)^limit (groups )?(to )?(\d+)( tasks?)?$`)

// Option configures a Query
type Option func(q *Query)

// WithFilePath sets the path of the note the query lives in. Placeholders and
// query.file.* need it.
func WithFilePath(path string) Option {
	return func(q *Query) {
		q.filePath = path
		q.hasFilePath = true
	}
}

func WithSettings(settings Settings) Option {
	return func(q *Query) {
		q.settings = settings
	}
}

// WithClock fixes "today" for relative dates and urgency
func WithClock(now func() time.Time) Option {
	return func(q *Query) {
		q.now = now
	}
}

func WithEvaluator(evaluator Evaluator) Option {
	return func(q *Query) {
		q.evaluator = evaluator
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(q *Query) {
		q.log = log
	}
}

// explainSection is a titled part of a combined query's explanation
type explainSection struct {
	title string
	query *Query
}

// Query is a compiled query. It is immutable once built and safe to apply
// from several goroutines.
type Query struct {
	source      string
	opts        []Option
	filePath    string
	hasFilePath bool
	settings    Settings
	now         func() time.Time
	evaluator   Evaluator
	log         zerolog.Logger

	filters           []*Filter
	sorting           []*Sorter
	grouping          []*Grouper
	layout            *Layout
	limit             *int
	taskGroupLimit    *int
	ignoreGlobalQuery bool
	explain           bool

	sections []explainSection
	err      error
}

// New parses source into a Query. Parse failures do not return an error; they
// are recorded on the query and reported by Error and Err.
func New(source string, opts ...Option) *Query {
	q := &Query{
		source:    source,
		opts:      opts,
		now:       time.Now,
		evaluator: ExprEvaluator{},
		log:       zerolog.Nop(),
		layout:    NewLayout(),
	}

	for _, opt := range opts {
		opt(q)
	}

	q.parse()

	return q
}

// ForBlock builds the query of one code block, prefixed with the global query
// from the settings unless the block says "ignore global query"
func ForBlock(source string, opts ...Option) *Query {
	block := New(source, opts...)
	if !block.settings.HasGlobalQuery() || block.ignoreGlobalQuery {
		return block
	}

	global := New(block.settings.GlobalQuery, opts...)
	combined := global.Append(block)
	combined.sections = []explainSection{
		{title: "Explanation of the global query:", query: global},
		{title: "Explanation of this Tasks code block query:", query: block},
	}

	return combined
}

// Append returns the query made of this source followed by other's. When other
// ignores the global query, this source is left out.
func (q *Query) Append(other *Query) *Query {
	if other.ignoreGlobalQuery {
		return New(other.source, q.opts...)
	}
	return New(q.source+"\n"+other.source, q.opts...)
}

func (q *Query) parse() {
	env := &parseEnv{
		now:       q.now(),
		evaluator: q.evaluator,
		path:      q.filePath,
	}

	for _, stmt := range splitStatements(q.source) {
		line := stmt.Instruction
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		expanded, err := expandPlaceholders(line, q.filePath, q.hasFilePath)
		if err == nil {
			err = q.parseInstruction(expanded, env)
		}

		if err != nil {
			q.err = &ParseError{Line: line, Err: err}
			q.log.Debug().Err(err).Str("line", line).Msg("query parse failed")
			return
		}
	}
}

func (q *Query) parseInstruction(line string, env *parseEnv) error {
	lower := strings.ToLower(line)

	switch {
	case lower == "explain":
		q.explain = true
		return nil
	case lower == "ignore global query":
		q.ignoreGlobalQuery = true
		return nil
	}

	if ok, err := q.layout.apply(line); ok {
		return err
	}

	if strings.HasPrefix(lower, "limit") {
		return q.parseLimit(line)
	}

	if strings.HasPrefix(lower, "sort by ") {
		s, err := parseSorter(line, env)
		if err != nil {
			return err
		}
		q.sorting = append(q.sorting, s)
		return nil
	}

	if strings.HasPrefix(lower, "group by ") {
		g, err := parseGrouper(line, env)
		if err != nil {
			return err
		}
		q.grouping = append(q.grouping, g)
		return nil
	}

	f, err := parseFilter(line, env)
	if err != nil {
		return err
	}
	q.filters = append(q.filters, f)
	return nil
}

func (q *Query) parseLimit(line string) error {
	m := limitRe.FindStringSubmatch(line)
	if m == nil {
		return instructionError("do not understand query limit")
	}

	n, err := strconv.Atoi(m[3])
	if err != nil {
		return instructionError("do not understand query limit")
	}

	if m[1] != "" {
		q.taskGroupLimit = &n
	} else {
		q.limit = &n
	}

	return nil
}

// Source returns the query text as given
func (q *Query) Source() string { return q.source }

func (q *Query) FilePath() string { return q.filePath }

func (q *Query) Settings() Settings { return q.settings }

func (q *Query) Filters() []*Filter { return q.filters }

func (q *Query) Sorting() []*Sorter { return q.sorting }

func (q *Query) Grouping() []*Grouper { return q.grouping }

func (q *Query) Layout() *Layout { return q.layout }

// Limit returns the maximum number of tasks, if one was set
func (q *Query) Limit() (int, bool) {
	if q.limit == nil {
		return 0, false
	}
	return *q.limit, true
}

// TaskGroupLimit returns the maximum number of tasks per group, if one was set
func (q *Query) TaskGroupLimit() (int, bool) {
	if q.taskGroupLimit == nil {
		return 0, false
	}
	return *q.taskGroupLimit, true
}

func (q *Query) IgnoreGlobalQuery() bool { return q.ignoreGlobalQuery }

// HasExplain reports whether the query asked for its explanation to be shown
func (q *Query) HasExplain() bool { return q.explain }

// Error returns the parse error text, or "" for a valid query
func (q *Query) Error() string {
	if q.err == nil {
		return ""
	}
	return q.err.Error()
}

// Err returns the parse error; it is a *ParseError when set
func (q *Query) Err() error { return q.err }

// AddFilter appends an already compiled filter
func (q *Query) AddFilter(f *Filter) {
	q.filters = append(q.filters, f)
}

// ExplainQuery describes in plain text what the query will do
func (q *Query) ExplainQuery() string {
	if q.err != nil {
		return "Query has an error:\n" + q.err.Error() + "\n"
	}

	var parts []string

	if q.settings.HasGlobalFilter() {
		parts = append(parts, q.settings.explainGlobalFilter())
	}

	if len(q.sections) == 0 {
		parts = append(parts, q.explainOwn()...)
		return joinExplanations(parts)
	}

	for _, section := range q.sections {
		parts = append(parts, section.title+"\n")
		parts = append(parts, section.query.explainOwn()...)
	}

	return joinExplanations(parts)
}

// joinExplanations puts a blank line between parts. The last part keeps its
// own ending.
func joinExplanations(parts []string) string {
	var b strings.Builder
	for i, part := range parts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(part)
		if i < len(parts)-1 && !strings.HasSuffix(part, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (q *Query) explainOwn() []string {
	var parts []string

	if len(q.filters) == 0 {
		parts = append(parts, "No filters supplied. All tasks will match the query.")
	} else {
		lines := make([]string, len(q.filters))
		for i, f := range q.filters {
			lines[i] = f.ExplainIndented("")
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	if q.limit != nil {
		parts = append(parts, explainLimit(*q.limit))
	}

	if q.taskGroupLimit != nil {
		parts = append(parts, fmt.Sprintf("At most %d %s per group (if any \"group by\" options are supplied).\n",
			*q.taskGroupLimit, pluralTasks(*q.taskGroupLimit)))
	}

	return parts
}

func explainLimit(n int) string {
	return fmt.Sprintf("At most %d %s.\n", n, pluralTasks(n))
}

func pluralTasks(n int) string {
	if n == 1 {
		return "task"
	}
	return "tasks"
}

// ApplyToTasks filters, sorts, limits and groups the tasks. The input list is
// not modified. A custom function that fails turns the whole result into an
// error result.
func (q *Query) ApplyToTasks(all []*tasks.Task) *QueryResult {
	if q.err != nil {
		return errorResult(q.Error(), q.layout)
	}

	info := &SearchInfo{
		AllTasks:  all,
		QueryPath: q.filePath,
		Now:       q.now(),
	}

	result, err := q.search(all, info)
	if err != nil {
		var evalErr *EvaluationError
		if !errors.As(err, &evalErr) {
			evalErr = &EvaluationError{Err: err}
		}

		q.log.Warn().Err(err).Msg("search failed")
		return errorResult(evalErr.Error(), q.layout)
	}

	if q.explain {
		result.Explanation = q.ExplainQuery()
	}

	q.log.Debug().
		Int("matched", result.TotalTasksCountBeforeLimit).
		Int("shown", result.TotalTasksCount()).
		Int("groups", len(result.Groups())).
		Msg("query applied")

	return result
}

func (q *Query) search(all []*tasks.Task, info *SearchInfo) (*QueryResult, error) {
	var matched []*tasks.Task

	for _, t := range all {
		ok, err := q.matches(t, info)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, t)
		}
	}

	sorted, err := sortTasks(matched, q.sorting, info)
	if err != nil {
		return nil, err
	}

	if q.limit != nil && *q.limit < len(sorted) {
		sorted = sorted[:*q.limit]
	}

	groups, err := groupTasks(sorted, q.grouping, info)
	if err != nil {
		return nil, err
	}

	if q.taskGroupLimit != nil && len(q.grouping) > 0 {
		for _, g := range groups {
			if *q.taskGroupLimit < len(g.Tasks) {
				g.Tasks = g.Tasks[:*q.taskGroupLimit]
			}
		}
	}

	return &QueryResult{
		TaskGroups:                 &TaskGroups{Groups: groups},
		TotalTasksCountBeforeLimit: len(matched),
		Layout:                     q.layout,
	}, nil
}

func (q *Query) matches(t *tasks.Task, info *SearchInfo) (bool, error) {
	for _, f := range q.filters {
		ok, err := f.Match(t, info)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
