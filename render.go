package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/savioxavier/termlink"
	"gopkg.in/yaml.v3"

	"github.com/elcuervo/otq/internal/query"
	"github.com/elcuervo/otq/internal/tasks"
)

const defaultTheme = "dracula"

var glamourRenderer *glamour.TermRenderer

func init() {
	initRenderer(defaultTheme)
}

func initRenderer(theme string) {
	if theme == "" {
		theme = defaultTheme
	}
	glamourRenderer, _ = glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme),
		glamour.WithWordWrap(0),
	)
}

// renderMarkdown renders one markdown line with Glamour, kept on a single line
func renderMarkdown(line string) string {
	if glamourRenderer == nil {
		return line
	}

	rendered, err := glamourRenderer.Render(line)
	if err != nil {
		return line
	}

	return strings.TrimSpace(rendered)
}

// renderOptions controls terminal output. Plain output has no colors, no
// markdown rendering and no hyperlinks, for pipes and tests.
type renderOptions struct {
	VaultPath string
	Plain     bool
	Now       time.Time
	// Explain shows every query's explanation, asked for or not
	Explain bool
}

type dateMarker struct {
	component string
	sign      string
	date      func(t *tasks.Task) *time.Time
}

var dateMarkers = []dateMarker{
	{query.ComponentCreatedDate, "➕", func(t *tasks.Task) *time.Time { return t.CreatedDate }},
	{query.ComponentStartDate, "🛫", func(t *tasks.Task) *time.Time { return t.StartDate }},
	{query.ComponentScheduledDate, "⏳", func(t *tasks.Task) *time.Time { return t.ScheduledDate }},
	{query.ComponentDueDate, "📅", func(t *tasks.Task) *time.Time { return t.DueDate }},
	{query.ComponentCancelledDate, "❌", func(t *tasks.Task) *time.Time { return t.CancelledDate }},
	{query.ComponentDoneDate, "✅", func(t *tasks.Task) *time.Time { return t.DoneDate }},
}

// taskMarkdown rebuilds the task line with only the components the layout shows
func taskMarkdown(t *tasks.Task, layout *query.Layout, now time.Time) string {
	description := t.Description
	if layout.IsHidden(query.ComponentTags) {
		var words []string
		for _, w := range strings.Fields(description) {
			if !strings.HasPrefix(w, "#") || len(w) == 1 {
				words = append(words, w)
			}
		}
		description = strings.Join(words, " ")
	}

	parts := []string{description}

	if sign := t.Priority.Sign(); sign != "" && !layout.IsHidden(query.ComponentPriority) {
		parts = append(parts, sign)
	}

	if t.Recurrence != nil && !layout.IsHidden(query.ComponentRecurrenceRule) {
		parts = append(parts, marker("🔁", t.Recurrence.Rule, layout.ShortMode))
	}

	for _, dm := range dateMarkers {
		d := dm.date(t)
		if d == nil || layout.IsHidden(dm.component) {
			continue
		}
		parts = append(parts, marker(dm.sign, d.Format(tasks.DateLayout), layout.ShortMode))
	}

	if t.ID != "" && !layout.IsHidden(query.ComponentID) {
		parts = append(parts, marker("🆔", t.ID, layout.ShortMode))
	}

	if len(t.DependsOn) > 0 && !layout.IsHidden(query.ComponentDependsOn) {
		parts = append(parts, marker("⛔", strings.Join(t.DependsOn, ","), layout.ShortMode))
	}

	if !layout.IsHidden(query.ComponentUrgency) {
		parts = append(parts, fmt.Sprintf("(urgency %.2f)", t.Urgency(now)))
	}

	return fmt.Sprintf("- [%s] %s", t.Status.Symbol, strings.Join(parts, " "))
}

func marker(sign, value string, short bool) string {
	if short {
		return sign
	}
	return sign + " " + value
}

// backlink names the note and heading a task came from, as a terminal
// hyperlink when the terminal supports them
func backlink(t *tasks.Task, opts renderOptions) string {
	name := t.FilenameWithoutExtension()
	if t.Heading != "" && t.Heading != name {
		name += " > " + t.Heading
	}

	if opts.Plain || opts.VaultPath == "" || !termlink.SupportsHyperlinks() {
		return "(" + name + ")"
	}

	url := "file://" + filepath.Join(opts.VaultPath, filepath.FromSlash(t.Path))
	return "(" + termlink.Link(name, url) + ")"
}

func renderTaskLine(t *tasks.Task, layout *query.Layout, opts renderOptions) string {
	line := taskMarkdown(t, layout, opts.Now)

	if !opts.Plain {
		if t.IsDone() {
			line = doneStyle.Render(line)
		} else {
			line = renderMarkdown(line)
		}
	}

	if t.Path != "" && !layout.IsHidden(query.ComponentBacklink) {
		link := backlink(t, opts)
		if !opts.Plain {
			link = fileStyle.Render(link)
		}
		line += " " + link
	}

	return line
}

func style(opts renderOptions, render func(...string) string, text string) string {
	if opts.Plain {
		return text
	}
	return render(text)
}

// viewLine is one rendered line; task is set for task lines
type viewLine struct {
	content string
	task    *tasks.Task
}

// sectionLines renders one query block: explanation, errors, grouped tasks
// and the task count
func sectionLines(s QuerySection, opts renderOptions) []viewLine {
	var lines []viewLine
	add := func(content string) {
		lines = append(lines, viewLine{content: content})
	}

	if s.Name != "" {
		add(style(opts, sectionStyle.Render, "## "+s.Name))
		add("")
	}

	explanation := s.Result.Explanation
	if explanation == "" && opts.Explain && s.Query != nil {
		explanation = s.Query.ExplainQuery()
	}
	if explanation != "" {
		add(style(opts, explainStyle.Render, explanation))
	}

	if s.Result.HasError() {
		add(style(opts, dangerStyle.Render, "Tasks query: "+s.Result.SearchErrorMessage))
		return lines
	}

	layout := s.Result.Layout
	if layout == nil {
		layout = query.NewLayout()
	}

	for _, g := range s.Result.Groups() {
		for _, h := range g.Headings {
			heading := strings.Repeat("#", min(h.Level+3, 6)) + " " + h.DisplayName
			add(style(opts, groupStyle.Render, heading))
		}

		for _, t := range g.Tasks {
			lines = append(lines, viewLine{content: renderTaskLine(t, layout, opts), task: t})
		}
	}

	if !layout.IsHidden(query.ComponentTaskCount) {
		add(style(opts, countStyle.Render, taskCount(s.Result)))
	}

	return lines
}

func renderSection(s QuerySection, opts renderOptions) string {
	lines := sectionLines(s, opts)
	contents := make([]string, len(lines))
	for i, l := range lines {
		contents[i] = l.content
	}
	return strings.Join(contents, "\n") + "\n"
}

func taskCount(r *query.QueryResult) string {
	n := r.TotalTasksCount()
	noun := "tasks"
	if n == 1 {
		noun = "task"
	}

	if r.TotalTasksCountBeforeLimit > n {
		return fmt.Sprintf("%d of %d %s", n, r.TotalTasksCountBeforeLimit, noun)
	}
	return fmt.Sprintf("%d %s", n, noun)
}

func renderSections(sections []QuerySection, opts renderOptions) string {
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = renderSection(s, opts)
	}
	return strings.Join(parts, "\n")
}

// sectionOutput is the machine-readable form of a section
type sectionOutput struct {
	Name                       string             `json:"name,omitempty" yaml:"name,omitempty"`
	Error                      string             `json:"error,omitempty" yaml:"error,omitempty"`
	Explanation                string             `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	TotalTasksCount            int                `json:"total_tasks_count" yaml:"total_tasks_count"`
	TotalTasksCountBeforeLimit int                `json:"total_tasks_count_before_limit" yaml:"total_tasks_count_before_limit"`
	Groups                     []*query.TaskGroup `json:"groups" yaml:"groups"`
}

func sectionOutputs(sections []QuerySection) []sectionOutput {
	out := make([]sectionOutput, len(sections))
	for i, s := range sections {
		out[i] = sectionOutput{
			Name:                       s.Name,
			Error:                      s.Result.SearchErrorMessage,
			Explanation:                s.Result.Explanation,
			TotalTasksCount:            s.Result.TotalTasksCount(),
			TotalTasksCountBeforeLimit: s.Result.TotalTasksCountBeforeLimit,
			Groups:                     s.Result.Groups(),
		}
	}
	return out
}

func writeJSON(w io.Writer, sections []QuerySection) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sectionOutputs(sections))
}

func writeYAML(w io.Writer, sections []QuerySection) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(sectionOutputs(sections)); err != nil {
		return err
	}
	return enc.Close()
}
