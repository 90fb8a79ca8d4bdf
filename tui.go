package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/elcuervo/otq/internal/tasks"
)

const (
	defaultWindowHeight = 24
	defaultWindowWidth  = 80
	reservedUILines     = 2 // header(1) + help bar(1)
	minVisibleHeight    = 3
)

// reloadedMsg carries the result of rerunning the session
type reloadedMsg struct {
	sections []QuerySection
	err      error
}

// refreshTickMsg fires once file changes have settled. Only the tick with
// the latest seq reloads.
type refreshTickMsg struct {
	seq int
}

type model struct {
	session  *session
	watcher  *Watcher
	sections []QuerySection

	lines     []viewLine
	taskLines []int
	cursor    int

	viewport viewport.Model
	width    int
	height   int

	editingQuery bool
	queryInput   textinput.Model

	explain    bool
	refreshSeq int
	err        error
	quitting   bool
}

func newModel(s *session, sections []QuerySection, watcher *Watcher) model {
	input := textinput.New()
	input.Prompt = "query: "
	input.Placeholder = `not done\ngroup by due`
	input.CharLimit = 2000

	m := model{
		session:    s,
		watcher:    watcher,
		sections:   sections,
		viewport:   viewport.New(defaultWindowWidth, defaultWindowHeight-reservedUILines),
		width:      defaultWindowWidth,
		height:     defaultWindowHeight,
		queryInput: input,
	}
	m.rebuild()

	return m
}

func (m model) Init() tea.Cmd {
	if m.watcher != nil {
		return m.watcher.WatchCmd()
	}
	return nil
}

func (m model) reloadCmd() tea.Cmd {
	s := m.session
	return func() tea.Msg {
		sections, err := s.run()
		return reloadedMsg{sections: sections, err: err}
	}
}

// rebuild re-renders the sections into lines and keeps the cursor on a task
func (m *model) rebuild() {
	opts := m.session.renderOptions(false)
	opts.Explain = m.explain

	m.lines = m.lines[:0]
	m.taskLines = m.taskLines[:0]

	for i, s := range m.sections {
		if i > 0 {
			m.lines = append(m.lines, viewLine{})
		}
		for _, l := range sectionLines(s, opts) {
			if l.task != nil {
				m.taskLines = append(m.taskLines, len(m.lines))
			}
			m.lines = append(m.lines, l)
		}
	}

	m.cursor = min(m.cursor, max(len(m.taskLines)-1, 0))
	m.syncViewport()
}

func (m *model) selectedTask() *tasks.Task {
	if len(m.taskLines) == 0 {
		return nil
	}
	return m.lines[m.taskLines[m.cursor]].task
}

// syncViewport writes the lines with the cursor marker and scrolls so the
// selected task is visible
func (m *model) syncViewport() {
	selected := -1
	if len(m.taskLines) > 0 {
		selected = m.taskLines[m.cursor]
	}

	contents := make([]string, len(m.lines))
	row, selectedRow := 0, 0

	for i, l := range m.lines {
		prefix := "  "
		if l.task != nil && i == selected {
			prefix = cursorStyle.Render("› ")
			selectedRow = row
		}
		contents[i] = prefix + l.content
		row += 1 + strings.Count(l.content, "\n")
	}

	m.viewport.SetContent(strings.Join(contents, "\n"))

	if selected < 0 {
		return
	}
	if selectedRow < m.viewport.YOffset {
		m.viewport.SetYOffset(selectedRow)
	} else if selectedRow >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(selectedRow - m.viewport.Height + 1)
	}
}

func (m *model) moveCursor(delta int) {
	if len(m.taskLines) == 0 {
		return
	}
	m.cursor = max(0, min(m.cursor+delta, len(m.taskLines)-1))
	m.syncViewport()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-reservedUILines, minVisibleHeight)
		m.queryInput.Width = max(msg.Width-len(m.queryInput.Prompt)-1, 10)
		m.syncViewport()
		return m, nil

	case reloadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.sections = msg.sections
			m.rebuild()
		}
		return m, nil

	case editorFinishedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session.vault.Invalidate(m.session.vault.Path(msg.task))
		return m, m.reloadCmd()

	case FileChangeMsg:
		m.session.vault.Invalidate(msg.Path)
		m.refreshSeq++
		seq := m.refreshSeq

		return m, tea.Batch(
			m.watcher.WatchCmd(),
			tea.Tick(refreshDelay, func(time.Time) tea.Msg { return refreshTickMsg{seq: seq} }),
		)

	case refreshTickMsg:
		if msg.seq != m.refreshSeq {
			return m, nil
		}
		return m, m.reloadCmd()

	case tea.KeyMsg:
		if m.editingQuery {
			return m.updateQueryInput(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m model) updateQueryInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+[":
		m.editingQuery = false
		m.queryInput.Blur()
		return m, nil

	case "enter":
		m.editingQuery = false
		m.queryInput.Blur()

		text := strings.TrimSpace(m.queryInput.Value())
		if text == "" {
			return m, nil
		}

		m.session.source = querySource{Text: text}
		m.cursor = 0
		return m, m.reloadCmd()

	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.queryInput, cmd = m.queryInput.Update(msg)
	return m, cmd
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		m.moveCursor(-1)

	case "down", "j":
		m.moveCursor(1)

	case "g":
		m.moveCursor(-len(m.taskLines))

	case "G":
		m.moveCursor(len(m.taskLines))

	case "pgup":
		m.moveCursor(-m.viewport.Height / 2)

	case "pgdown":
		m.moveCursor(m.viewport.Height / 2)

	case "r":
		m.err = nil
		return m, m.reloadCmd()

	case "x":
		m.explain = !m.explain
		m.rebuild()

	case "e", "enter":
		if t := m.selectedTask(); t != nil {
			return m, openInEditor(m.session.vault, t)
		}

	case "/":
		m.editingQuery = true
		if !m.session.source.IsFile {
			m.queryInput.SetValue(m.session.source.Text)
		}
		m.queryInput.CursorEnd()
		return m, m.queryInput.Focus()
	}

	return m, nil
}

func (m model) header() string {
	title := titleStyle.Render(" otq ")
	name := m.session.Name
	if name == "" {
		name = m.session.vault.Root
	}
	title += titleNameStyle.Render(name + " ")

	count := countStyle.Background(barBackground).Render(fmt.Sprintf("%d tasks ", len(m.taskLines)))
	gap := max(m.width-lipgloss.Width(title)-lipgloss.Width(count), 0)

	return title + helpBarStyle.Render(strings.Repeat(" ", gap)) + count
}

func (m model) helpBar() string {
	if m.editingQuery {
		return m.queryInput.View()
	}

	if m.err != nil {
		return dangerStyle.Render("Error: " + m.err.Error())
	}

	keys := [][2]string{
		{"↑/k ↓/j", "move"},
		{"e", "edit"},
		{"/", "query"},
		{"x", "explain"},
		{"r", "reload"},
		{"q", "quit"},
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = helpBarKeyStyle.Render(k[0]) + " " + helpBarDescStyle.Render(k[1])
	}

	return helpBarStyle.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.header(), m.viewport.View(), m.helpBar())
}

// runTUI shows the results full screen until the user quits
func runTUI(s *session, sections []QuerySection, watcher *Watcher) error {
	p := tea.NewProgram(newModel(s, sections, watcher), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
