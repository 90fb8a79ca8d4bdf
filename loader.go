package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/elcuervo/otq/internal/tasks"
)

const (
	// Minimum time before showing the loading screen
	loadingDelay = 200 * time.Millisecond
)

// ScanProgress represents progress during vault scanning
type ScanProgress struct {
	Phase       string // "scanning" or "parsing"
	CurrentFile string
	FilesFound  int
	FilesParsed int
	TasksFound  int
}

// scanProgressMsg is sent to update loading progress
type scanProgressMsg ScanProgress

// scanCompleteMsg is sent when scanning is complete
type scanCompleteMsg struct{}

// loaderModel handles the loading screen
type loaderModel struct {
	spinner      spinner.Model
	progress     ScanProgress
	windowWidth  int
	windowHeight int
	startTime    time.Time
	showLoader   bool
}

func newLoaderModel() loaderModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = cursorStyle

	return loaderModel{
		spinner:   s,
		startTime: time.Now(),
	}
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tea.WindowSize(),
	)
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if !m.showLoader && time.Since(m.startTime) > loadingDelay {
			m.showLoader = true
		}
		return m, cmd

	case scanProgressMsg:
		m.progress = ScanProgress(msg)
		if !m.showLoader && time.Since(m.startTime) > loadingDelay {
			m.showLoader = true
		}
		return m, nil

	case scanCompleteMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m loaderModel) View() string {
	if !m.showLoader {
		return ""
	}

	var b strings.Builder

	b.WriteString(sectionStyle.Render("otq") + " ")
	b.WriteString(m.spinner.View() + " ")

	switch m.progress.Phase {
	case "scanning":
		b.WriteString("Scanning vault...")
		if m.progress.FilesFound > 0 {
			b.WriteString(countStyle.Render(fmt.Sprintf(" %d files", m.progress.FilesFound)))
		}
	case "parsing":
		b.WriteString("Parsing files...")
		if m.progress.FilesParsed > 0 && m.progress.FilesFound > 0 {
			pct := float64(m.progress.FilesParsed) / float64(m.progress.FilesFound) * 100
			b.WriteString(countStyle.Render(fmt.Sprintf(" %d/%d", m.progress.FilesParsed, m.progress.FilesFound)))
			b.WriteString(fileStyle.Render(fmt.Sprintf(" (%.0f%%)", pct)))
		}
		if m.progress.TasksFound > 0 {
			b.WriteString(fileStyle.Render(fmt.Sprintf(" • %d tasks", m.progress.TasksFound)))
		}
	default:
		b.WriteString("Loading...")
	}

	if m.progress.CurrentFile != "" {
		b.WriteString("\n" + fileStyle.Render(truncateLeft(m.progress.CurrentFile, max(m.windowWidth-40, 20))))
	}

	content := b.String()
	return lipgloss.Place(m.windowWidth, m.windowHeight, lipgloss.Center, lipgloss.Center, content)
}

// RunWithLoader loads the vault, showing a progress screen only when loading
// takes longer than loadingDelay
func RunWithLoader(vault *Vault) ([]*tasks.Task, error) {
	var (
		all     []*tasks.Task
		loadErr error
	)

	done := make(chan struct{})
	progress := make(chan ScanProgress, 10)

	go func() {
		defer close(done)
		defer close(progress)

		all, loadErr = vault.Load(func(p ScanProgress) {
			select {
			case progress <- p:
			default:
				// Don't block if channel is full
			}
		})
	}()

	// Wait a bit to see if loading finishes quickly
	select {
	case <-done:
		return all, loadErr
	case <-time.After(loadingDelay):
	}

	m := newLoaderModel()
	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		for prog := range progress {
			p.Send(scanProgressMsg(prog))
		}
	}()

	go func() {
		<-done
		p.Send(scanCompleteMsg{})
	}()

	if _, err := p.Run(); err != nil {
		<-done
		return all, err
	}

	<-done
	return all, loadErr
}

// truncateLeft keeps the end of a path, which is the part that changes
func truncateLeft(text string, width int) string {
	if len(text) <= width {
		return text
	}
	return "..." + text[len(text)-width+3:]
}
