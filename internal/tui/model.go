package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clokai/internal/app"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the bubbletea model for the chat UI. One turn at a time: input is
// disabled while the pipeline runs, streamed model output is appended to the
// transcript as it arrives.
type Model struct {
	app     *app.Application
	theme   Theme
	input   textarea.Model
	view    viewport.Model
	spin    spinner.Model
	ready   bool
	waiting bool

	transcript []chatLine
	streaming  strings.Builder
	events     chan turnEvent
	width      int
	height     int
}

type chatLine struct {
	role string
	text string
}

type turnEvent struct {
	chunk    string
	done     bool
	response string
	results  []app.ToolResult
}

func New(application *app.Application) *Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about your project... (!read, !find, !run shortcuts work too)"
	ta.Focus()
	ta.CharLimit = 8000
	ta.SetHeight(3)
	ta.Prompt = "▍ "
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		app:   application,
		theme: NewTheme(),
		input: ta,
		spin:  sp,
	}
}

func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputHeight := 5
		if !m.ready {
			m.view = viewport.New(msg.Width, msg.Height-inputHeight-2)
			m.ready = true
		} else {
			m.view.Width = msg.Width
			m.view.Height = msg.Height - inputHeight - 2
		}
		m.input.SetWidth(msg.Width - 4)
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			return m, m.startTurn(text)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case turnEvent:
		if msg.done {
			m.waiting = false
			m.streaming.Reset()
			m.transcript = append(m.transcript, resultLines(msg.results)...)
			m.transcript = append(m.transcript, chatLine{role: "ai", text: msg.response})
			m.refreshTranscript()
			m.input.Focus()
			return m, nil
		}
		m.streaming.WriteString(msg.chunk)
		m.refreshTranscript()
		return m, m.awaitEvent()
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.view, cmd = m.view.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	if !m.ready {
		return "starting..."
	}
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("clokai") + m.theme.Faint.Render("  "+m.app.Config.Model))
	b.WriteString("\n")
	b.WriteString(m.view.View())
	b.WriteString("\n")
	if m.waiting {
		b.WriteString(m.theme.Spinner.Render(m.spin.View()) + m.theme.Faint.Render(" working..."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.theme.Input.Render(m.input.View()))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.Faint.Render("enter: send · esc: quit"))
	return b.String()
}

// startTurn kicks off the pipeline on its own goroutine and begins draining
// its event stream into the UI.
func (m *Model) startTurn(text string) tea.Cmd {
	m.waiting = true
	m.transcript = append(m.transcript, chatLine{role: "you", text: text})
	m.refreshTranscript()
	m.events = make(chan turnEvent, 64)

	events := m.events
	pipeline := m.app.Pipeline
	tracker := m.app.Tracker
	go func() {
		start := time.Now()
		response, results := pipeline.ProcessRequest(context.Background(), text, func(chunk string) {
			events <- turnEvent{chunk: chunk}
		})
		failed := false
		for _, r := range results {
			if !r.Success {
				failed = true
			}
		}
		tracker.RecordInteraction(text, response, time.Since(start), failed)
		events <- turnEvent{done: true, response: response, results: results}
	}()

	return tea.Batch(m.spin.Tick, m.awaitEvent())
}

func (m *Model) awaitEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

func resultLines(results []app.ToolResult) []chatLine {
	var lines []chatLine
	for _, r := range results {
		status := fmt.Sprintf("✓ %s (%s)", r.Call.Name, r.Duration.Round(time.Millisecond))
		role := "tool"
		switch {
		case r.Cached:
			status = fmt.Sprintf("✓ %s (cached)", r.Call.Name)
		case !r.Success:
			status = fmt.Sprintf("✗ %s: %s", r.Call.Name, r.Error)
			role = "toolerr"
		}
		lines = append(lines, chatLine{role: role, text: status})
	}
	return lines
}

func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for _, line := range m.transcript {
		switch line.role {
		case "you":
			b.WriteString(m.theme.RoleYou.Render("you ") + line.text)
		case "ai":
			b.WriteString(m.theme.RoleAI.Render(line.text))
		case "tool":
			b.WriteString(m.theme.Tool.Render("  " + line.text))
		case "toolerr":
			b.WriteString(m.theme.ToolErr.Render("  " + line.text))
		}
		b.WriteString("\n\n")
	}
	if m.waiting && m.streaming.Len() > 0 {
		b.WriteString(m.theme.RoleAI.Render(m.streaming.String()))
		b.WriteString("\n")
	}
	m.view.SetContent(lipgloss.NewStyle().Width(m.view.Width).Render(b.String()))
	m.view.GotoBottom()
}
