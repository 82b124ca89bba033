// Package tui is a terminal chat client for a running server.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pdf-rag/internal/client"
	"pdf-rag/internal/events"
	"pdf-rag/internal/models"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StreamPort is the TUI-facing subset of the client.
type StreamPort interface {
	Stream(ctx context.Context, question string, handler func(events.Event) error) error
}

type turn struct {
	question string
	answer   string
	sources  []models.SourceRef
	failure  string
}

type eventMsg struct{ event events.Event }

type streamDoneMsg struct{ err error }

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	stream   StreamPort
	target   string
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	turns     []turn
	status    string
	streaming bool
	cancel    context.CancelFunc
	ch        chan tea.Msg
	ready     bool
}

// New creates a chat model; target is shown in the header.
func New(stream StreamPort, target string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your PDFs and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		stream:   stream,
		target:   target,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Ready. Esc cancels an answer, Ctrl+C quits.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		// header, status and a spacer
		vh := msg.Height - 3 - ih - 1 - bh
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, vh)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case tea.KeyEsc:
			if m.streaming && m.cancel != nil {
				m.cancel()
				m.status = "Cancelling..."
			}
			return m, nil
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.streaming {
				return m, nil
			}
			m.input.Reset()
			return m.ask(q)
		}

	case eventMsg:
		m.apply(msg.event)
		m.refresh()
		return m, waitFor(m.ch)

	case streamDoneMsg:
		m.finish(msg.err)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(q string) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan tea.Msg, 64)

	m.turns = append(m.turns, turn{question: q})
	m.streaming = true
	m.cancel = cancel
	m.ch = ch
	m.status = "Thinking..."
	m.refresh()

	go func() {
		err := m.stream.Stream(ctx, q, func(e events.Event) error {
			select {
			case ch <- eventMsg{event: e}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		ch <- streamDoneMsg{err: err}
	}()

	return m, tea.Batch(waitFor(ch), m.spinner.Tick)
}

func waitFor(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if ch == nil {
			return nil
		}
		return <-ch
	}
}

func (m *Model) apply(e events.Event) {
	if len(m.turns) == 0 {
		return
	}
	cur := &m.turns[len(m.turns)-1]
	switch e.Kind {
	case events.KindSources:
		cur.sources = e.Sources
	case events.KindDelta:
		cur.answer += e.Text
		m.status = "Answering..."
	case events.KindError:
		cur.failure = e.Error
	}
}

func (m *Model) finish(err error) {
	m.streaming = false
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	var streamErr *client.StreamError
	switch {
	case err == nil:
		m.status = "Done."
	case errors.Is(err, context.Canceled):
		m.status = "Cancelled."
	case errors.As(err, &streamErr):
		m.status = "The server reported an error."
	default:
		m.status = "Error: " + err.Error()
		if len(m.turns) > 0 && m.turns[len(m.turns)-1].failure == "" {
			m.turns[len(m.turns)-1].failure = err.Error()
		}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("PDF RAG chat") + " " + mutedStyle.Render(m.target)
	status := statusStyle.Render(m.status)
	if m.streaming {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + transcriptStyle.Render(m.viewport.View()) + "\n" + inputStyle.Render(m.input.View()) + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return mutedStyle.Render("No questions yet.")
	}
	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("You: " + t.question))
		b.WriteString("\n")
		b.WriteString(t.answer)
		if t.failure != "" {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render("Error: " + t.failure))
		}
		if len(t.sources) > 0 {
			b.WriteString("\n")
			b.WriteString(mutedStyle.Render("Sources: " + FormatSources(t.sources)))
		}
	}
	return b.String()
}

// FormatSources renders citations as "a.pdf p.1, b.pdf p.3".
func FormatSources(sources []models.SourceRef) string {
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = fmt.Sprintf("%s p.%d", s.Filename, s.PageNumber)
	}
	return strings.Join(parts, ", ")
}

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle     = lipgloss.NewStyle().Bold(true)
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
