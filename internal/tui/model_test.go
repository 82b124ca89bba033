package tui

import (
	"context"
	"strings"
	"testing"

	"pdf-rag/internal/client"
	"pdf-rag/internal/events"
	"pdf-rag/internal/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedStream struct {
	events []events.Event
	err    error
	block  bool
	asked  []string
}

func (s *scriptedStream) Stream(ctx context.Context, question string, handler func(events.Event) error) error {
	s.asked = append(s.asked, question)
	for _, e := range s.events {
		if err := handler(e); err != nil {
			return err
		}
	}
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.err
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return next.(Model)
}

func submit(t *testing.T, m Model, q string) Model {
	t.Helper()
	m.input.SetValue(q)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	return next.(Model)
}

// drain feeds stream messages back into the model until the stream ends.
func drain(m Model) Model {
	for m.streaming {
		msg := waitFor(m.ch)()
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModel_StreamsAnswer(t *testing.T) {
	stream := &scriptedStream{events: []events.Event{
		events.Sources([]models.SourceRef{{Filename: "a.pdf", PageNumber: 1}}),
		events.Delta("Alpha "),
		events.Delta("(a.pdf p.1)"),
		events.Done(),
	}}
	m := sized(New(stream, "http://localhost:4000"))

	m = submit(t, m, "  What is alpha?  ")
	assert.True(t, m.streaming)
	assert.Empty(t, m.input.Value())

	m = drain(m)

	assert.Equal(t, []string{"What is alpha?"}, stream.asked)
	require.Len(t, m.turns, 1)
	assert.Equal(t, "Alpha (a.pdf p.1)", m.turns[0].answer)
	assert.Equal(t, "Done.", m.status)
	assert.Contains(t, m.renderTranscript(), "Sources: a.pdf p.1")
	assert.Contains(t, m.View(), "PDF RAG chat")
}

func TestModel_ServerErrorEvent(t *testing.T) {
	stream := &scriptedStream{
		events: []events.Event{events.Error(models.NoIndexMessage)},
		err:    &client.StreamError{Message: models.NoIndexMessage},
	}
	m := drain(submit(t, sized(New(stream, "")), "hi"))

	assert.Equal(t, models.NoIndexMessage, m.turns[0].failure)
	assert.Equal(t, "The server reported an error.", m.status)
	assert.Contains(t, m.renderTranscript(), models.NoIndexMessage)
}

func TestModel_ConnectionError(t *testing.T) {
	stream := &scriptedStream{err: &client.ConnectionError{Transport: "post", Err: assert.AnError}}
	m := drain(submit(t, sized(New(stream, "")), "hi"))

	assert.True(t, strings.HasPrefix(m.status, "Error: "))
	assert.NotEmpty(t, m.turns[0].failure)
}

func TestModel_EscCancelsStream(t *testing.T) {
	stream := &scriptedStream{events: []events.Event{events.Delta("partial")}, block: true}
	m := submit(t, sized(New(stream, "")), "hi")

	next, _ := m.Update(waitFor(m.ch)())
	m = next.(Model)
	assert.Equal(t, "partial", m.turns[0].answer)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = drain(next.(Model))

	assert.False(t, m.streaming)
	assert.Equal(t, "Cancelled.", m.status)
}

func TestModel_IgnoresEnterWhileStreaming(t *testing.T) {
	stream := &scriptedStream{block: true}
	m := submit(t, sized(New(stream, "")), "first")

	m.input.SetValue("second")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.Len(t, m.turns, 1)

	m.cancel()
	m = drain(m)
	assert.Equal(t, []string{"first"}, stream.asked)
}

func TestFormatSources(t *testing.T) {
	got := FormatSources([]models.SourceRef{{Filename: "a.pdf", PageNumber: 1}, {Filename: "b.pdf", PageNumber: 3}})
	assert.Equal(t, "a.pdf p.1, b.pdf p.3", got)
}
