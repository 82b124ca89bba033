package events

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"pdf-rag/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "sources",
			event: Sources([]models.SourceRef{{Filename: "a.pdf", PageNumber: 1}}),
			want:  "event: sources\ndata: {\"sources\":[{\"filename\":\"a.pdf\",\"pageNumber\":1}]}\n\n",
		},
		{
			name:  "empty sources",
			event: Sources(nil),
			want:  "event: sources\ndata: {\"sources\":[]}\n\n",
		},
		{
			name:  "delta",
			event: Delta("Hello\nworld"),
			want:  "event: delta\ndata: {\"text\":\"Hello\\nworld\"}\n\n",
		},
		{
			name:  "ping",
			event: Ping(),
			want:  "event: ping\ndata: {}\n\n",
		},
		{
			name:  "error",
			event: Error("boom"),
			want:  "event: error\ndata: {\"error\":\"boom\"}\n\n",
		},
		{
			name:  "done",
			event: Done(),
			want:  "event: done\ndata: {}\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, tt.event))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, Done().Terminal())
	assert.True(t, Error("x").Terminal())
	assert.False(t, Delta("x").Terminal())
	assert.False(t, Ping().Terminal())
	assert.False(t, Sources(nil).Terminal())
}

func TestDecoder_ReadsEncodedStream(t *testing.T) {
	stream := []Event{
		Sources([]models.SourceRef{{Filename: "a.pdf", PageNumber: 2}}),
		Ping(),
		Delta("Beta "),
		Delta("(a.pdf p.2)"),
		Done(),
	}
	var buf bytes.Buffer
	for _, e := range stream {
		require.NoError(t, Encode(&buf, e))
	}

	dec := NewDecoder(&buf)
	var got []Event
	for {
		e, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, e)
	}
	assert.Equal(t, stream, got)
}

func TestDecoder_ToleratesCommentsAndCRLF(t *testing.T) {
	raw := ": keep-alive\r\n\r\nevent: delta\r\ndata: {\"text\":\"hi\"}\r\n\r\nevent: custom\ndata: {}\n\nevent: done\ndata: {}\n\n"
	dec := NewDecoder(strings.NewReader(raw))

	e, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, Delta("hi"), e)

	e, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, Done(), e)

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoder_TruncatedFrame(t *testing.T) {
	dec := NewDecoder(strings.NewReader("event: delta\ndata: {\"text\":\"hi\"}\n"))

	_, err := dec.Next()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecoder_MalformedPayload(t *testing.T) {
	dec := NewDecoder(strings.NewReader("event: delta\ndata: not json\n\n"))

	_, err := dec.Next()
	assert.ErrorIs(t, err, ErrMalformed)
}
