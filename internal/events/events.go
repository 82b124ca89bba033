// Package events defines the typed answer stream and its server-sent events
// wire form. Both chat transports carry the same encoding.
package events

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"pdf-rag/internal/models"
)

type Kind string

const (
	KindSources Kind = "sources"
	KindDelta   Kind = "delta"
	KindPing    Kind = "ping"
	KindError   Kind = "error"
	KindDone    Kind = "done"
)

// ContentType is the media type of an encoded stream.
const ContentType = "text/event-stream"

// ErrMalformed is returned by the decoder for frames it cannot interpret.
var ErrMalformed = errors.New("malformed event")

// Event is one item of an answer stream. Only the fields relevant to Kind
// are set.
type Event struct {
	Kind    Kind
	Sources []models.SourceRef
	Text    string
	Error   string
}

func Sources(refs []models.SourceRef) Event {
	if refs == nil {
		refs = []models.SourceRef{}
	}
	return Event{Kind: KindSources, Sources: refs}
}

func Delta(text string) Event { return Event{Kind: KindDelta, Text: text} }

func Ping() Event { return Event{Kind: KindPing} }

func Error(msg string) Event { return Event{Kind: KindError, Error: msg} }

func Done() Event { return Event{Kind: KindDone} }

// Terminal reports whether no further events may follow e.
func (e Event) Terminal() bool {
	return e.Kind == KindError || e.Kind == KindDone
}

type sourcesPayload struct {
	Sources []models.SourceRef `json:"sources"`
}

type deltaPayload struct {
	Text string `json:"text"`
}

type errorPayload struct {
	Error string `json:"error"`
}

type emptyPayload struct{}

// Payload returns the JSON body carried by the event.
func (e Event) Payload() any {
	switch e.Kind {
	case KindSources:
		return sourcesPayload{Sources: e.Sources}
	case KindDelta:
		return deltaPayload{Text: e.Text}
	case KindError:
		return errorPayload{Error: e.Error}
	default:
		return emptyPayload{}
	}
}

// Encode writes e as a single "event:/data:" frame.
func Encode(w io.Writer, e Event) error {
	data, err := json.Marshal(e.Payload())
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", e.Kind, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data)
	return err
}

// Decoder reads frames produced by Encode. Comment lines and unknown event
// kinds are skipped.
type Decoder struct {
	r *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next event, or io.EOF once the stream ends between
// frames. A stream that ends inside a frame yields io.ErrUnexpectedEOF.
func (d *Decoder) Next() (Event, error) {
	var (
		kind    string
		data    []string
		started bool
	)
	for {
		line, err := d.r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				if started {
					return Event{}, io.ErrUnexpectedEOF
				}
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if !started {
				continue
			}
			ev, ok, decodeErr := decode(kind, strings.Join(data, "\n"))
			if decodeErr != nil {
				return Event{}, decodeErr
			}
			if ok {
				return ev, nil
			}
			kind, data, started = "", nil, false
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		started = true
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			kind = value
		case "data":
			data = append(data, value)
		}

		if errors.Is(err, io.EOF) {
			return Event{}, io.ErrUnexpectedEOF
		}
	}
}

func decode(kind, data string) (Event, bool, error) {
	if kind == "" {
		kind = "message"
	}
	if data == "" {
		data = "{}"
	}

	switch Kind(kind) {
	case KindSources:
		var p sourcesPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return Event{}, false, fmt.Errorf("%w: sources: %v", ErrMalformed, err)
		}
		return Sources(p.Sources), true, nil
	case KindDelta:
		var p deltaPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return Event{}, false, fmt.Errorf("%w: delta: %v", ErrMalformed, err)
		}
		return Delta(p.Text), true, nil
	case KindError:
		var p errorPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return Event{}, false, fmt.Errorf("%w: error: %v", ErrMalformed, err)
		}
		return Error(p.Error), true, nil
	case KindPing:
		return Ping(), true, nil
	case KindDone:
		return Done(), true, nil
	}
	return Event{}, false, nil
}
