// Package client talks to a running server: it streams answers over the GET
// event stream with a POST fallback and uploads PDFs for ingest.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pdf-rag/internal/events"
	"pdf-rag/internal/models"

	"github.com/rs/zerolog/log"
)

var (
	// ErrConnection marks failures that happen before any event reached the
	// handler. Only these trigger the fallback transport.
	ErrConnection = errors.New("connection failed")
	// ErrIncompleteStream is returned when a stream ends without done or error.
	ErrIncompleteStream = errors.New("stream ended without a terminal event")
)

// ConnectionError names the transport that could not deliver the stream.
type ConnectionError struct {
	Transport string
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Transport, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// StreamError carries the message of an error event sent by the server.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string { return e.Message }

// APIError is a non-2xx JSON response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	http       *http.Client
	transports []transport
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the server at baseURL, e.g. http://localhost:4000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.transports = []transport{
		&getTransport{client: c},
		&postTransport{client: c},
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Stream asks question and passes every event except pings to handler, in
// order, ending with exactly one done or error event. An error event is
// also returned as *StreamError. The POST transport is tried only when the
// GET transport fails before delivering anything.
func (c *Client) Stream(ctx context.Context, question string, handler func(events.Event) error) error {
	if strings.TrimSpace(question) == "" {
		return &models.ValidationError{Field: "message", Message: "cannot be empty"}
	}

	var lastErr error
	for _, t := range c.transports {
		delivered, err := c.run(ctx, t, question, handler)
		if err == nil {
			return nil
		}
		if delivered || ctx.Err() != nil || !errors.Is(err, ErrConnection) {
			return err
		}
		log.Debug().Err(err).Msgf("%s transport failed, trying next", t.name())
		lastErr = err
	}
	return lastErr
}

func (c *Client) run(ctx context.Context, t transport, question string, handler func(events.Event) error) (bool, error) {
	body, err := t.open(ctx, question)
	if err != nil {
		return false, err
	}
	defer body.Close()

	dec := events.NewDecoder(body)
	delivered := false
	for {
		e, err := dec.Next()
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return delivered, ctx.Err()
			case !delivered:
				return false, &ConnectionError{Transport: t.name(), Err: err}
			case errors.Is(err, io.EOF):
				return true, ErrIncompleteStream
			default:
				return true, err
			}
		}
		if e.Kind == events.KindPing {
			continue
		}

		delivered = true
		if err := handler(e); err != nil {
			return true, err
		}
		switch e.Kind {
		case events.KindDone:
			return true, nil
		case events.KindError:
			return true, &StreamError{Message: e.Error}
		}
	}
}
