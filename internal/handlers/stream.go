package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"pdf-rag/internal/events"
)

var errStreamClosed = errors.New("stream closed")

// streamWriter serializes event writes from the answer and the heartbeat.
// After a terminal event or a cancelled request it refuses further writes.
type streamWriter struct {
	ctx     context.Context
	w       io.Writer
	flusher http.Flusher

	mu     sync.Mutex
	closed bool
}

func newStreamWriter(ctx context.Context, w io.Writer, flusher http.Flusher) *streamWriter {
	return &streamWriter{ctx: ctx, w: w, flusher: flusher}
}

func (s *streamWriter) Send(e events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStreamClosed
	}
	if err := s.ctx.Err(); err != nil {
		s.closed = true
		return err
	}
	if err := events.Encode(s.w, e); err != nil {
		s.closed = true
		return err
	}
	s.flusher.Flush()
	if e.Terminal() {
		s.closed = true
	}
	return nil
}

// startHeartbeat sends a ping every interval until ctx ends, a write fails
// or the returned stop function is called. stop waits for the sender to
// exit and is safe to call more than once.
func startHeartbeat(ctx context.Context, interval time.Duration, send func(events.Event) error) func() {
	if interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := send(events.Ping()); err != nil {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
