package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"pdf-rag/internal/events"
	"pdf-rag/internal/handlers"
)

// transport opens one answer stream. Failures before the body is available
// are returned as *ConnectionError.
type transport interface {
	name() string
	open(ctx context.Context, question string) (io.ReadCloser, error)
}

type getTransport struct {
	client *Client
}

func (t *getTransport) name() string { return "get" }

func (t *getTransport) open(ctx context.Context, question string) (io.ReadCloser, error) {
	u := t.client.baseURL + "/api/chat?message=" + url.QueryEscape(question)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return t.client.openStream(req, t.name())
}

type postTransport struct {
	client *Client
}

func (t *postTransport) name() string { return "post" }

func (t *postTransport) open(ctx context.Context, question string) (io.ReadCloser, error) {
	payload, err := json.Marshal(handlers.ChatRequest{Message: question})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.client.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return t.client.openStream(req, t.name())
}

func (c *Client) openStream(req *http.Request, name string) (io.ReadCloser, error) {
	req.Header.Set("Accept", events.ContentType)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ConnectionError{Transport: name, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &ConnectionError{Transport: name, Err: readAPIError(resp)}
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, events.ContentType) {
		resp.Body.Close()
		return nil, &ConnectionError{Transport: name, Err: fmt.Errorf("unexpected content type %q", ct)}
	}
	return resp.Body, nil
}

func readAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body handlers.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return &APIError{Status: resp.StatusCode, Message: body.Error}
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
