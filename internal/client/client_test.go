package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"pdf-rag/internal/events"
	"pdf-rag/internal/handlers"
	"pdf-rag/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sources = []models.SourceRef{{Filename: "a.pdf", PageNumber: 1}}

func sse(w http.ResponseWriter, evs ...events.Event) {
	w.Header().Set("Content-Type", events.ContentType)
	w.WriteHeader(http.StatusOK)
	for _, e := range evs {
		_ = events.Encode(w, e)
	}
}

type fakeServer struct {
	get      http.HandlerFunc
	post     http.HandlerFunc
	getHits  atomic.Int32
	postHits atomic.Int32
	question atomic.Value
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		f.getHits.Add(1)
		f.question.Store(r.URL.Query().Get("message"))
		f.get(w, r)
	case http.MethodPost:
		f.postHits.Add(1)
		var req handlers.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.question.Store(req.Message)
		f.post(w, r)
	}
}

func start(t *testing.T, f *fakeServer) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func collect(got *[]events.Event) func(events.Event) error {
	return func(e events.Event) error {
		*got = append(*got, e)
		return nil
	}
}

func answer(w http.ResponseWriter, _ *http.Request) {
	sse(w, events.Sources(sources), events.Ping(), events.Delta("Alpha "), events.Delta("(a.pdf p.1)"), events.Done())
}

func TestStream_PrimaryTransport(t *testing.T) {
	f := &fakeServer{get: answer, post: answer}
	c := start(t, f)

	var got []events.Event
	err := c.Stream(context.Background(), "What is alpha?", collect(&got))
	require.NoError(t, err)

	assert.Equal(t, []events.Event{
		events.Sources(sources),
		events.Delta("Alpha "),
		events.Delta("(a.pdf p.1)"),
		events.Done(),
	}, got, "pings are not delivered")
	assert.Equal(t, int32(1), f.getHits.Load())
	assert.Equal(t, int32(0), f.postHits.Load())
	assert.Equal(t, "What is alpha?", f.question.Load())
}

func TestStream_FallsBackOnConnectionFailure(t *testing.T) {
	tests := []struct {
		name string
		get  http.HandlerFunc
	}{
		{
			name: "proxy error status",
			get: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "bad gateway", http.StatusBadGateway)
			},
		},
		{
			name: "buffered as non event stream",
			get: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				_, _ = w.Write([]byte("<html></html>"))
			},
		},
		{
			name: "closed before any event",
			get: func(w http.ResponseWriter, _ *http.Request) {
				sse(w)
			},
		},
		{
			name: "only pings before close",
			get: func(w http.ResponseWriter, _ *http.Request) {
				sse(w, events.Ping(), events.Ping())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeServer{get: tt.get, post: answer}
			c := start(t, f)

			var got []events.Event
			require.NoError(t, c.Stream(context.Background(), "q", collect(&got)))

			assert.Len(t, got, 4)
			assert.Equal(t, events.Done(), got[len(got)-1])
			assert.Equal(t, int32(1), f.postHits.Load())
			assert.Equal(t, "q", f.question.Load())
		})
	}
}

func TestStream_ErrorEventDoesNotFallBack(t *testing.T) {
	f := &fakeServer{
		get: func(w http.ResponseWriter, _ *http.Request) {
			sse(w, events.Error(models.NoIndexMessage))
		},
		post: answer,
	}
	c := start(t, f)

	var got []events.Event
	err := c.Stream(context.Background(), "q", collect(&got))

	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, models.NoIndexMessage, streamErr.Message)
	assert.Equal(t, []events.Event{events.Error(models.NoIndexMessage)}, got)
	assert.Equal(t, int32(0), f.postHits.Load())
}

func TestStream_TruncatedAfterEventsDoesNotFallBack(t *testing.T) {
	f := &fakeServer{
		get: func(w http.ResponseWriter, _ *http.Request) {
			sse(w, events.Sources(sources), events.Delta("partial"))
		},
		post: answer,
	}
	c := start(t, f)

	var got []events.Event
	err := c.Stream(context.Background(), "q", collect(&got))

	assert.ErrorIs(t, err, ErrIncompleteStream)
	assert.Equal(t, []events.Event{events.Sources(sources), events.Delta("partial")}, got)
	assert.Equal(t, int32(0), f.postHits.Load())
}

func TestStream_BothTransportsFail(t *testing.T) {
	down := func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}
	f := &fakeServer{get: down, post: down}
	c := start(t, f)

	err := c.Stream(context.Background(), "q", func(events.Event) error {
		t.Fatal("no event expected")
		return nil
	})

	assert.ErrorIs(t, err, ErrConnection)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, int32(1), f.getHits.Load())
	assert.Equal(t, int32(1), f.postHits.Load())
}

func TestStream_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New(url).Stream(context.Background(), "q", func(events.Event) error { return nil })
	assert.ErrorIs(t, err, ErrConnection)
}

func TestStream_HandlerErrorStops(t *testing.T) {
	f := &fakeServer{get: answer, post: answer}
	c := start(t, f)
	stop := errors.New("stop")

	err := c.Stream(context.Background(), "q", func(events.Event) error { return stop })

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, int32(0), f.postHits.Load())
}

func TestStream_EmptyQuestion(t *testing.T) {
	f := &fakeServer{get: answer, post: answer}
	c := start(t, f)

	err := c.Stream(context.Background(), "  ", func(events.Event) error { return nil })
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Equal(t, int32(0), f.getHits.Load())
}

func TestStream_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &fakeServer{
		get: func(w http.ResponseWriter, r *http.Request) {
			sse(w, events.Delta("first"))
			w.(http.Flusher).Flush()
			<-r.Context().Done()
		},
		post: answer,
	}
	c := start(t, f)

	err := c.Stream(ctx, "q", func(e events.Event) error {
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), f.postHits.Load())
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ingest", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 1)
		assert.Equal(t, "a.pdf", files[0].Filename)
		f, err := files[0].Open()
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "%PDF-1.4 test", string(data))

		handlers.JSON(w, http.StatusOK, handlers.IngestResponse{
			OK: true, Chunks: 1, Mode: models.IngestModeCreate,
			Files: []handlers.IngestFileResponse{{Filename: "a.pdf", Pages: 1, Chunks: 1, Mode: models.IngestModeCreate}},
		})
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Upload(context.Background(), []string{path})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, models.IngestModeCreate, resp.Mode)
	assert.Equal(t, 1, resp.Chunks)
}

func TestUpload_ServerRejects(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.Error(w, http.StatusBadRequest, "notes.txt is not a PDF")
	}))
	defer srv.Close()

	_, err := New(srv.URL).Upload(context.Background(), []string{path})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "notes.txt is not a PDF", apiErr.Message)
}

func TestUpload_MissingFile(t *testing.T) {
	_, err := New("http://localhost:1").Upload(context.Background(), []string{"/does/not/exist.pdf"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFilesAndHealth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/files", func(w http.ResponseWriter, _ *http.Request) {
		handlers.JSON(w, http.StatusOK, handlers.FilesResponse{Files: []handlers.FileSummary{{Filename: "a.pdf", Pages: 3}}})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		handlers.JSON(w, http.StatusOK, handlers.HealthResponse{OK: true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	files, err := c.Files(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []handlers.FileSummary{{Filename: "a.pdf", Pages: 3}}, files)

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, health.OK)
}
