package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pdf-rag/internal/chromemdb"
	"pdf-rag/internal/models"
	"pdf-rag/internal/service"
	"pdf-rag/internal/service/mocks"
	"pdf-rag/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func multipartRequest(t *testing.T, files map[string][]byte, order ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range order {
		part, err := mw.CreateFormFile(filesField, name)
		require.NoError(t, err)
		_, err = part.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestIngestHandler_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockIngest := mocks.NewMockIngestService(ctrl)

	a := testutil.BuildPDF("Alpha content.")
	b := testutil.BuildPDF("Beta content.")
	mockIngest.EXPECT().
		Ingest(gomock.Any(), []service.Upload{{Filename: "a.pdf", Data: a}, {Filename: "b.pdf", Data: b}}).
		Return(service.IngestResult{
			Chunks: 2,
			Mode:   models.IngestModeCreate,
			Files: []service.FileResult{
				{Filename: "a.pdf", Pages: 1, Chunks: 1, Mode: models.IngestModeCreate},
				{Filename: "b.pdf", Pages: 1, Chunks: 1, Mode: models.IngestModeAppend},
			},
		}, nil)

	w := httptest.NewRecorder()
	NewIngestHandler(mockIngest).ServeHTTP(w, multipartRequest(t, map[string][]byte{"a.pdf": a, "b.pdf": b}, "a.pdf", "b.pdf"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"ok": true,
		"chunks": 2,
		"mode": "create",
		"files": [
			{"filename": "a.pdf", "pages": 1, "chunks": 1, "mode": "create"},
			{"filename": "b.pdf", "pages": 1, "chunks": 1, "mode": "append"}
		]
	}`, w.Body.String())
}

func TestIngestHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", &models.ValidationError{Field: "files", Message: "at most 5 files per request"}, http.StatusBadRequest},
		{"extraction", &models.ExtractionError{Filename: "a.pdf", Err: errors.New("bad xref")}, http.StatusUnprocessableEntity},
		{"upstream", &models.UpstreamError{Service: "embedding", Err: errors.New("refused")}, http.StatusBadGateway},
		{"internal", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockIngest := mocks.NewMockIngestService(ctrl)
			mockIngest.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(service.IngestResult{}, tt.err)

			w := httptest.NewRecorder()
			pdf := testutil.BuildPDF("x")
			NewIngestHandler(mockIngest).ServeHTTP(w, multipartRequest(t, map[string][]byte{"a.pdf": pdf}, "a.pdf"))

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.err.Error(), resp.Error)
		})
	}
}

func TestIngestHandler_NotMultipart(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockIngest := mocks.NewMockIngestService(ctrl)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(`{"files":[]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	NewIngestHandler(mockIngest).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestHandler_NoFilesReachesValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockIngest := mocks.NewMockIngestService(ctrl)
	mockIngest.EXPECT().
		Ingest(gomock.Any(), []service.Upload{}).
		Return(service.IngestResult{}, &models.ValidationError{Field: "files", Message: "at least one PDF is required"})

	w := httptest.NewRecorder()
	NewIngestHandler(mockIngest).ServeHTTP(w, multipartRequest(t, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFilesHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockIngest := mocks.NewMockIngestService(ctrl)
	mockIngest.EXPECT().Documents(gomock.Any()).Return([]service.DocumentSummary{{Filename: "a.pdf", Pages: 3}}, nil)

	w := httptest.NewRecorder()
	NewFilesHandler(mockIngest).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"files":[{"filename":"a.pdf","pages":3}]}`, w.Body.String())
}

func TestFilesHandler_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockIngest := mocks.NewMockIngestService(ctrl)
	mockIngest.EXPECT().Documents(gomock.Any()).Return(nil, nil)

	w := httptest.NewRecorder()
	NewFilesHandler(mockIngest).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files", nil))

	assert.JSONEq(t, `{"files":[]}`, w.Body.String())
}

type fakeIndexStatus struct {
	exists bool
	meta   chromemdb.Metadata
	err    error
}

func (f fakeIndexStatus) Exists() bool                          { return f.exists }
func (f fakeIndexStatus) Metadata() (chromemdb.Metadata, error) { return f.meta, f.err }

func TestHealthHandler(t *testing.T) {
	updated := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		index fakeIndexStatus
		want  string
	}{
		{
			name:  "no index yet",
			index: fakeIndexStatus{},
			want:  `{"ok":true,"index":{"exists":false,"documents":0}}`,
		},
		{
			name: "index present",
			index: fakeIndexStatus{exists: true, meta: chromemdb.Metadata{
				Documents: 12, EmbeddingModel: "nomic-embed-text", UpdatedAt: updated,
			}},
			want: `{"ok":true,"index":{"exists":true,"documents":12,"embeddingModel":"nomic-embed-text","updatedAt":"2026-01-02T03:04:05Z"}}`,
		},
		{
			name:  "unreadable metadata",
			index: fakeIndexStatus{exists: true, err: errors.New("corrupt")},
			want:  `{"ok":true,"index":{"exists":true,"documents":0}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewHealthHandler(tt.index).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusFor(nil))
	assert.Equal(t, http.StatusBadRequest, StatusFor(&models.ValidationError{}))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(models.ErrNoIndex))
	assert.Equal(t, models.NoIndexMessage, StreamMessage(models.ErrNoIndex))
	assert.Equal(t, "boom", StreamMessage(errors.New("boom")))
}
