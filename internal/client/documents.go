package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"pdf-rag/internal/handlers"
)

// Upload posts the files at paths to the ingest endpoint in one request.
func (c *Client) Upload(ctx context.Context, paths []string) (handlers.IngestResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range paths {
		if err := addFile(mw, p); err != nil {
			return handlers.IngestResponse{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return handlers.IngestResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ingest", &body)
	if err != nil {
		return handlers.IngestResponse{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out handlers.IngestResponse
	if err := c.doJSON(req, &out); err != nil {
		return handlers.IngestResponse{}, err
	}
	return out, nil
}

func addFile(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	part, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// Files lists the documents the server has ingested.
func (c *Client) Files(ctx context.Context) ([]handlers.FileSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/files", nil)
	if err != nil {
		return nil, err
	}
	var out handlers.FilesResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// Health fetches the server health report.
func (c *Client) Health(ctx context.Context) (handlers.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return handlers.HealthResponse{}, err
	}
	var out handlers.HealthResponse
	err = c.doJSON(req, &out)
	return out, err
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
