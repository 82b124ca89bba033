// Package corpus persists the raw page text of every ingested document so
// whole-document questions can be answered without the vector index.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"

	"github.com/rs/zerolog/log"
)

var unsafeChars = regexp.MustCompile(`(?i)[^a-z0-9._-]+`)

// SanitizeName maps a document filename to its snapshot file stem.
func SanitizeName(filename string) string {
	return unsafeChars.ReplaceAllString(filename, "_")
}

// Store reads and writes snapshots under <root>/corpus.
type Store struct {
	dir string
}

func NewStore(root string) *Store {
	return &Store{dir: filepath.Join(root, models.CorpusDirName)}
}

func (s *Store) Dir() string {
	return s.dir
}

// Write stores the pages of filename, replacing any snapshot with the same
// sanitized name. The directory is created on first use.
func (s *Store) Write(filename string, pages []models.PageRecord) error {
	if err := helper.CreateFolder(s.dir); err != nil {
		return err
	}

	if pages == nil {
		pages = []models.PageRecord{}
	}
	data, err := json.Marshal(models.CorpusSnapshot{Filename: filename, Pages: pages})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", filename, err)
	}

	path := filepath.Join(s.dir, SanitizeName(filename)+".json")
	if err := helper.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write snapshot for %s: %w", filename, err)
	}

	log.Debug().Msgf("wrote corpus snapshot %s (%d pages)", path, len(pages))
	return nil
}

// ReadAll returns every stored snapshot in directory order. A missing
// directory yields no snapshots.
func (s *Store) ReadAll() ([]models.CorpusSnapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}

	var snapshots []models.CorpusSnapshot
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		snapshot, err := s.read(entry.Name())
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

func (s *Store) read(name string) (models.CorpusSnapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return models.CorpusSnapshot{}, fmt.Errorf("failed to read snapshot %s: %w", name, err)
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))

	// older snapshots are a bare page array keyed only by file name
	if trimmed := strings.TrimSpace(string(data)); strings.HasPrefix(trimmed, "[") {
		var pages []models.PageRecord
		if err := json.Unmarshal(data, &pages); err != nil {
			return models.CorpusSnapshot{}, fmt.Errorf("failed to decode snapshot %s: %w", name, err)
		}
		return models.CorpusSnapshot{Filename: stem, Pages: pages}, nil
	}

	var snapshot models.CorpusSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return models.CorpusSnapshot{}, fmt.Errorf("failed to decode snapshot %s: %w", name, err)
	}
	if snapshot.Filename == "" {
		snapshot.Filename = stem
	}
	return snapshot, nil
}
