package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"pdf-rag/internal/models"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

const pdfMagic = "%PDF-"

// IsPDF reports whether an upload looks like a PDF: by content signature first,
// falling back to the file extension.
func IsPDF(data []byte, filename string) bool {
	if bytes.HasPrefix(data, []byte(pdfMagic)) {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// ExtractPages returns one PageRecord per page in document order. Fragments of
// a page are joined by single spaces and trimmed. Any parser failure, including
// a panic inside the pdf library, is returned as *models.ExtractionError.
func ExtractPages(data []byte) (pages []models.PageRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &models.ExtractionError{Err: fmt.Errorf("pdf parser panic: %v", r)}
		}
	}()

	if len(data) == 0 {
		return nil, &models.ExtractionError{Err: errors.New("empty buffer")}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &models.ExtractionError{Err: err}
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, &models.ExtractionError{Err: errors.New("document has no pages")}
	}

	pages = make([]models.PageRecord, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			return nil, &models.ExtractionError{Err: fmt.Errorf("page %d is missing", i)}
		}

		var text string
		if page.V.Key("Contents").Kind() != pdf.Null {
			text, err = page.GetPlainText(nil)
			if err != nil {
				return nil, &models.ExtractionError{Err: fmt.Errorf("page %d: %w", i, err)}
			}
		}

		pages = append(pages, models.PageRecord{
			PageNumber: i,
			Text:       normalizeWhitespace(text),
		})
	}

	log.Debug().Msgf("extracted %d pages", len(pages))
	return pages, nil
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
