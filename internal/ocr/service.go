// Package ocr extracts text from scanned court filings through a ladder of
// engines ordered by cost: the PDF's native text layer, local Tesseract,
// Google Cloud Vision, and Google Document AI.
//
// Each engine implements the same Engine interface and the Cascade controller
// walks them cheapest first, stopping at the first output that clears the
// sufficiency threshold. Engines never talk to each other; the cascade owns
// retry, backoff, and the attempt ledger.
//
// Required Environment Variables (cloud tiers only):
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT: Google Cloud project ID
//
// Cloud Vision API Limitations:
//   - Maximum file size: 20MB for synchronous processing
//   - Maximum pages: 5 pages for synchronous processing
//   - Supported formats: PDF, TIFF
package ocr

import (
	"context"
	"fmt"
	"os"
	"time"
	"unicode"
)

// Engine is a single OCR tier. Cost orders engines in the cascade; lower
// values run first. Extract returns the recognized text or an error. A nil
// error with empty text is valid and treated the same as a transient failure
// by the cascade.
type Engine interface {
	Name() string
	Cost() int
	Extract(ctx context.Context, doc Document) (*Result, error)
}

// Document is one source PDF loaded into memory.
type Document struct {
	// Path is the source file path, used for logging and provenance.
	Path string

	// Data is the raw PDF content.
	Data []byte
}

// LoadDocument reads a PDF from disk and validates its header.
func LoadDocument(path string) (Document, error) {
	const op = "LoadDocument"

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, WrapOCRError(op, err, "failed to read PDF file")
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return Document{}, WrapOCRError(op, ErrInvalidPDF, fmt.Sprintf("missing PDF header: %s", path))
	}
	return Document{Path: path, Data: data}, nil
}

// Result contains the output of one engine invocation.
type Result struct {
	// Engine is the name of the engine that produced this result.
	Engine string `json:"engine"`

	// Text is the extracted text content from all pages, concatenated in reading order.
	Text string `json:"text"`

	// CharCount is the number of non-whitespace characters in Text.
	CharCount int `json:"char_count"`

	// PageCount is the number of pages that were processed.
	PageCount int `json:"page_count"`

	// Confidence is the average confidence score across all detected text (0.0 to 1.0).
	// Engines that report no per-token confidence leave this at zero.
	Confidence float32 `json:"confidence"`

	// ProcessedAt is the timestamp when the extraction completed.
	ProcessedAt time.Time `json:"processed_at"`

	// Duration is how long the extraction took.
	Duration time.Duration `json:"duration"`
}

// Attempt records one engine invocation for the provenance trail.
type Attempt struct {
	Engine    string        `json:"engine"`
	Try       int           `json:"try"`
	CharCount int           `json:"char_count"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// CountSignal returns the number of non-whitespace characters in text. This
// is the measure the cascade compares against the sufficiency threshold.
func CountSignal(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
