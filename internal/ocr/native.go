package ocr

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// NativeEngine reads the PDF's embedded text layer. It is free and fast but
// useless on image-only scans, which is most of what the clerk's office sends.
type NativeEngine struct{}

// NewNativeEngine returns the text-layer engine.
func NewNativeEngine() *NativeEngine {
	return &NativeEngine{}
}

// Name returns the engine identifier.
func (e *NativeEngine) Name() string { return "native" }

// Cost returns the cascade position. The text layer is always tried first.
func (e *NativeEngine) Cost() int { return 0 }

// Extract pulls the text layer from every page. Pages that fail to decode
// are skipped so one bad content stream does not lose the whole document.
func (e *NativeEngine) Extract(ctx context.Context, doc Document) (*Result, error) {
	const op = "NativeExtract"
	start := time.Now()

	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, WrapOCRError(op, ErrInvalidPDF, err.Error())
	}

	var text strings.Builder
	pageCount := reader.NumPage()
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, WrapOCRError(op, ErrContextCanceled, err.Error())
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}

	extracted := text.String()
	if strings.TrimSpace(extracted) == "" {
		return nil, WrapOCRError(op, ErrNoTextLayer, doc.Path)
	}

	return &Result{
		Engine:      e.Name(),
		Text:        extracted,
		CharCount:   CountSignal(extracted),
		PageCount:   pageCount,
		Confidence:  1.0,
		ProcessedAt: time.Now(),
		Duration:    time.Since(start),
	}, nil
}
