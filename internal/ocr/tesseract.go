package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// TesseractEngine runs local OCR over the page images embedded in the PDF.
// Scanned filings are one full-page image per page, so extracting the image
// XObjects and feeding them to Tesseract recovers the page text without any
// cloud call.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs the local OCR engine. It requires the
// libtesseract shared library at runtime.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

// Name returns the engine identifier.
func (e *TesseractEngine) Name() string { return "tesseract" }

// Cost returns the cascade position: after the text layer, before cloud tiers.
func (e *TesseractEngine) Cost() int { return 1 }

// Extract renders each page's embedded images through Tesseract and
// concatenates the recognized text in page order. Court forms are
// single-column, so PSM_SINGLE_COLUMN beats the default auto segmentation
// on the checkbox-and-label layout.
func (e *TesseractEngine) Extract(ctx context.Context, doc Document) (*Result, error) {
	const op = "TesseractExtract"
	start := time.Now()

	pageImages, err := api.ExtractImagesRaw(bytes.NewReader(doc.Data), nil, model.NewDefaultConfiguration())
	if err != nil {
		return nil, WrapOCRError(op, ErrInvalidPDF, fmt.Sprintf("image extraction failed: %v", err))
	}

	client := e.clientFactory()
	defer client.Close()

	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_COLUMN); err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("failed to set page segmentation mode: %v", err))
	}

	var text strings.Builder
	pageCount := 0
	for _, images := range pageImages {
		if err := ctx.Err(); err != nil {
			return nil, WrapOCRError(op, ErrContextCanceled, err.Error())
		}
		if len(images) == 0 {
			continue
		}
		pageCount++

		// Object numbers order images within the page.
		objNrs := make([]int, 0, len(images))
		for objNr := range images {
			objNrs = append(objNrs, objNr)
		}
		sort.Ints(objNrs)

		for _, objNr := range objNrs {
			img := images[objNr]
			data, err := io.ReadAll(img)
			if err != nil || len(data) == 0 {
				continue
			}
			if err := client.SetImageFromBytes(data); err != nil {
				continue
			}
			pageText, err := client.Text()
			if err != nil {
				continue
			}
			if strings.TrimSpace(pageText) == "" {
				continue
			}
			text.WriteString(pageText)
			text.WriteString("\n")
		}
	}

	extracted := text.String()
	if strings.TrimSpace(extracted) == "" {
		return nil, WrapOCRError(op, ErrEmptyDocument, doc.Path)
	}

	return &Result{
		Engine:      e.Name(),
		Text:        extracted,
		CharCount:   CountSignal(extracted),
		PageCount:   pageCount,
		ProcessedAt: time.Now(),
		Duration:    time.Since(start),
	}, nil
}
