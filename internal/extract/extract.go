// Package extract pulls readable text out of uploaded post files.
// PDFs are read with github.com/ledongthuc/pdf; images are handed to an OCR
// engine (see package tesseract).
package extract

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrExtractionFailed     = errors.New("text extraction failed")
	ErrNoText               = errors.New("no readable text found")
)

// Extraction methods reported in Result.Method.
const (
	MethodPDF = "pdf"
	MethodOCR = "ocr"
)

// Result is the raw text pulled from a single file.
type Result struct {
	Text       string
	Pages      int
	Method     string
	Confidence float64 // mean OCR word confidence in [0,1]; zero for PDFs
	Duration   time.Duration
}

// Extractor reads text from the bytes of one file.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (*Result, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, data []byte) (*Result, error)

func (f ExtractorFunc) Extract(ctx context.Context, data []byte) (*Result, error) {
	return f(ctx, data)
}
