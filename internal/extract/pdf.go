package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether data starts with a PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// PDFExtractor reads the text layer of a PDF, page by page.
// Pages that fail to decode or carry no text are skipped.
type PDFExtractor struct {
	// MaxPages bounds how many pages are read; zero means all.
	MaxPages int
}

// NewPDFExtractor creates a PDFExtractor that reads at most maxPages pages.
func NewPDFExtractor(maxPages int) *PDFExtractor {
	return &PDFExtractor{MaxPages: maxPages}
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (res *Result, err error) {
	if !IsPDF(data) {
		return nil, fmt.Errorf("%w: missing PDF header", ErrExtractionFailed)
	}

	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: malformed PDF: %v", ErrExtractionFailed, r)
		}
	}()

	start := time.Now()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open PDF: %v", ErrExtractionFailed, err)
	}

	n := reader.NumPage()
	if e.MaxPages > 0 && n > e.MaxPages {
		n = e.MaxPages
	}

	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if s := strings.TrimSpace(text); s != "" {
			pages = append(pages, s)
		}
	}

	return &Result{
		Text:     strings.Join(pages, "\n\n"),
		Pages:    reader.NumPage(),
		Method:   MethodPDF,
		Duration: time.Since(start),
	}, nil
}
