// Package tesseract implements image text extraction on top of the
// gosseract Tesseract bindings. It needs libtesseract at build time, so it
// lives apart from package extract.
package tesseract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/HammerMeetNail/postcoach/internal/extract"
)

// Engine runs Tesseract OCR over image bytes.
type Engine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// New creates an Engine for the given Tesseract language codes. With no
// languages it uses "eng".
func New(languages ...string) *Engine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Engine{languages: languages, clientFactory: gosseract.NewClient}
}

// Languages returns the configured Tesseract language codes.
func (e *Engine) Languages() []string {
	return append([]string(nil), e.languages...)
}

// Version reports the linked Tesseract version.
func (e *Engine) Version() string {
	c := e.clientFactory()
	defer c.Close()
	return c.Version()
}

// Extract performs OCR on a single image. A gosseract client is not safe for
// concurrent use, so each call gets its own.
func (e *Engine) Extract(ctx context.Context, data []byte) (*extract.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	c := e.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(e.languages...); err != nil {
		return nil, fmt.Errorf("%w: set languages: %v", extract.ErrExtractionFailed, err)
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: set image: %v", extract.ErrExtractionFailed, err)
	}
	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("%w: recognize text: %v", extract.ErrExtractionFailed, err)
	}

	return &extract.Result{
		Text:       strings.TrimSpace(text),
		Pages:      1,
		Method:     extract.MethodOCR,
		Confidence: meanConfidence(c),
		Duration:   time.Since(start),
	}, nil
}

func meanConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return sum / float64(len(boxes))
}
