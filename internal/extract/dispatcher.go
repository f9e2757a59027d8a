package extract

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// Dispatcher routes a file to the extractor for its media type and bounds
// how many extractions run at once.
type Dispatcher struct {
	pdf   Extractor
	image Extractor
	sem   *semaphore.Weighted
}

// NewDispatcher creates a Dispatcher. A nil image extractor disables OCR and
// image uploads fail with ErrUnsupportedMediaType.
func NewDispatcher(pdf, image Extractor, maxConcurrent int) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Dispatcher{
		pdf:   pdf,
		image: image,
		sem:   semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// NormalizeMediaType lowercases a Content-Type value and strips parameters.
// image/jpg is accepted as an alias of image/jpeg.
func NormalizeMediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	mt = strings.ToLower(mt)
	if mt == "image/jpg" {
		return "image/jpeg"
	}
	return mt
}

// Supports reports whether the dispatcher has an extractor for mediaType.
func (d *Dispatcher) Supports(mediaType string) bool {
	return d.route(NormalizeMediaType(mediaType)) != nil
}

func (d *Dispatcher) route(mediaType string) Extractor {
	switch {
	case mediaType == "application/pdf":
		return d.pdf
	case strings.HasPrefix(mediaType, "image/"):
		return d.image
	default:
		return nil
	}
}

// Extract runs the extractor for mediaType over data. It blocks while the
// concurrency limit is reached and gives up when ctx is done.
func (d *Dispatcher) Extract(ctx context.Context, mediaType string, data []byte) (*Result, error) {
	mt := NormalizeMediaType(mediaType)
	ex := d.route(mt)
	if ex == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mt)
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for extraction slot: %w", err)
	}
	defer d.sem.Release(1)

	start := time.Now()
	res, err := ex.Extract(ctx, data)
	if err != nil {
		return nil, err
	}
	if res.Duration == 0 {
		res.Duration = time.Since(start)
	}
	return res, nil
}
