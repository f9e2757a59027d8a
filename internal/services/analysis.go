package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"github.com/HammerMeetNail/postcoach/internal/extract"
	"github.com/HammerMeetNail/postcoach/internal/logging"
	"github.com/HammerMeetNail/postcoach/internal/metrics"
	"github.com/HammerMeetNail/postcoach/internal/models"
	"github.com/HammerMeetNail/postcoach/internal/suggest"
)

var (
	ErrEmptyUpload         = errors.New("upload is empty")
	ErrUploadTooLarge      = errors.New("upload exceeds the size limit")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrNoText              = errors.New("no readable text in upload")
	ErrAnalysisNotFound    = errors.New("analysis not found")
)

const (
	analysisCacheKeyPrefix = "analysis:"
	DefaultListLimit       = 20
	MaxListLimit           = 100
)

// TextExtractor picks an extractor by media type and runs it.
type TextExtractor interface {
	Supports(mediaType string) bool
	Extract(ctx context.Context, mediaType string, data []byte) (*extract.Result, error)
}

type AnalysisOptions struct {
	MaxUploadBytes int64
	CacheTTL       time.Duration
	Logger         *logging.Logger
	Metrics        *metrics.Metrics
}

// AnalysisService turns uploads into stored analyses. Results are cached in
// Redis by content hash, and identical uploads in flight share one run.
type AnalysisService struct {
	db        DBConn
	cache     RedisClient
	extractor TextExtractor
	opts      AnalysisOptions
	group     singleflight.Group
	now       func() time.Time
	newID     func() uuid.UUID
}

func NewAnalysisService(db DBConn, cache RedisClient, extractor TextExtractor, opts AnalysisOptions) *AnalysisService {
	if opts.Logger == nil {
		opts.Logger = logging.Default
	}
	return &AnalysisService{
		db:        db,
		cache:     cache,
		extractor: extractor,
		opts:      opts,
		now:       time.Now,
		newID:     uuid.New,
	}
}

// Analyze extracts the text of an uploaded file and runs the suggestion
// engine over it.
func (s *AnalysisService) Analyze(ctx context.Context, upload models.Upload) (*models.Analysis, error) {
	mediaType := extract.NormalizeMediaType(upload.MediaType)
	if err := s.validate(mediaType, upload.Data); err != nil {
		s.opts.Metrics.ObserveAnalysis(mediaType, metrics.OutcomeRejected)
		return nil, err
	}

	return s.run(ctx, mediaType, upload, func(ctx context.Context) (*extract.Result, error) {
		res, err := s.extractor.Extract(ctx, mediaType, upload.Data)
		if err != nil {
			if errors.Is(err, extract.ErrUnsupportedMediaType) {
				return nil, fmt.Errorf("%w: %v", ErrUnsupportedFileType, err)
			}
			return nil, fmt.Errorf("extracting text: %w", err)
		}
		s.opts.Metrics.ObserveExtraction(res.Method, res.Duration)
		return res, nil
	})
}

// AnalyzeText runs the suggestion engine over text that was pasted rather
// than uploaded. It is stored and cached like a file analysis.
func (s *AnalysisService) AnalyzeText(ctx context.Context, text string) (*models.Analysis, error) {
	data := []byte(text)
	if s.opts.MaxUploadBytes > 0 && int64(len(data)) > s.opts.MaxUploadBytes {
		s.opts.Metrics.ObserveAnalysis(models.MediaTypeText, metrics.OutcomeRejected)
		return nil, ErrUploadTooLarge
	}

	upload := models.Upload{MediaType: models.MediaTypeText, Data: data}
	return s.run(ctx, models.MediaTypeText, upload, func(ctx context.Context) (*extract.Result, error) {
		return &extract.Result{Text: text, Method: "text"}, nil
	})
}

func (s *AnalysisService) validate(mediaType string, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyUpload
	}
	if s.opts.MaxUploadBytes > 0 && int64(len(data)) > s.opts.MaxUploadBytes {
		return ErrUploadTooLarge
	}
	if !s.extractor.Supports(mediaType) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFileType, mediaType)
	}
	return nil
}

func (s *AnalysisService) run(ctx context.Context, mediaType string, upload models.Upload, extractFn func(context.Context) (*extract.Result, error)) (*models.Analysis, error) {
	hash := ContentHash(mediaType, upload.Data)
	logger := s.opts.Logger.WithFields(map[string]interface{}{
		"content_hash": hash[:16],
		"file_type":    mediaType,
	})

	if cached := s.lookup(ctx, hash, logger); cached != nil {
		s.opts.Metrics.ObserveAnalysis(mediaType, metrics.OutcomeCached)
		return cached, nil
	}

	// The flight is shared by every caller with this hash, so it must not
	// stop when the caller that started it goes away.
	ch := s.group.DoChan(hash, func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)

		res, err := extractFn(ctx)
		if err != nil {
			return nil, err
		}

		text := extract.Clean(res.Text)
		if text == "" {
			return nil, ErrNoText
		}

		analysis := s.build(text, mediaType, upload, res, hash)
		if err := s.persist(ctx, analysis); err != nil {
			return nil, err
		}
		s.store(ctx, analysis, logger)

		for _, sg := range analysis.Suggestions {
			s.opts.Metrics.ObserveSuggestion(string(sg.Type))
		}
		logger.Info("Analysis completed", map[string]interface{}{
			"analysis_id": analysis.ID.String(),
			"words":       analysis.Metadata.WordCount,
			"suggestions": len(analysis.Suggestions),
			"method":      analysis.Metadata.Method,
		})
		return analysis, nil
	})

	var result singleflight.Result
	select {
	case result = <-ch:
	case <-ctx.Done():
		logger.Debug("Caller left before analysis finished", map[string]interface{}{"error": ctx.Err().Error()})
		return nil, ctx.Err()
	}

	v, err, shared := result.Val, result.Err, result.Shared
	if err != nil {
		switch {
		case errors.Is(err, ErrNoText):
			s.opts.Metrics.ObserveAnalysis(mediaType, metrics.OutcomeNoText)
		case errors.Is(err, ErrUnsupportedFileType):
			s.opts.Metrics.ObserveAnalysis(mediaType, metrics.OutcomeRejected)
		default:
			s.opts.Metrics.ObserveAnalysis(mediaType, metrics.OutcomeFailed)
			logger.Error("Analysis failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, err
	}

	s.opts.Metrics.ObserveAnalysis(mediaType, metrics.OutcomeSuccess)
	analysis := *v.(*models.Analysis)
	if shared {
		analysis.Suggestions = append([]suggest.Suggestion(nil), analysis.Suggestions...)
	}
	return &analysis, nil
}

func (s *AnalysisService) build(text, mediaType string, upload models.Upload, res *extract.Result, hash string) *models.Analysis {
	features := suggest.Analyze(text)
	return &models.Analysis{
		ID:            s.newID(),
		ExtractedText: text,
		Suggestions:   suggest.Generate(text),
		Metadata: models.AnalysisMetadata{
			FileType:   mediaType,
			FileName:   upload.FileName,
			FileSize:   int64(len(upload.Data)),
			TextLength: utf8.RuneCountInString(text),
			WordCount:  features.WordCount,
			Pages:      res.Pages,
			Method:     res.Method,
			Confidence: res.Confidence,
		},
		ContentHash: hash,
		CreatedAt:   s.now().UTC(),
	}
}

// lookup returns a cached analysis, or nil on a miss. Cache errors are
// logged and treated as misses.
func (s *AnalysisService) lookup(ctx context.Context, hash string, logger *logging.Logger) *models.Analysis {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, analysisCacheKeyPrefix+hash)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			s.opts.Metrics.ObserveCacheLookup("miss")
		} else {
			s.opts.Metrics.ObserveCacheLookup("error")
			logger.Warn("Analysis cache lookup failed", map[string]interface{}{"error": err.Error()})
		}
		return nil
	}

	var analysis models.Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		s.opts.Metrics.ObserveCacheLookup("error")
		logger.Warn("Discarding unreadable cached analysis", map[string]interface{}{"error": err.Error()})
		_ = s.cache.Del(ctx, analysisCacheKeyPrefix+hash)
		return nil
	}
	s.opts.Metrics.ObserveCacheLookup("hit")
	analysis.Cached = true
	return &analysis
}

func (s *AnalysisService) store(ctx context.Context, analysis *models.Analysis, logger *logging.Logger) {
	if s.cache == nil || s.opts.CacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(analysis)
	if err != nil {
		logger.Warn("Encoding analysis for cache failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.cache.Set(ctx, analysisCacheKeyPrefix+analysis.ContentHash, payload, s.opts.CacheTTL); err != nil {
		logger.Warn("Analysis cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *AnalysisService) persist(ctx context.Context, a *models.Analysis) error {
	suggestions, err := json.Marshal(a.Suggestions)
	if err != nil {
		return fmt.Errorf("encoding suggestions: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO analyses (id, content_hash, file_type, file_name, file_size, extracted_text,
		                       suggestions, text_length, word_count, pages, method, confidence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.ContentHash, a.Metadata.FileType, a.Metadata.FileName, a.Metadata.FileSize, a.ExtractedText,
		suggestions, a.Metadata.TextLength, a.Metadata.WordCount, a.Metadata.Pages, a.Metadata.Method,
		a.Metadata.Confidence, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving analysis: %w", err)
	}
	return nil
}

const analysisColumns = `id, content_hash, file_type, file_name, file_size, extracted_text,
	suggestions, text_length, word_count, pages, method, confidence, created_at`

func scanAnalysis(row Row) (*models.Analysis, error) {
	a := &models.Analysis{}
	var suggestions []byte
	err := row.Scan(
		&a.ID, &a.ContentHash, &a.Metadata.FileType, &a.Metadata.FileName, &a.Metadata.FileSize, &a.ExtractedText,
		&suggestions, &a.Metadata.TextLength, &a.Metadata.WordCount, &a.Metadata.Pages, &a.Metadata.Method,
		&a.Metadata.Confidence, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(suggestions, &a.Suggestions); err != nil {
		return nil, fmt.Errorf("decoding suggestions: %w", err)
	}
	return a, nil
}

// Get returns a stored analysis by ID.
func (s *AnalysisService) Get(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE id = $1`,
		id,
	)
	a, err := scanAnalysis(row)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("getting analysis: %w", err)
	}
	return a, nil
}

// List returns the most recent analyses, newest first. The limit is clamped
// to [1, MaxListLimit]; zero or less selects DefaultListLimit.
func (s *AnalysisService) List(ctx context.Context, limit int) ([]*models.Analysis, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+analysisColumns+` FROM analyses ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	analyses := make([]*models.Analysis, 0, limit)
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	return analyses, nil
}

// ContentHash identifies an upload by its media type and bytes.
func ContentHash(mediaType string, data []byte) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(mediaType))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
