package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/postcoach/internal/suggest"
)

// Analysis is the result of running the suggestion engine over one post.
type Analysis struct {
	ID            uuid.UUID            `json:"id"`
	ExtractedText string               `json:"extractedText"`
	Suggestions   []suggest.Suggestion `json:"suggestions"`
	Metadata      AnalysisMetadata     `json:"metadata"`
	ContentHash   string               `json:"contentHash,omitempty"`
	Cached        bool                 `json:"cached"`
	CreatedAt     time.Time            `json:"createdAt"`
}

type AnalysisMetadata struct {
	FileType   string  `json:"fileType"`
	FileName   string  `json:"fileName,omitempty"`
	FileSize   int64   `json:"fileSize,omitempty"`
	TextLength int     `json:"textLength"`
	WordCount  int     `json:"wordCount"`
	Pages      int     `json:"pages,omitempty"`
	Method     string  `json:"method,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// AnalysisSummary is the list view of a stored analysis.
type AnalysisSummary struct {
	ID              uuid.UUID `json:"id"`
	FileType        string    `json:"fileType"`
	FileName        string    `json:"fileName,omitempty"`
	WordCount       int       `json:"wordCount"`
	SuggestionCount int       `json:"suggestionCount"`
	Preview         string    `json:"preview"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Upload is a file submitted for analysis.
type Upload struct {
	FileName  string
	MediaType string
	Data      []byte
}

// Media types accepted by the upload form.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"
	MediaTypeText = "text/plain"
)

var AllowedUploadTypes = []string{
	MediaTypePDF,
	MediaTypeJPEG,
	MediaTypePNG,
}

const previewLength = 120

// Summary builds the list view of a.
func (a *Analysis) Summary() AnalysisSummary {
	preview := []rune(a.ExtractedText)
	if len(preview) > previewLength {
		preview = append(preview[:previewLength], '…')
	}
	return AnalysisSummary{
		ID:              a.ID,
		FileType:        a.Metadata.FileType,
		FileName:        a.Metadata.FileName,
		WordCount:       a.Metadata.WordCount,
		SuggestionCount: len(a.Suggestions),
		Preview:         string(preview),
		CreatedAt:       a.CreatedAt,
	}
}
