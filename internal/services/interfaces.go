package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/postcoach/internal/models"
)

// AnalysisServiceInterface defines the contract for analysis operations used by handlers.
type AnalysisServiceInterface interface {
	Analyze(ctx context.Context, upload models.Upload) (*models.Analysis, error)
	AnalyzeText(ctx context.Context, text string) (*models.Analysis, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Analysis, error)
	List(ctx context.Context, limit int) ([]*models.Analysis, error)
}

var _ AnalysisServiceInterface = (*AnalysisService)(nil)

var (
	_ DBConn      = (*PoolAdapter)(nil)
	_ RedisClient = (*RedisAdapter)(nil)
)
