package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/postcoach/internal/models"
	"github.com/HammerMeetNail/postcoach/internal/testutil"
)

type mockAnalysisService struct {
	AnalyzeFunc     func(ctx context.Context, upload models.Upload) (*models.Analysis, error)
	AnalyzeTextFunc func(ctx context.Context, text string) (*models.Analysis, error)
	GetFunc         func(ctx context.Context, id uuid.UUID) (*models.Analysis, error)
	ListFunc        func(ctx context.Context, limit int) ([]*models.Analysis, error)
}

func (m *mockAnalysisService) Analyze(ctx context.Context, upload models.Upload) (*models.Analysis, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, upload)
	}
	return nil, nil
}

func (m *mockAnalysisService) AnalyzeText(ctx context.Context, text string) (*models.Analysis, error) {
	if m.AnalyzeTextFunc != nil {
		return m.AnalyzeTextFunc(ctx, text)
	}
	return nil, nil
}

func (m *mockAnalysisService) Get(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAnalysisService) List(ctx context.Context, limit int) ([]*models.Analysis, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit)
	}
	return nil, nil
}

func assertErrorResponse(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d", status, rr.Code)
	}
	if ct := rr.Result().Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected content type application/json, got %q", ct)
	}

	var response ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Error != message {
		t.Fatalf("expected error %q, got %q", message, response.Error)
	}
}

func newUploadRequest(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	return testutil.NewMultipartRequest(t, "/api/analyze", testutil.FilePart{
		Field:       field,
		FileName:    filename,
		ContentType: contentType,
		Data:        data,
	})
}
