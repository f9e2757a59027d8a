package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/postcoach/internal/models"
	"github.com/HammerMeetNail/postcoach/internal/services"
)

type AnalysisListResponse struct {
	Analyses []models.AnalysisSummary `json:"analyses"`
}

// List returns recent analyses, newest first.
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := services.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	analyses, err := h.service.List(r.Context(), limit)
	if err != nil {
		loggerFor(r.Context(), h.logger).Error("Failed to list analyses", map[string]interface{}{
			"error": err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "Failed to load analyses")
		return
	}

	summaries := make([]models.AnalysisSummary, 0, len(analyses))
	for _, a := range analyses {
		summaries = append(summaries, a.Summary())
	}
	writeJSON(w, http.StatusOK, AnalysisListResponse{Analyses: summaries})
}

func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid analysis ID")
		return
	}

	analysis, err := h.service.Get(r.Context(), id)
	if errors.Is(err, services.ErrAnalysisNotFound) {
		writeError(w, http.StatusNotFound, "Analysis not found")
		return
	}
	if err != nil {
		loggerFor(r.Context(), h.logger).Error("Failed to get analysis", map[string]interface{}{
			"error":       err.Error(),
			"analysis_id": id.String(),
		})
		writeError(w, http.StatusInternalServerError, "Failed to load analysis")
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}
