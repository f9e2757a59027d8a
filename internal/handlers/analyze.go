package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/HammerMeetNail/postcoach/internal/extract"
	"github.com/HammerMeetNail/postcoach/internal/logging"
	"github.com/HammerMeetNail/postcoach/internal/models"
	"github.com/HammerMeetNail/postcoach/internal/services"
)

const (
	msgNoFile          = "No file uploaded"
	msgEmptyFile       = "The uploaded file is empty"
	msgUnsupportedType = "Please upload a PDF or image file (JPG, PNG)"
	msgNoText          = "Could not extract text from the file. Please ensure the file contains readable text."
	msgAnalyzeFailed   = "Failed to analyze file. Please try again."
	msgInvalidBody     = "Invalid request body"
	msgTextRequired    = "Text is required"
)

// multipartOverhead covers the form boundaries and part headers around the
// uploaded file.
const multipartOverhead = 1 << 20

const multipartMemory = 32 << 20

type AnalyzeTextRequest struct {
	Text string `json:"text"`
}

type AnalysisHandler struct {
	service        services.AnalysisServiceInterface
	maxUploadBytes int64
	logger         *logging.Logger
}

func NewAnalysisHandler(service services.AnalysisServiceInterface, maxUploadBytes int64, logger *logging.Logger) *AnalysisHandler {
	if logger == nil {
		logger = logging.Default
	}
	return &AnalysisHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Analyze accepts a multipart upload in the "file" field and returns the
// extracted text with its suggestions.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, h.tooLargeMessage())
			return
		}
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		loggerFor(r.Context(), h.logger).Error("Failed to read upload", map[string]interface{}{
			"error": err.Error(),
		})
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, h.tooLargeMessage())
		return
	}

	upload := models.Upload{
		FileName:  header.Filename,
		MediaType: uploadMediaType(header, data),
		Data:      data,
	}

	analysis, err := h.service.Analyze(r.Context(), upload)
	if err != nil {
		h.writeAnalyzeError(w, r, err, msgNoText)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// AnalyzeText runs the suggestions over pasted text.
func (h *AnalysisHandler) AnalyzeText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	var req AnalyzeTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, h.tooLargeMessage())
			return
		}
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, msgTextRequired)
		return
	}

	analysis, err := h.service.AnalyzeText(r.Context(), req.Text)
	if err != nil {
		h.writeAnalyzeError(w, r, err, msgTextRequired)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

func (h *AnalysisHandler) writeAnalyzeError(w http.ResponseWriter, r *http.Request, err error, noTextMessage string) {
	switch {
	case errors.Is(err, services.ErrEmptyUpload):
		writeError(w, http.StatusBadRequest, msgEmptyFile)
	case errors.Is(err, services.ErrUploadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, h.tooLargeMessage())
	case errors.Is(err, services.ErrUnsupportedFileType):
		writeError(w, http.StatusBadRequest, msgUnsupportedType)
	case errors.Is(err, services.ErrNoText),
		errors.Is(err, extract.ErrNoText),
		errors.Is(err, extract.ErrExtractionFailed):
		loggerFor(r.Context(), h.logger).Warn("No text extracted", map[string]interface{}{
			"error": err.Error(),
		})
		writeError(w, http.StatusBadRequest, noTextMessage)
	default:
		loggerFor(r.Context(), h.logger).Error("Analysis failed", map[string]interface{}{
			"error": err.Error(),
		})
		writeError(w, http.StatusInternalServerError, msgAnalyzeFailed)
	}
}

func (h *AnalysisHandler) tooLargeMessage() string {
	if h.maxUploadBytes >= 1<<20 {
		return fmt.Sprintf("File size must be less than %dMB", h.maxUploadBytes>>20)
	}
	return fmt.Sprintf("File size must be less than %dKB", (h.maxUploadBytes+1023)>>10)
}

// uploadMediaType trusts the part's declared type unless it is missing or
// generic, in which case the content is sniffed.
func uploadMediaType(header *multipart.FileHeader, data []byte) string {
	declared := strings.TrimSpace(header.Header.Get("Content-Type"))
	if declared != "" && extract.NormalizeMediaType(declared) != "application/octet-stream" {
		return declared
	}
	return http.DetectContentType(data)
}
