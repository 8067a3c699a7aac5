package httpapi

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Nikola-Limpet/rawhash-server/internal/app"
	"github.com/Nikola-Limpet/rawhash-server/internal/modes"
	"github.com/Nikola-Limpet/rawhash-server/internal/service"
)

type RecordingHandler struct {
	recordings     *app.RecordingList
	transcriptions *service.TranscriptionService
	uploadDir      string
}

func NewRecordingHandler(recordings *app.RecordingList, transcriptions *service.TranscriptionService, uploadDir string) *RecordingHandler {
	return &RecordingHandler{
		recordings:     recordings,
		transcriptions: transcriptions,
		uploadDir:      uploadDir,
	}
}

func (h *RecordingHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.list)
	r.POST("", h.importFile)
	r.POST("/:id/transcribe", h.transcribe)
	r.DELETE("/:id", h.remove)
}

func (h *RecordingHandler) list(c *gin.Context) {
	c.JSON(http.StatusOK, h.recordings.List())
}

// importFile accepts an uploaded audio file and registers it with unknown
// (zero) duration unless the client supplied one.
func (h *RecordingHandler) importFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}

	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	duration := 0.0
	if raw := c.PostForm("durationSeconds"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			duration = parsed
		}
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	dest := filepath.Join(h.uploadDir, uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, dest); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	rec := h.recordings.Add(dest, mimeType, duration)
	c.JSON(http.StatusCreated, rec)
}

type transcribePayload struct {
	Mode    string `json:"mode"`
	Context string `json:"context"`
}

func (h *RecordingHandler) transcribe(c *gin.Context) {
	// Body is optional; an absent or empty body means raw mode.
	var payload transcribePayload
	_ = c.ShouldBindJSON(&payload)
	mode, err := modes.Parse(payload.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	rec, err := h.recordings.Begin(id)
	if err != nil {
		handleRecordingError(c, err)
		return
	}

	audio, err := os.ReadFile(rec.SourceURI)
	if err != nil {
		h.recordings.Fail(id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recording file unreadable"})
		return
	}

	result, err := h.transcriptions.TranscribeAndProcess(
		c.Request.Context(), currentUser(c).ID, audio, rec.MimeType, mode, payload.Context, rec.DurationSeconds)
	if err != nil {
		h.recordings.Fail(id)
		handleTranscriptionError(c, err)
		return
	}

	updated, err := h.recordings.Complete(id, result)
	if err != nil {
		handleRecordingError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type processTextPayload struct {
	Text    string `json:"text" binding:"required"`
	Mode    string `json:"mode"`
	Context string `json:"context"`
}

func (h *RecordingHandler) processText(c *gin.Context) {
	var payload processTextPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode, err := modes.Parse(payload.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.transcriptions.ProcessText(c.Request.Context(), currentUser(c).ID, payload.Text, mode, payload.Context)
	if err != nil {
		handleTranscriptionError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RecordingHandler) listHistory(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	history, err := h.transcriptions.ListHistory(c.Request.Context(), currentUser(c).ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *RecordingHandler) getHistory(c *gin.Context) {
	entry, err := h.transcriptions.GetHistory(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrHistoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *RecordingHandler) remove(c *gin.Context) {
	if err := h.recordings.Delete(c.Param("id")); err != nil {
		handleRecordingError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func handleRecordingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrRecordingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, app.ErrAlreadyTranscribing):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func handleTranscriptionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoCredential):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrProviderNotSupported):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
