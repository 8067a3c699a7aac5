package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nikola-Limpet/rawhash-server/internal/service"
)

type CredentialHandler struct {
	credentials    *service.CredentialService
	transcriptions *service.TranscriptionService
}

func NewCredentialHandler(credentials *service.CredentialService, transcriptions *service.TranscriptionService) *CredentialHandler {
	return &CredentialHandler{credentials: credentials, transcriptions: transcriptions}
}

func (h *CredentialHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.status)
	r.PUT("", h.set)
	r.DELETE("", h.clear)
	r.POST("/validate", h.validate)
}

func (h *CredentialHandler) status(c *gin.Context) {
	status, err := h.credentials.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, status)
}

type credentialPayload struct {
	Secret string `json:"secret" binding:"required"`
}

func (h *CredentialHandler) set(c *gin.Context) {
	var payload credentialPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.credentials.Set(c.Request.Context(), payload.Secret); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CredentialHandler) clear(c *gin.Context) {
	if err := h.credentials.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	status, err := h.credentials.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *CredentialHandler) validate(c *gin.Context) {
	var payload credentialPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	valid := h.transcriptions.ValidateCredential(c.Request.Context(), payload.Secret)
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}
