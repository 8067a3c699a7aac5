package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Nikola-Limpet/rawhash-server/internal/app"
	"github.com/Nikola-Limpet/rawhash-server/internal/service"
)

const userKey = "httpapi.user"

type Deps struct {
	Auth           *service.AuthService
	Credentials    *service.CredentialService
	Transcriptions *service.TranscriptionService
	Recordings     *app.RecordingList
	UploadDir      string
}

func NewRouter(deps Deps) http.Handler {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	authHandler := NewAuthHandler(deps.Auth)
	credentialHandler := NewCredentialHandler(deps.Credentials, deps.Transcriptions)
	recordingHandler := NewRecordingHandler(deps.Recordings, deps.Transcriptions, deps.UploadDir)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		authHandler.RegisterRoutes(api.Group("/auth"), authRequired(deps.Auth))

		authed := api.Group("")
		authed.Use(authRequired(deps.Auth))
		{
			credentialHandler.RegisterRoutes(authed.Group("/credential"))
			recordingHandler.RegisterRoutes(authed.Group("/recordings"))
			authed.POST("/transcriptions/text", recordingHandler.processText)
			authed.GET("/history", recordingHandler.listHistory)
			authed.GET("/history/:id", recordingHandler.getHistory)
		}
	}

	return r
}

// authRequired resolves the bearer token into the current user.
func authRequired(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		user, _, err := auth.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}
