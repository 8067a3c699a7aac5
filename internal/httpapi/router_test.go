package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nikola-Limpet/rawhash-server/internal/app"
	"github.com/Nikola-Limpet/rawhash-server/internal/config"
	"github.com/Nikola-Limpet/rawhash-server/internal/domain"
	"github.com/Nikola-Limpet/rawhash-server/internal/keystore"
	"github.com/Nikola-Limpet/rawhash-server/internal/providers"
	"github.com/Nikola-Limpet/rawhash-server/internal/repository"
	"github.com/Nikola-Limpet/rawhash-server/internal/service"
	"github.com/Nikola-Limpet/rawhash-server/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubClient struct {
	result domain.ProcessedResult
	valid  bool
}

func (s stubClient) ValidateCredential(ctx context.Context, secret string) bool { return s.valid }

func (s stubClient) Transcribe(ctx context.Context, req providers.TranscribeRequest) (string, error) {
	return s.result.OriginalText, nil
}

func (s stubClient) TranscribeAndProcess(ctx context.Context, req providers.TranscribeRequest) (domain.ProcessedResult, error) {
	return s.result, nil
}

func (s stubClient) ProcessText(ctx context.Context, req providers.ProcessTextRequest) (domain.ProcessedResult, error) {
	return s.result, nil
}

func newTestRouter(t *testing.T, envCredential string, client providers.SpeechClient) http.Handler {
	t.Helper()

	db, err := storage.NewSQLite(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "api.db")})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	registry := providers.NewRegistry()
	registry.Register("gemini", client)

	store := keystore.New(repository.NewCredentialRepository(db), "test-key", envCredential)
	logger := slog.Default()

	return NewRouter(Deps{
		Auth: service.NewAuthService(
			repository.NewUserRepository(db),
			repository.NewUserSessionRepository(db),
			time.Hour,
		),
		Credentials: service.NewCredentialService(store),
		Transcriptions: service.NewTranscriptionService(
			store, registry, repository.NewTranscriptionLogRepository(db), "gemini", false, logger),
		Recordings: app.NewRecordingList(logger),
		UploadDir:  t.TempDir(),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, router http.Handler) string {
	t.Helper()
	resp := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "Ada", "email": "ada@example.com", "password": "hunter2hunter2",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", resp.Code, resp.Body.String())
	}
	resp = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "ada@example.com", "password": "hunter2hunter2",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("login: %d %s", resp.Code, resp.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil || out.Token == "" {
		t.Fatalf("login token missing: %v %s", err, resp.Body.String())
	}
	return out.Token
}

func uploadRecording(t *testing.T, router http.Handler, token string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "note.wav")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("fake-wav-bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recordings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("import: %d %s", w.Code, w.Body.String())
	}
	var rec domain.Recording
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode recording: %v", err)
	}
	return rec.ID
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, "env-secret", stubClient{})
	if resp := doJSON(t, router, http.MethodGet, "/api/v1/recordings", "", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
}

func TestImportAndTranscribeFlow(t *testing.T) {
	t.Parallel()

	client := stubClient{result: domain.ProcessedResult{
		OriginalText:  "Hello world",
		ProcessedText: "Hello world",
		KeyPoints:     []string{"point A", "point B"},
	}}
	router := newTestRouter(t, "env-secret", client)
	token := registerAndLogin(t, router)
	id := uploadRecording(t, router, token)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/recordings/"+id+"/transcribe", token, gin.H{"mode": "keypoints"})
	if resp.Code != http.StatusOK {
		t.Fatalf("transcribe: %d %s", resp.Code, resp.Body.String())
	}
	var rec domain.Recording
	if err := json.Unmarshal(resp.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.TranscriptionState != domain.TranscriptionDone || rec.Result == nil || len(rec.Result.KeyPoints) != 2 {
		t.Fatalf("unexpected transcribed entry: %s", resp.Body.String())
	}

	history := doJSON(t, router, http.MethodGet, "/api/v1/history", token, nil)
	if history.Code != http.StatusOK || !strings.Contains(history.Body.String(), "keypoints") {
		t.Fatalf("history should record the call: %d %s", history.Code, history.Body.String())
	}

	var entries []domain.TranscriptionLog
	if err := json.Unmarshal(history.Body.Bytes(), &entries); err != nil || len(entries) != 1 {
		t.Fatalf("expected one history entry: %v %s", err, history.Body.String())
	}
	entry := doJSON(t, router, http.MethodGet, "/api/v1/history/"+entries[0].ID, token, nil)
	if entry.Code != http.StatusOK || !strings.Contains(entry.Body.String(), "keypoints") {
		t.Fatalf("history entry lookup: %d %s", entry.Code, entry.Body.String())
	}
	if missing := doJSON(t, router, http.MethodGet, "/api/v1/history/no-such-id", token, nil); missing.Code != http.StatusNotFound {
		t.Fatalf("unknown history entry should be 404, got %d", missing.Code)
	}
}

func TestTranscribeWithoutCredentialIsPreconditionFailure(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, "", stubClient{})
	token := registerAndLogin(t, router)
	id := uploadRecording(t, router, token)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/recordings/"+id+"/transcribe", token, gin.H{"mode": "raw"})
	if resp.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected 412 without credential, got %d %s", resp.Code, resp.Body.String())
	}
}

func TestCredentialLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, "env-secret", stubClient{valid: true})
	token := registerAndLogin(t, router)

	status := doJSON(t, router, http.MethodGet, "/api/v1/credential", token, nil)
	if status.Code != http.StatusOK || !strings.Contains(status.Body.String(), "environment") {
		t.Fatalf("expected environment-origin status: %d %s", status.Code, status.Body.String())
	}

	if resp := doJSON(t, router, http.MethodPut, "/api/v1/credential", token, gin.H{"secret": "user-key"}); resp.Code != http.StatusNoContent {
		t.Fatalf("set credential: %d %s", resp.Code, resp.Body.String())
	}
	status = doJSON(t, router, http.MethodGet, "/api/v1/credential", token, nil)
	if !strings.Contains(status.Body.String(), `"user"`) {
		t.Fatalf("expected user-origin status after set: %s", status.Body.String())
	}

	// Clearing falls back to the environment credential.
	cleared := doJSON(t, router, http.MethodDelete, "/api/v1/credential", token, nil)
	if cleared.Code != http.StatusOK || !strings.Contains(cleared.Body.String(), "environment") {
		t.Fatalf("clear should fall back to environment: %d %s", cleared.Code, cleared.Body.String())
	}

	validate := doJSON(t, router, http.MethodPost, "/api/v1/credential/validate", token, gin.H{"secret": "candidate"})
	if validate.Code != http.StatusOK || !strings.Contains(validate.Body.String(), "true") {
		t.Fatalf("validate: %d %s", validate.Code, validate.Body.String())
	}
}
