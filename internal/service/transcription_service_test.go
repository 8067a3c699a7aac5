package service

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/Nikola-Limpet/rawhash-server/internal/config"
	"github.com/Nikola-Limpet/rawhash-server/internal/domain"
	"github.com/Nikola-Limpet/rawhash-server/internal/keystore"
	"github.com/Nikola-Limpet/rawhash-server/internal/modes"
	"github.com/Nikola-Limpet/rawhash-server/internal/providers"
	"github.com/Nikola-Limpet/rawhash-server/internal/repository"
	"github.com/Nikola-Limpet/rawhash-server/internal/storage"
)

type memCredentialRepo struct {
	value   string
	present bool
}

func (m *memCredentialRepo) Get(ctx context.Context) (string, error) {
	if !m.present {
		return "", sql.ErrNoRows
	}
	return m.value, nil
}

func (m *memCredentialRepo) Set(ctx context.Context, encrypted string) error {
	m.value, m.present = encrypted, true
	return nil
}

func (m *memCredentialRepo) Delete(ctx context.Context) error {
	m.value, m.present = "", false
	return nil
}

// countingClient counts outbound calls so tests can assert that the
// no-credential precondition fires before any network traffic.
type countingClient struct {
	calls    atomic.Int64
	response domain.ProcessedResult
	rawText  string
	valid    bool
}

func (c *countingClient) ValidateCredential(ctx context.Context, secret string) bool {
	c.calls.Add(1)
	return c.valid
}

func (c *countingClient) Transcribe(ctx context.Context, req providers.TranscribeRequest) (string, error) {
	c.calls.Add(1)
	return c.rawText, nil
}

func (c *countingClient) TranscribeAndProcess(ctx context.Context, req providers.TranscribeRequest) (domain.ProcessedResult, error) {
	c.calls.Add(1)
	return c.response, nil
}

func (c *countingClient) ProcessText(ctx context.Context, req providers.ProcessTextRequest) (domain.ProcessedResult, error) {
	c.calls.Add(1)
	return c.response, nil
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.NewSQLite(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestNoCredentialFailsBeforeAnyNetworkCall(t *testing.T) {
	t.Parallel()

	client := &countingClient{}
	registry := providers.NewRegistry()
	registry.Register("gemini", client)

	store := keystore.New(&memCredentialRepo{}, "k", "")
	svc := NewTranscriptionService(store, registry, nil, "gemini", false, slog.Default())

	_, err := svc.TranscribeAndProcess(context.Background(), "", []byte("audio"), "audio/wav", modes.ModeClean, "", 0)
	if err != ErrNoCredential {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
	if got := client.calls.Load(); got != 0 {
		t.Fatalf("no network call may be issued without a credential, got %d", got)
	}
}

func TestDemoModeFabricatesWithoutCredential(t *testing.T) {
	t.Parallel()

	real := &countingClient{}
	registry := providers.NewRegistry()
	registry.Register("gemini", real)
	registry.Register(DemoProvider, providers.DemoClient{})

	store := keystore.New(&memCredentialRepo{}, "k", "")
	svc := NewTranscriptionService(store, registry, nil, "gemini", true, slog.Default())

	result, err := svc.TranscribeAndProcess(context.Background(), "", []byte("audio"), "audio/wav", modes.ModeKeyPoints, "", 0)
	if err != nil {
		t.Fatalf("demo mode should not fail: %v", err)
	}
	if len(result.KeyPoints) == 0 {
		t.Fatalf("demo keypoints result should carry fabricated points")
	}
	if got := real.calls.Load(); got != 0 {
		t.Fatalf("demo mode must not touch the real provider, got %d calls", got)
	}
}

func TestEnvironmentCredentialEnablesTranscription(t *testing.T) {
	t.Parallel()

	client := &countingClient{rawText: "hello from the mic"}
	registry := providers.NewRegistry()
	registry.Register("gemini", client)

	store := keystore.New(&memCredentialRepo{}, "k", "env-secret")
	svc := NewTranscriptionService(store, registry, nil, "gemini", false, slog.Default())

	text, err := svc.Transcribe(context.Background(), []byte("audio"), "audio/wav")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "hello from the mic" {
		t.Fatalf("unexpected transcription %q", text)
	}
	if got := client.calls.Load(); got != 1 {
		t.Fatalf("exactly one outbound call expected, got %d", got)
	}
}

func TestHistoryRecordedPerUser(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	logs := repository.NewTranscriptionLogRepository(db)
	user, err := repository.NewUserRepository(db).Create(context.Background(), "Ada", "ada@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	client := &countingClient{response: domain.ProcessedResult{OriginalText: "o", ProcessedText: "p"}}
	registry := providers.NewRegistry()
	registry.Register("gemini", client)

	store := keystore.New(&memCredentialRepo{}, "k", "env-secret")
	svc := NewTranscriptionService(store, registry, logs, "gemini", false, slog.Default())

	if _, err := svc.TranscribeAndProcess(context.Background(), user.ID, []byte("a"), "audio/wav", modes.ModeClean, "", 3.5); err != nil {
		t.Fatalf("transcribe and process: %v", err)
	}

	history, err := svc.ListHistory(context.Background(), user.ID, 10)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 1 || history[0].Mode != "clean" || history[0].DurationSeconds != 3.5 {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestValidateCredentialDelegatesToProvider(t *testing.T) {
	t.Parallel()

	client := &countingClient{valid: true}
	registry := providers.NewRegistry()
	registry.Register("gemini", client)

	svc := NewTranscriptionService(keystore.New(&memCredentialRepo{}, "k", ""), registry, nil, "gemini", false, slog.Default())
	if !svc.ValidateCredential(context.Background(), "candidate") {
		t.Fatalf("expected provider validation to pass through")
	}
}
