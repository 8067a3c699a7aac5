package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/Nikola-Limpet/rawhash-server/internal/domain"
	"github.com/Nikola-Limpet/rawhash-server/internal/keystore"
	"github.com/Nikola-Limpet/rawhash-server/internal/modes"
	"github.com/Nikola-Limpet/rawhash-server/internal/providers"
	"github.com/Nikola-Limpet/rawhash-server/internal/repository"
)

// DemoProvider is the registry name of the credential-free demo client.
const DemoProvider = "demo"

type TranscriptionService struct {
	store    *keystore.Store
	registry *providers.Registry
	logs     *repository.TranscriptionLogRepository
	provider string
	demoMode bool
	logger   *slog.Logger
}

func NewTranscriptionService(
	store *keystore.Store,
	registry *providers.Registry,
	logs *repository.TranscriptionLogRepository,
	provider string,
	demoMode bool,
	logger *slog.Logger,
) *TranscriptionService {
	if provider == "" {
		provider = "gemini"
	}
	return &TranscriptionService{
		store:    store,
		registry: registry,
		logs:     logs,
		provider: provider,
		demoMode: demoMode,
		logger:   logger,
	}
}

// resolve picks the client and credential for one call. The no-credential
// precondition is checked here, before any network traffic; with demo mode
// on it selects the fabricating client instead of failing.
func (s *TranscriptionService) resolve(ctx context.Context) (providers.SpeechClient, string, error) {
	cred, ok, err := s.store.Get(ctx)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		if s.demoMode {
			if client, found := s.registry.Client(DemoProvider); found {
				return client, "", nil
			}
		}
		return nil, "", ErrNoCredential
	}
	client, found := s.registry.Client(s.provider)
	if !found {
		return nil, "", ErrProviderNotSupported
	}
	return client, cred.Value, nil
}

// Transcribe returns the raw transcription of an audio payload.
func (s *TranscriptionService) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	client, credential, err := s.resolve(ctx)
	if err != nil {
		return "", err
	}
	return client.Transcribe(ctx, providers.TranscribeRequest{
		Audio:      audio,
		MimeType:   mimeType,
		Mode:       modes.ModeRaw,
		Credential: credential,
	})
}

// TranscribeAndProcess issues one request for the audio and mode, then
// records the outcome in the user's history.
func (s *TranscriptionService) TranscribeAndProcess(
	ctx context.Context,
	userID string,
	audio []byte,
	mimeType string,
	mode modes.Mode,
	contextText string,
	durationSeconds float64,
) (domain.ProcessedResult, error) {
	client, credential, err := s.resolve(ctx)
	if err != nil {
		return domain.ProcessedResult{}, err
	}

	result, err := client.TranscribeAndProcess(ctx, providers.TranscribeRequest{
		Audio:      audio,
		MimeType:   mimeType,
		Mode:       mode,
		Context:    contextText,
		Credential: credential,
	})
	if err != nil {
		return domain.ProcessedResult{}, err
	}

	s.record(ctx, userID, mode, result, durationSeconds)
	return result, nil
}

// ProcessText applies a mode to already-transcribed text; no audio payload
// is attached.
func (s *TranscriptionService) ProcessText(
	ctx context.Context,
	userID string,
	text string,
	mode modes.Mode,
	contextText string,
) (domain.ProcessedResult, error) {
	client, credential, err := s.resolve(ctx)
	if err != nil {
		return domain.ProcessedResult{}, err
	}

	result, err := client.ProcessText(ctx, providers.ProcessTextRequest{
		Text:       text,
		Mode:       mode,
		Context:    contextText,
		Credential: credential,
	})
	if err != nil {
		return domain.ProcessedResult{}, err
	}

	s.record(ctx, userID, mode, result, 0)
	return result, nil
}

// ValidateCredential checks a candidate secret against the configured
// provider. It reports false on any failure and never errors.
func (s *TranscriptionService) ValidateCredential(ctx context.Context, secret string) bool {
	client, found := s.registry.Client(s.provider)
	if !found {
		return false
	}
	return client.ValidateCredential(ctx, secret)
}

func (s *TranscriptionService) ListHistory(ctx context.Context, userID string, limit int) ([]domain.TranscriptionLog, error) {
	return s.logs.ListByUser(ctx, userID, limit)
}

// GetHistory returns a single history entry scoped to its owner.
func (s *TranscriptionService) GetHistory(ctx context.Context, userID, id string) (domain.TranscriptionLog, error) {
	entry, err := s.logs.GetByID(ctx, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TranscriptionLog{}, ErrHistoryNotFound
	}
	return entry, err
}

func (s *TranscriptionService) record(ctx context.Context, userID string, mode modes.Mode, result domain.ProcessedResult, durationSeconds float64) {
	if s.logs == nil || userID == "" {
		return
	}
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	if _, err := s.logs.Create(ctx, domain.TranscriptionLog{
		UserID:          userID,
		Mode:            string(mode),
		OriginalText:    result.OriginalText,
		ProcessedText:   result.ProcessedText,
		DurationSeconds: durationSeconds,
	}); err != nil && s.logger != nil {
		s.logger.Error("failed to record transcription history", slog.Any("error", err))
	}
}
