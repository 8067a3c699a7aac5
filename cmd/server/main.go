package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Nikola-Limpet/rawhash-server/internal/app"
	"github.com/Nikola-Limpet/rawhash-server/internal/config"
	"github.com/Nikola-Limpet/rawhash-server/internal/httpapi"
	"github.com/Nikola-Limpet/rawhash-server/internal/keystore"
	"github.com/Nikola-Limpet/rawhash-server/internal/providers"
	"github.com/Nikola-Limpet/rawhash-server/internal/repository"
	"github.com/Nikola-Limpet/rawhash-server/internal/server"
	"github.com/Nikola-Limpet/rawhash-server/internal/service"
	"github.com/Nikola-Limpet/rawhash-server/internal/storage"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := storage.RunMigrations(ctx, db); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	registry := providers.NewRegistry()
	registry.Register("gemini", providers.NewGeminiClient(cfg.Gemini.APIBase, cfg.Gemini.Model))
	registry.Register("whisper", providers.NewWhisperClient(cfg.Whisper.BaseURL, cfg.Whisper.Model))
	registry.Register(service.DemoProvider, providers.DemoClient{})

	store := keystore.New(repository.NewCredentialRepository(db), cfg.EncryptionKey, cfg.Gemini.APIKey)

	auth := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewUserSessionRepository(db),
		cfg.SessionTTL,
	)
	transcriptions := service.NewTranscriptionService(
		store,
		registry,
		repository.NewTranscriptionLogRepository(db),
		"gemini",
		cfg.DemoMode,
		logger,
	)

	handler := httpapi.NewRouter(httpapi.Deps{
		Auth:           auth,
		Credentials:    service.NewCredentialService(store),
		Transcriptions: transcriptions,
		Recordings:     app.NewRecordingList(logger),
		UploadDir:      filepath.Join(cfg.Audio.OutputDir, "uploads"),
	})

	srv := server.New(cfg, handler, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}
