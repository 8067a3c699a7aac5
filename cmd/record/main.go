// Command record captures audio from the default microphone, writes it to a
// WAV file, and optionally transcribes it straight away.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nikola-Limpet/rawhash-server/internal/config"
	"github.com/Nikola-Limpet/rawhash-server/internal/modes"
	"github.com/Nikola-Limpet/rawhash-server/internal/providers"
	"github.com/Nikola-Limpet/rawhash-server/internal/recorder"
)

func main() {
	modeFlag := flag.String("mode", "raw", "processing mode: raw, clean, summary, keypoints, professional, concise")
	contextFlag := flag.String("context", "", "optional free-text context prepended to the prompt")
	noTranscribe := flag.Bool("no-transcribe", false, "record only, skip transcription")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := config.Load()

	mode, err := modes.Parse(*modeFlag)
	if err != nil {
		logger.Error("invalid mode", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := recorder.NewSession(
		recorder.NewPortAudioDevice(),
		recorder.CaptureConfig{SampleRate: cfg.Audio.SampleRate, Channels: cfg.Audio.Channels},
		cfg.Audio.OutputDir,
	)
	defer session.Close()

	if err := session.RequestPermission(ctx); err != nil {
		logger.Error("microphone unavailable", slog.Any("error", err))
		os.Exit(1)
	}
	if err := session.Start(ctx); err != nil {
		logger.Error("failed to start recording", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Println("Recording... press Enter to stop.")
	enter := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		close(enter)
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-ticker.C:
			snap := session.Snapshot()
			fmt.Printf("\r%6.1fs  level %.2f ", snap.Elapsed.Seconds(), snap.SignalLevel)
		case <-enter:
			break loop
		case <-ctx.Done():
			break loop
		}
	}
	fmt.Println()

	path, err := session.Stop()
	if err != nil {
		logger.Error("failed to stop recording", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Printf("Saved %s (%.1fs)\n", path, session.Duration().Seconds())

	if *noTranscribe {
		return
	}
	if cfg.Gemini.APIKey == "" {
		logger.Error("no API credential configured; set GEMINI_API_KEY or pass -no-transcribe")
		os.Exit(1)
	}

	audio, err := os.ReadFile(path)
	if err != nil {
		logger.Error("failed to read recording", slog.Any("error", err))
		os.Exit(1)
	}

	client := providers.NewGeminiClient(cfg.Gemini.APIBase, cfg.Gemini.Model)
	result, err := client.TranscribeAndProcess(ctx, providers.TranscribeRequest{
		Audio:      audio,
		MimeType:   "audio/wav",
		Mode:       mode,
		Context:    *contextFlag,
		Credential: cfg.Gemini.APIKey,
	})
	if err != nil {
		logger.Error("transcription failed", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Println("\n--- transcription ---")
	fmt.Println(result.ProcessedText)
	if result.Summary != "" {
		fmt.Println("\n--- summary ---")
		fmt.Println(result.Summary)
	}
	if len(result.KeyPoints) > 0 {
		fmt.Println("\n--- key points ---")
		for _, point := range result.KeyPoints {
			fmt.Printf("  • %s\n", point)
		}
	}
}
