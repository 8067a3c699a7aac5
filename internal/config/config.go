package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort        string
	ShutdownTimeout time.Duration
	Database        DatabaseConfig
	Gemini          GeminiConfig
	Whisper         WhisperConfig
	DemoMode        bool
	EncryptionKey   string
	SessionTTL      time.Duration
	Audio           AudioConfig
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string
	// DSN is used by the postgres driver.
	DSN string
	// Path is the sqlite database file.
	Path string
}

type GeminiConfig struct {
	APIBase string
	Model   string
	// APIKey is the environment-provided default credential; a user-entered
	// credential in the key store takes precedence.
	APIKey string
}

type WhisperConfig struct {
	BaseURL string
	Model   string
}

type AudioConfig struct {
	SampleRate int
	Channels   int
	OutputDir  string
}

func Load() Config {
	cfg := Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:    os.Getenv("DATABASE_URL"),
			Path:   getEnv("SQLITE_PATH", "data/rawhash.db"),
		},
		Gemini: GeminiConfig{
			APIBase: getEnv("GEMINI_API_BASE", "https://generativelanguage.googleapis.com/v1beta"),
			Model:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			APIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		},
		Whisper: WhisperConfig{
			BaseURL: strings.TrimSpace(os.Getenv("WHISPER_API_BASE")),
			Model:   getEnv("WHISPER_MODEL", "whisper-1"),
		},
		DemoMode:      getBool("DEMO_MODE", false),
		EncryptionKey: getEnv("ENCRYPTION_KEY", "rawhash-dev-key"),
		SessionTTL:    getDuration("SESSION_TTL", 365*24*time.Hour),
		Audio: AudioConfig{
			SampleRate: getInt("AUDIO_SAMPLE_RATE", 16000),
			Channels:   getInt("AUDIO_CHANNELS", 1),
			OutputDir:  getEnv("AUDIO_OUTPUT_DIR", "recordings"),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
