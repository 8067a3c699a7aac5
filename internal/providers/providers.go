package providers

import (
	"context"
	"strings"

	"github.com/Nikola-Limpet/rawhash-server/internal/domain"
	"github.com/Nikola-Limpet/rawhash-server/internal/modes"
)

// TranscribeRequest carries one audio payload and the processing selection
// for a single outbound call. Credential is resolved per call; clients keep
// no mutable state between requests.
type TranscribeRequest struct {
	Audio      []byte
	MimeType   string
	Mode       modes.Mode
	Context    string
	Credential string
}

// ProcessTextRequest applies a processing mode to already-transcribed text.
type ProcessTextRequest struct {
	Text       string
	Mode       modes.Mode
	Context    string
	Credential string
}

// SpeechClient is a transcription provider. Every operation issues at most
// one outbound request; there is no retry or backoff.
type SpeechClient interface {
	// ValidateCredential performs a lightweight read-only call with the
	// candidate secret. Any non-success status or transport failure reports
	// false; it never returns an error.
	ValidateCredential(ctx context.Context, secret string) bool
	// Transcribe returns the raw transcription text.
	Transcribe(ctx context.Context, req TranscribeRequest) (string, error)
	// TranscribeAndProcess transcribes and applies the mode's transformation
	// in a single request.
	TranscribeAndProcess(ctx context.Context, req TranscribeRequest) (domain.ProcessedResult, error)
	// ProcessText applies the mode's transformation to existing text.
	ProcessText(ctx context.Context, req ProcessTextRequest) (domain.ProcessedResult, error)
}

// Registry maps provider names to clients.
type Registry struct {
	clients map[string]SpeechClient
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]SpeechClient)}
}

func (r *Registry) Register(name string, client SpeechClient) {
	r.clients[strings.ToLower(name)] = client
}

func (r *Registry) Client(name string) (SpeechClient, bool) {
	client, ok := r.clients[strings.ToLower(name)]
	return client, ok
}
