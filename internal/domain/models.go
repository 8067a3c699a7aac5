package domain

import "time"

type User struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type UserSession struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	LastUsed  time.Time `db:"last_used_at"`
}

// CredentialOrigin records where the active API secret came from.
type CredentialOrigin string

const (
	CredentialOriginEnvironment CredentialOrigin = "environment"
	CredentialOriginUser        CredentialOrigin = "user"
)

type Credential struct {
	Value  string
	Origin CredentialOrigin
}

// TranscriptionState tracks a recording entry through its single in-flight
// transcription request.
type TranscriptionState string

const (
	TranscriptionNotStarted TranscriptionState = "not_started"
	TranscriptionInProgress TranscriptionState = "in_progress"
	TranscriptionDone       TranscriptionState = "done"
	TranscriptionFailed     TranscriptionState = "failed"
)

type Recording struct {
	ID                 string             `json:"id"`
	SourceURI          string             `json:"sourceUri"`
	DurationSeconds    float64            `json:"durationSeconds"`
	MimeType           string             `json:"mimeType"`
	CreatedAt          time.Time          `json:"createdAt"`
	TranscriptionState TranscriptionState `json:"transcriptionState"`
	Result             *ProcessedResult   `json:"result,omitempty"`
}

// ProcessedResult is the output of one transcription+processing call.
// Exactly one of Summary / KeyPoints is set, or neither, depending on the
// mode that produced it.
type ProcessedResult struct {
	OriginalText  string   `json:"originalText"`
	ProcessedText string   `json:"processedText"`
	Summary       string   `json:"summary,omitempty"`
	KeyPoints     []string `json:"keyPoints,omitempty"`
}

type TranscriptionLog struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"-"`
	Mode            string    `db:"mode" json:"mode"`
	OriginalText    string    `db:"original_text" json:"originalText"`
	ProcessedText   string    `db:"processed_text" json:"processedText"`
	DurationSeconds float64   `db:"duration_seconds" json:"durationSeconds"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}
