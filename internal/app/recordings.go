// Package app holds the in-memory recording list backing the UI. Entries
// are deliberately not persisted; they last for the process lifetime only.
package app

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Nikola-Limpet/rawhash-server/internal/domain"
)

var (
	ErrRecordingNotFound   = errors.New("recording not found")
	ErrAlreadyTranscribing = errors.New("transcription already in progress")
)

type Logger interface {
	Info(msg string, args ...any)
}

type RecordingList struct {
	logger Logger

	mu    sync.RWMutex
	items map[string]domain.Recording
}

func NewRecordingList(logger Logger) *RecordingList {
	return &RecordingList{
		logger: logger,
		items:  make(map[string]domain.Recording),
	}
}

func (l *RecordingList) List() []domain.Recording {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]domain.Recording, 0, len(l.items))
	for _, item := range l.items {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// Add registers a finished or imported recording. Duration is 0 when
// unknown, e.g. for imported files.
func (l *RecordingList) Add(sourceURI, mimeType string, durationSeconds float64) domain.Recording {
	rec := domain.Recording{
		ID:                 uuid.NewString(),
		SourceURI:          sourceURI,
		DurationSeconds:    durationSeconds,
		MimeType:           mimeType,
		CreatedAt:          time.Now().UTC(),
		TranscriptionState: domain.TranscriptionNotStarted,
	}

	l.mu.Lock()
	l.items[rec.ID] = rec
	l.mu.Unlock()

	l.logInfo("recording added", "id", rec.ID, "mime", mimeType)
	return rec
}

func (l *RecordingList) Get(id string) (domain.Recording, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.items[id]
	if !ok {
		return domain.Recording{}, ErrRecordingNotFound
	}
	return rec, nil
}

// Begin marks an entry in_progress, guarding against double submission of
// the same recording.
func (l *RecordingList) Begin(id string) (domain.Recording, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.items[id]
	if !ok {
		return domain.Recording{}, ErrRecordingNotFound
	}
	if rec.TranscriptionState == domain.TranscriptionInProgress {
		return domain.Recording{}, ErrAlreadyTranscribing
	}
	rec.TranscriptionState = domain.TranscriptionInProgress
	rec.Result = nil
	l.items[id] = rec
	return rec, nil
}

// Complete attaches a result and marks the entry done.
func (l *RecordingList) Complete(id string, result domain.ProcessedResult) (domain.Recording, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.items[id]
	if !ok {
		return domain.Recording{}, ErrRecordingNotFound
	}
	rec.TranscriptionState = domain.TranscriptionDone
	rec.Result = &result
	l.items[id] = rec
	return rec, nil
}

// Fail marks the entry failed; the user may re-submit it manually.
func (l *RecordingList) Fail(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.items[id]
	if !ok {
		return
	}
	rec.TranscriptionState = domain.TranscriptionFailed
	rec.Result = nil
	l.items[id] = rec
}

func (l *RecordingList) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.items[id]; !ok {
		return ErrRecordingNotFound
	}
	delete(l.items, id)
	return nil
}

func (l *RecordingList) logInfo(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Info(msg, args...)
	}
}
