package app

import (
	"errors"
	"testing"

	"github.com/Nikola-Limpet/rawhash-server/internal/domain"
)

func TestAddAndList(t *testing.T) {
	t.Parallel()

	list := NewRecordingList(nil)
	first := list.Add("/tmp/a.wav", "audio/wav", 2)
	second := list.Add("/tmp/b.wav", "audio/wav", 0)

	if first.TranscriptionState != domain.TranscriptionNotStarted {
		t.Fatalf("new entries start not_started, got %s", first.TranscriptionState)
	}
	if second.DurationSeconds != 0 {
		t.Fatalf("imported files carry zero duration")
	}
	if got := list.List(); len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
}

func TestBeginGuardsDoubleSubmission(t *testing.T) {
	t.Parallel()

	list := NewRecordingList(nil)
	rec := list.Add("/tmp/a.wav", "audio/wav", 2)

	if _, err := list.Begin(rec.ID); err != nil {
		t.Fatalf("first begin: %v", err)
	}
	if _, err := list.Begin(rec.ID); !errors.Is(err, ErrAlreadyTranscribing) {
		t.Fatalf("second begin should be rejected, got %v", err)
	}
}

func TestCompleteAndFailTransitions(t *testing.T) {
	t.Parallel()

	list := NewRecordingList(nil)
	rec := list.Add("/tmp/a.wav", "audio/wav", 2)

	if _, err := list.Begin(rec.ID); err != nil {
		t.Fatalf("begin: %v", err)
	}
	done, err := list.Complete(rec.ID, domain.ProcessedResult{ProcessedText: "hello"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.TranscriptionState != domain.TranscriptionDone || done.Result == nil {
		t.Fatalf("result should be attached only when done: %+v", done)
	}

	// A failed retry clears the previous result.
	if _, err := list.Begin(rec.ID); err != nil {
		t.Fatalf("retry begin: %v", err)
	}
	list.Fail(rec.ID)
	failed, _ := list.Get(rec.ID)
	if failed.TranscriptionState != domain.TranscriptionFailed || failed.Result != nil {
		t.Fatalf("failed entries carry no result: %+v", failed)
	}

	// Manual re-submission after failure is allowed.
	if _, err := list.Begin(rec.ID); err != nil {
		t.Fatalf("begin after failure: %v", err)
	}
}

func TestDeleteMissing(t *testing.T) {
	t.Parallel()

	list := NewRecordingList(nil)
	if err := list.Delete("nope"); !errors.Is(err, ErrRecordingNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
