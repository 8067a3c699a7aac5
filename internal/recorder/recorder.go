// Package recorder manages the lifecycle of a single audio capture and
// exposes a live snapshot for polling callers.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPermissionDenied   = errors.New("microphone permission denied")
	ErrDeviceUnavailable  = errors.New("audio device unavailable")
	ErrNoActiveRecording  = errors.New("no recording in progress")
	ErrInvalidTransition  = errors.New("invalid recording state transition")
	ErrPermissionNotAsked = errors.New("microphone permission not requested")
	ErrSessionAlreadyDone = errors.New("recording session already stopped")
)

// State models the capture lifecycle:
// idle -> preparing -> recording <-> paused -> stopped.
type State string

const (
	StateIdle      State = "idle"
	StatePreparing State = "preparing"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
)

// CaptureConfig describes how the microphone should be captured.
type CaptureConfig struct {
	SampleRate int
	Channels   int
}

// Stream is a live capture delivering int16 PCM chunks. Read blocks until a
// chunk is available or the stream is closed.
type Stream interface {
	Read() ([]int16, error)
	Close() error
}

// Device opens capture streams. RequestAccess surfaces the platform
// permission prompt; it must succeed before Open.
type Device interface {
	RequestAccess(ctx context.Context) error
	Open(ctx context.Context, cfg CaptureConfig) (Stream, error)
}

// Snapshot is the polled view of an active session.
type Snapshot struct {
	State       State         `json:"state"`
	Elapsed     time.Duration `json:"elapsed"`
	SignalLevel float64       `json:"signalLevel"`
	Recording   bool          `json:"recording"`
	Paused      bool          `json:"paused"`
}

// Session owns one recording attempt. Stopped is terminal; construct a new
// session for the next recording.
type Session struct {
	device    Device
	cfg       CaptureConfig
	outputDir string
	now       func() time.Time
	tick      time.Duration

	mu          sync.Mutex
	state       State
	granted     bool
	stream      Stream
	frames      []int16
	startedAt   time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
	level       float64
	outputPath  string
	tickStop    chan struct{}
	readerDone  chan struct{}
}

// Option tweaks session behavior; used by tests to control time.
type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithTickInterval(d time.Duration) Option {
	return func(s *Session) { s.tick = d }
}

func NewSession(device Device, cfg CaptureConfig, outputDir string, opts ...Option) *Session {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	s := &Session{
		device:    device,
		cfg:       cfg,
		outputDir: outputDir,
		now:       time.Now,
		tick:      100 * time.Millisecond,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestPermission must be called, and succeed, before Start.
func (s *Session) RequestPermission(ctx context.Context) error {
	if err := s.device.RequestAccess(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	s.mu.Lock()
	s.granted = true
	s.mu.Unlock()
	return nil
}

// Start transitions idle -> preparing -> recording and begins the periodic
// snapshot refresh. A failed start restores the idle state.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return ErrSessionAlreadyDone
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.state)
	}
	if !s.granted {
		s.mu.Unlock()
		return ErrPermissionNotAsked
	}
	s.state = StatePreparing
	s.mu.Unlock()

	stream, err := s.device.Open(ctx, s.cfg)
	if err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	s.mu.Lock()
	s.stream = stream
	s.startedAt = s.now()
	s.pausedTotal = 0
	s.state = StateRecording
	s.readerDone = make(chan struct{})
	s.startTickLocked()
	s.mu.Unlock()

	go s.readLoop(stream, s.readerDone)
	return nil
}

// Pause suspends capture. The refresh timer is cancelled until Resume.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return fmt.Errorf("%w: pause from %s", ErrInvalidTransition, s.state)
	}
	s.state = StatePaused
	s.pausedAt = s.now()
	s.stopTickLocked()
	return nil
}

// Resume rebuilds the elapsed-time baseline so the pause gap is excluded.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return fmt.Errorf("%w: resume from %s", ErrInvalidTransition, s.state)
	}
	s.pausedTotal += s.now().Sub(s.pausedAt)
	s.state = StateRecording
	s.startTickLocked()
	return nil
}

// Stop finalizes the capture and returns the output file path. A failed
// finalize restores the prior state so the caller can retry.
func (s *Session) Stop() (string, error) {
	s.mu.Lock()
	prior := s.state
	if prior != StateRecording && prior != StatePaused {
		s.mu.Unlock()
		return "", ErrNoActiveRecording
	}
	priorPausedAt := s.pausedAt
	priorPausedTotal := s.pausedTotal
	if prior == StatePaused {
		s.pausedTotal += s.now().Sub(s.pausedAt)
	}
	s.stopTickLocked()
	stream := s.stream
	s.stream = nil
	done := s.readerDone
	s.mu.Unlock()

	if stream != nil {
		_ = stream.Close()
	}
	if done != nil {
		<-done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	path, err := s.writeOutput()
	if err != nil {
		// Restore the prior state untouched so the caller can retry:
		// the pause bookkeeping must not be committed twice, and a live
		// session keeps its snapshot refresh.
		s.state = prior
		s.pausedAt = priorPausedAt
		s.pausedTotal = priorPausedTotal
		if prior == StateRecording {
			s.startTickLocked()
		}
		return "", err
	}
	s.outputPath = path
	s.state = StateStopped
	return path, nil
}

// Close tears the session down regardless of state, cancelling the refresh
// timer and releasing the device.
func (s *Session) Close() error {
	s.mu.Lock()
	s.stopTickLocked()
	stream := s.stream
	s.stream = nil
	done := s.readerDone
	if s.state != StateStopped {
		s.state = StateIdle
	}
	s.mu.Unlock()

	if stream != nil {
		_ = stream.Close()
	}
	if done != nil {
		<-done
	}
	return nil
}

// Snapshot recomputes elapsed time from the captured start instant,
// excluding paused intervals.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:       s.state,
		SignalLevel: s.level,
		Recording:   s.state == StateRecording,
		Paused:      s.state == StatePaused,
	}
	switch s.state {
	case StateRecording:
		snap.Elapsed = s.now().Sub(s.startedAt) - s.pausedTotal
	case StatePaused:
		snap.Elapsed = s.pausedAt.Sub(s.startedAt) - s.pausedTotal
	case StateStopped:
		snap.Elapsed = s.durationLocked()
	}
	if snap.Elapsed < 0 {
		snap.Elapsed = 0
	}
	return snap
}

// OutputPath is set only once the session stopped successfully.
func (s *Session) OutputPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outputPath
}

// Duration is the recorded wall-clock time excluding pauses.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durationLocked()
}

func (s *Session) durationLocked() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	switch s.state {
	case StatePaused:
		return s.pausedAt.Sub(s.startedAt) - s.pausedTotal
	default:
		return s.now().Sub(s.startedAt) - s.pausedTotal
	}
}

func (s *Session) readLoop(stream Stream, done chan struct{}) {
	defer close(done)
	for {
		chunk, err := stream.Read()
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.state == StateRecording {
			s.frames = append(s.frames, chunk...)
			s.level = signalLevel(chunk)
		}
		s.mu.Unlock()
	}
}

// startTickLocked launches the periodic snapshot refresh. The returned stop
// channel is the cancellation handle; every exit path closes it.
func (s *Session) startTickLocked() {
	stop := make(chan struct{})
	s.tickStop = stop
	go func() {
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				if s.state == StateRecording && len(s.frames) > 0 {
					tail := s.frames
					if len(tail) > s.cfg.SampleRate/10 {
						tail = tail[len(tail)-s.cfg.SampleRate/10:]
					}
					s.level = signalLevel(tail)
				}
				s.mu.Unlock()
			}
		}
	}()
}

func (s *Session) stopTickLocked() {
	if s.tickStop != nil {
		close(s.tickStop)
		s.tickStop = nil
	}
}

func (s *Session) writeOutput() (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.outputDir, fmt.Sprintf("rec-%s.wav", uuid.NewString()))
	if err := writeWAV(path, s.frames, s.cfg.SampleRate, s.cfg.Channels); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// signalLevel is the RMS loudness of a chunk normalized to [0,1].
func signalLevel(chunk []int16) float64 {
	if len(chunk) == 0 {
		return 0
	}
	var sum float64
	for _, sample := range chunk {
		v := float64(sample)
		sum += v * v
	}
	level := math.Sqrt(sum/float64(len(chunk))) / 32768.0
	if level > 1 {
		level = 1
	}
	return level
}
