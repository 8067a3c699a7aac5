package recorder

import (
	"context"
	"errors"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// PortAudioDevice captures from the default system input via PortAudio.
type PortAudioDevice struct {
	initOnce sync.Once
	initErr  error
}

func NewPortAudioDevice() *PortAudioDevice {
	return &PortAudioDevice{}
}

func (d *PortAudioDevice) RequestAccess(ctx context.Context) error {
	d.initOnce.Do(func() {
		d.initErr = portaudio.Initialize()
	})
	if d.initErr != nil {
		return d.initErr
	}
	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return err
	}
	if info == nil || info.MaxInputChannels < 1 {
		return errors.New("no input device available")
	}
	return nil
}

func (d *PortAudioDevice) Open(ctx context.Context, cfg CaptureConfig) (Stream, error) {
	if d.initErr != nil {
		return nil, d.initErr
	}
	in := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(cfg.Channels, 0, float64(cfg.SampleRate), len(in), in)
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, err
	}
	return &portAudioStream{stream: stream, in: in}, nil
}

type portAudioStream struct {
	stream *portaudio.Stream
	in     []int16

	mu     sync.Mutex
	closed bool
}

func (s *portAudioStream) Read() ([]int16, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New("stream closed")
	}
	s.mu.Unlock()

	if err := s.stream.Read(); err != nil {
		return nil, err
	}
	chunk := make([]int16, len(s.in))
	copy(chunk, s.in)
	return chunk, nil
}

func (s *portAudioStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.stream.Stop()
	return s.stream.Close()
}
