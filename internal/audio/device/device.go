// Package device plays an audio.Sink through the system speaker. It is the
// only package that opens the sound device; headless tools link audio alone.
package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"

	"github.com/cory-johannsen/sidearm/internal/audio"
)

// Buffer is the speaker buffer length.
const Buffer = 100 * time.Millisecond

// Speaker owns the speaker for one sink.
type Speaker struct {
	sink   *audio.Sink
	logger *zap.Logger

	mu      sync.Mutex
	started bool
}

// New returns a Speaker for sink.
//
// Precondition: sink and logger must be non-nil.
func New(sink *audio.Sink, logger *zap.Logger) *Speaker {
	if sink == nil || logger == nil {
		panic("device.New: sink and logger must not be nil")
	}
	return &Speaker{sink: sink, logger: logger}
}

// Start opens the speaker and streams the sink through it. A disabled sink
// never touches the device. Repeated calls are no-ops.
func (s *Speaker) Start() error {
	if !s.sink.Enabled() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	rate := s.sink.SampleRate()
	if err := speaker.Init(rate, rate.N(Buffer)); err != nil {
		return fmt.Errorf("audio device: initializing speaker: %w", err)
	}
	speaker.Play(s.sink)
	s.started = true
	s.logger.Info("audio started", zap.Int("sample_rate", int(rate)))
	return nil
}

// Close clears the sink and releases the speaker if Start opened it.
func (s *Speaker) Close() {
	s.sink.Clear()
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()
	if started {
		speaker.Close()
	}
}
