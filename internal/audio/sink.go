// Package audio plays the weapon's one-shot clips through a beep mixer.
package audio

import (
	"sync"

	"github.com/gopxl/beep"
	"go.uber.org/zap"
)

// Config holds the audio settings.
type Config struct {
	Enabled    bool
	SampleRate int
	Volume     float64
}

// DefaultConfig returns the stock audio settings.
func DefaultConfig() Config {
	return Config{Enabled: true, SampleRate: 44100, Volume: 0.8}
}

// Sink implements host.Audio. Clips are mixed into one stream that the
// caller pulls, either directly or through package device.
//
// Sink is safe for concurrent use; a playback goroutine streams it while the
// simulation adds clips.
type Sink struct {
	cfg    Config
	rate   beep.SampleRate
	logger *zap.Logger

	mu     sync.Mutex
	mixer  *beep.Mixer
	clips  map[string]ClipFunc
	warned map[string]bool
}

// NewSink returns a Sink loaded with DefaultClips.
//
// Precondition: logger must be non-nil.
func NewSink(cfg Config, logger *zap.Logger) *Sink {
	if logger == nil {
		panic("audio.NewSink: logger must not be nil")
	}
	return &Sink{
		cfg:    cfg,
		rate:   beep.SampleRate(cfg.SampleRate),
		logger: logger,
		mixer:  &beep.Mixer{},
		clips:  DefaultClips(),
		warned: make(map[string]bool),
	}
}

// Register adds or replaces the clip named id.
func (s *Sink) Register(id string, fn ClipFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips[id] = fn
}

// PlayOneShot mixes in a fresh instance of clip. Unknown clips are logged once.
func (s *Sink) PlayOneShot(clip string) {
	if !s.cfg.Enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn, ok := s.clips[clip]
	if !ok {
		if !s.warned[clip] {
			s.warned[clip] = true
			s.logger.Warn("unknown audio clip", zap.String("clip", clip))
		}
		return
	}
	s.mixer.Add(withVolume(fn(s.rate), s.cfg.Volume))
}

// Active returns the number of clips still playing.
func (s *Sink) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mixer.Len()
}

// Stream implements beep.Streamer. It never drains; silence fills the gaps.
func (s *Sink) Stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mixer.Stream(samples)
}

// Err implements beep.Streamer.
func (s *Sink) Err() error { return nil }

// Enabled reports whether the sink accepts clips.
func (s *Sink) Enabled() bool { return s.cfg.Enabled }

// SampleRate returns the rate clips are rendered at.
func (s *Sink) SampleRate() beep.SampleRate { return s.rate }

// Clear drops every playing clip.
func (s *Sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mixer.Clear()
}
