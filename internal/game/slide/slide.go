// Package slide models the pistol slide as a normalized position in [0, 1],
// where 1 is in battery and 0 is fully pulled back.
package slide

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/cory-johannsen/sidearm/internal/game/event"
	"github.com/cory-johannsen/sidearm/internal/game/host"
)

// Config holds the slide's tunables.
type Config struct {
	// MinPosition and MaxPosition bound the slide's travel along the local
	// forward axis. MinPosition maps to value 0.
	MinPosition float64
	MaxPosition float64
	// ReturnSpeed is the spring-back rate in value units per second.
	ReturnSpeed float64
	// PullThreshold and ReleaseThreshold are the edge-latch crossings.
	PullThreshold    float64
	ReleaseThreshold float64
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		MinPosition:      -0.38,
		MaxPosition:      0,
		ReturnSpeed:      19,
		PullThreshold:    0.05,
		ReleaseThreshold: 0.95,
	}
}

// Assets names the clips the slide plays.
type Assets struct {
	PullClip    string
	ReleaseClip string
}

// Breech is the chamber as seen by the slide.
type Breech interface {
	HasRound() bool
	EjectChamberedRound() (host.EntityID, bool)
	AttemptChamber() bool
}

// Slide tracks the slide position and drives the pull/release edge latches.
type Slide struct {
	cfg     Config
	assets  Assets
	frame   host.Frame
	breech  Breech
	fx      *host.Effects
	logger  *zap.Logger
	changed event.Signal[float64]

	value         float64
	grabber       host.Grabber
	pulledBack    bool
	ejectedCasing bool
}

// New returns a Slide in battery.
//
// Precondition: frame, breech, fx, and logger must be non-nil.
// Postcondition: Value() == 1.
func New(cfg Config, assets Assets, frame host.Frame, breech Breech, fx *host.Effects, logger *zap.Logger) *Slide {
	if frame == nil || breech == nil || fx == nil || logger == nil {
		panic("slide.New: frame, breech, fx, and logger must not be nil")
	}
	return &Slide{
		cfg:    cfg,
		assets: assets,
		frame:  frame,
		breech: breech,
		fx:     fx,
		logger: logger,
		value:  1,
	}
}

// Value returns the normalized slide position.
func (s *Slide) Value() float64 {
	return s.value
}

// Offset returns the slide's local displacement for the current value.
func (s *Slide) Offset() float64 {
	return s.cfg.MinPosition + (s.cfg.MaxPosition-s.cfg.MinPosition)*s.value
}

// InBattery reports whether the slide has crossed the release threshold,
// the same crossing that returns it to battery and chambers.
func (s *Slide) InBattery() bool {
	return s.value > s.cfg.ReleaseThreshold
}

// Manipulated reports whether a grabber is holding the slide.
func (s *Slide) Manipulated() bool {
	return s.grabber != nil
}

// OnValueChanged is raised with the new value on every manipulation and
// every spring-back tick.
func (s *Slide) OnValueChanged() *event.Signal[float64] {
	return &s.changed
}

// ApplyManipulation projects a world-space attach point onto the slide axis
// and sets the value from it.
func (s *Slide) ApplyManipulation(world host.Vec3) {
	local := s.frame.InverseTransformPoint(world)
	span := s.cfg.MaxPosition - s.cfg.MinPosition
	v := 1.0
	if span != 0 {
		v = (local.Z() - s.cfg.MinPosition) / span
	}
	s.setValue(v)
}

// Tick follows the grabber while held and springs back toward 1 otherwise.
func (s *Slide) Tick(dt time.Duration) {
	if s.grabber != nil {
		s.ApplyManipulation(s.grabber.AttachPoint())
		return
	}
	if s.value >= 1 || dt <= 0 {
		return
	}
	s.setValue(s.value + s.cfg.ReturnSpeed*dt.Seconds())
}

// OnGrabbed hands slide motion to g and suspends the pistol animator.
func (s *Slide) OnGrabbed(g host.Grabber) {
	s.grabber = g
	s.fx.SetAnimatorEnabled(false)
}

// OnReleased returns the slide to its spring when g is the current grabber.
func (s *Slide) OnReleased(g host.Grabber) {
	if s.grabber == nil || s.grabber.ID() != g.ID() {
		return
	}
	s.grabber = nil
	s.fx.SetAnimatorEnabled(true)
}

func (s *Slide) setValue(v float64) {
	s.value = mgl64.Clamp(v, 0, 1)
	s.changed.Emit(s.value)

	if s.value < s.cfg.PullThreshold {
		if !s.pulledBack {
			s.pulledBack = true
			s.fx.PlayOneShot(s.assets.PullClip)
			s.fx.Notify("slide_pulled", nil)
		}
		if s.breech.HasRound() && !s.ejectedCasing {
			s.breech.EjectChamberedRound()
			s.ejectedCasing = true
		}
	}

	if s.value > s.cfg.ReleaseThreshold && s.pulledBack {
		s.pulledBack = false
		s.fx.PlayOneShot(s.assets.ReleaseClip)
		chambered := s.breech.HasRound()
		if !chambered {
			chambered = s.breech.AttemptChamber()
		}
		s.ejectedCasing = false
		s.logger.Debug("slide returned to battery", zap.Bool("chambered", chambered))
		s.fx.Notify("slide_returned", map[string]any{"chambered": chambered})
	}
}
