package sim

import (
	"time"

	"github.com/cory-johannsen/sidearm/internal/game/event"
	"github.com/cory-johannsen/sidearm/internal/game/host"
)

// Impulse records one haptic pulse delivered to a hand.
type Impulse struct {
	Amplitude float64
	Duration  time.Duration
}

// Hand is a simulated controller. It implements host.Grabber.
type Hand struct {
	id        host.EntityID
	position  host.Vec3
	tap       event.Signal[struct{}]
	longPress event.Signal[struct{}]
	impulses  []Impulse
}

// NewHand returns a hand at position.
func NewHand(id host.EntityID, position host.Vec3) *Hand {
	return &Hand{id: id, position: position}
}

// ID returns the hand's entity id.
func (h *Hand) ID() host.EntityID { return h.id }

// AttachPoint returns the hand's current world position.
func (h *Hand) AttachPoint() host.Vec3 { return h.position }

// MoveTo places the hand at position.
func (h *Hand) MoveTo(position host.Vec3) { h.position = position }

// SendImpulse records a haptic pulse.
func (h *Hand) SendImpulse(amplitude float64, duration time.Duration) {
	h.impulses = append(h.impulses, Impulse{Amplitude: amplitude, Duration: duration})
}

// Impulses returns every pulse received so far.
func (h *Hand) Impulses() []Impulse { return h.impulses }

// PrimaryTap is raised by Tap.
func (h *Hand) PrimaryTap() *event.Signal[struct{}] { return &h.tap }

// PrimaryLongPress is raised by LongPress.
func (h *Hand) PrimaryLongPress() *event.Signal[struct{}] { return &h.longPress }

// Tap presses and releases the primary button.
func (h *Hand) Tap() { h.tap.Emit(struct{}{}) }

// LongPress holds the primary button past the long-press threshold.
func (h *Hand) LongPress() { h.longPress.Emit(struct{}{}) }

// Grab closes the hand on g.
func (h *Hand) Grab(g host.Grabbable) { g.OnGrabbed(h) }

// Release opens the hand on g.
func (h *Hand) Release(g host.Grabbable) { g.OnReleased(h) }

var _ host.Grabber = (*Hand)(nil)
