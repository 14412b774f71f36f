// Package host defines the narrow contracts between the weapon-state core and
// the simulation host that owns physics, rendering, audio, animation, and
// input. The core never reaches into the host except through these interfaces.
package host

import (
	"time"

	"github.com/cory-johannsen/sidearm/internal/game/event"
	"github.com/cory-johannsen/sidearm/internal/game/rounds"
)

// Audio plays fire-and-forget sound clips.
type Audio interface {
	PlayOneShot(clip string)
}

// Animator drives the prop's animation controller.
type Animator interface {
	PlayAnimation(name string)
	SetBoolParam(name string, value bool)
	SetEnabled(enabled bool)
}

// Renderer toggles visibility of named model parts.
type Renderer interface {
	SetVisible(part string, visible bool)
}

// VFX emits one burst of a named particle effect.
type VFX interface {
	Emit(effect string)
}

// SpawnRequest describes an entity to instantiate.
//
// ID is optional; hosts assign one when it is empty. Body carries the domain
// object backing the entity (for example a *magazine.Magazine) so the host can
// report it back through sensor events.
type SpawnRequest struct {
	ID     EntityID
	Prefab string
	Pose   Pose
	Body   any
}

// Spawner instantiates and destroys entities.
type Spawner interface {
	Spawn(req SpawnRequest) EntityID
	Destroy(id EntityID)
	DestroyAfter(id EntityID, delay time.Duration)
}

// ForceMode selects how a force is applied to a body.
type ForceMode int

const (
	// ForceModeForce applies a continuous force.
	ForceModeForce ForceMode = iota
	// ForceModeImpulse applies an instantaneous velocity change.
	ForceModeImpulse
)

// Physics applies forces and collision filters to host bodies.
type Physics interface {
	AddForce(id EntityID, force Vec3)
	AddExplosionForce(id EntityID, force float64, origin Vec3, radius float64)
	AddTorque(id EntityID, torque Vec3, mode ForceMode)
	SetFrozen(id EntityID, frozen bool)
	IgnoreCollision(a, b EntityID, ignore bool)
}

// Haptics sends a vibration pulse to an input device.
type Haptics interface {
	SendImpulse(amplitude float64, duration time.Duration)
}

// Notifier receives named weapon events with attributes. Used for scripting
// hooks and journals; absence is not an error.
type Notifier interface {
	Notify(name string, attrs map[string]any)
}

// Grabber is an input device (hand or controller) that can hold a Grabbable.
type Grabber interface {
	Haptics
	ID() EntityID
	AttachPoint() Vec3
	PrimaryTap() *event.Signal[struct{}]
	PrimaryLongPress() *event.Signal[struct{}]
}

// Grabbable is implemented by entities that respond to being picked up.
type Grabbable interface {
	OnGrabbed(g Grabber)
	OnReleased(g Grabber)
}

// Outcome is the result of a trigger pull.
type Outcome int

const (
	// OutcomeBlocked means the pull had no effect.
	OutcomeBlocked Outcome = iota
	// OutcomeFired means a chambered round was discharged.
	OutcomeFired
	// OutcomeDryFire means the chamber was empty.
	OutcomeDryFire
)

// String returns the lowercase outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeFired:
		return "fired"
	case OutcomeDryFire:
		return "dry_fire"
	default:
		return "blocked"
	}
}

// Triggerable is implemented by entities with a trigger.
type Triggerable interface {
	PullTrigger() Outcome
}

// Candidate is a magazine entity reported by the well's proximity sensor.
type Candidate interface {
	EntityID() EntityID
	Snapshot() rounds.Snapshot
	Loadable() bool
	ReleasedFromWell() bool
	ClearReleasedFromWell()
}

// SensorListener receives proximity events for magazine candidates.
type SensorListener interface {
	OnCandidateDetected(c Candidate) bool
	OnCandidateExit(c Candidate)
}

// AnimationListener receives completion and mid-clip events from the animator.
type AnimationListener interface {
	OnAnimationComplete(cue string)
	OnAnimationEvent(name string)
}
