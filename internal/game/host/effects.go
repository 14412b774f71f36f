package host

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrMissingCollaborator is logged when a side effect targets an absent collaborator.
var ErrMissingCollaborator = errors.New("host: missing collaborator")

// Effects is the side-effect surface shared by the weapon components.
//
// Every method is nil-safe: a missing collaborator is logged once per kind
// and the call is dropped. Notifier is optional and never warned about.
//
// Effects is not safe for concurrent use; it belongs to one simulation thread.
type Effects struct {
	Audio    Audio
	Animator Animator
	Renderer Renderer
	VFX      VFX
	Spawner  Spawner
	Physics  Physics
	Notifier Notifier

	logger *zap.Logger
	warned map[string]bool
}

// NewEffects returns an Effects with no collaborators attached.
//
// Precondition: logger must be non-nil.
func NewEffects(logger *zap.Logger) *Effects {
	if logger == nil {
		panic("host.NewEffects: logger must not be nil")
	}
	return &Effects{
		logger: logger,
		warned: make(map[string]bool),
	}
}

// Logger returns the logger used for collaborator warnings.
func (e *Effects) Logger() *zap.Logger {
	return e.logger
}

func (e *Effects) missing(kind string) {
	if e.warned[kind] {
		return
	}
	e.warned[kind] = true
	e.logger.Warn("side effect dropped",
		zap.String("collaborator", kind),
		zap.Error(ErrMissingCollaborator),
	)
}

// PlayOneShot plays clip. An empty clip id means the asset is not configured.
func (e *Effects) PlayOneShot(clip string) {
	if clip == "" {
		return
	}
	if e.Audio == nil {
		e.missing("audio")
		return
	}
	e.Audio.PlayOneShot(clip)
}

// PlayAnimation fires an animation trigger.
func (e *Effects) PlayAnimation(name string) {
	if e.Animator == nil {
		e.missing("animator")
		return
	}
	e.Animator.PlayAnimation(name)
}

// SetBoolParam sets an animator bool parameter.
func (e *Effects) SetBoolParam(name string, value bool) {
	if e.Animator == nil {
		e.missing("animator")
		return
	}
	e.Animator.SetBoolParam(name, value)
}

// SetAnimatorEnabled enables or disables the animator.
func (e *Effects) SetAnimatorEnabled(enabled bool) {
	if e.Animator == nil {
		e.missing("animator")
		return
	}
	e.Animator.SetEnabled(enabled)
}

// SetVisible toggles a model part.
func (e *Effects) SetVisible(part string, visible bool) {
	if part == "" {
		return
	}
	if e.Renderer == nil {
		e.missing("renderer")
		return
	}
	e.Renderer.SetVisible(part, visible)
}

// Emit fires a particle effect.
func (e *Effects) Emit(effect string) {
	if effect == "" {
		return
	}
	if e.VFX == nil {
		e.missing("vfx")
		return
	}
	e.VFX.Emit(effect)
}

// Spawn instantiates req and reports whether a spawner was available.
func (e *Effects) Spawn(req SpawnRequest) (EntityID, bool) {
	if e.Spawner == nil {
		e.missing("spawner")
		return "", false
	}
	return e.Spawner.Spawn(req), true
}

// Destroy removes id.
func (e *Effects) Destroy(id EntityID) {
	if e.Spawner == nil {
		e.missing("spawner")
		return
	}
	e.Spawner.Destroy(id)
}

// DestroyAfter removes id after delay.
func (e *Effects) DestroyAfter(id EntityID, delay time.Duration) {
	if e.Spawner == nil {
		e.missing("spawner")
		return
	}
	e.Spawner.DestroyAfter(id, delay)
}

// AddForce applies force to id.
func (e *Effects) AddForce(id EntityID, force Vec3) {
	if e.Physics == nil {
		e.missing("physics")
		return
	}
	e.Physics.AddForce(id, force)
}

// AddExplosionForce applies a radial force to id.
func (e *Effects) AddExplosionForce(id EntityID, force float64, origin Vec3, radius float64) {
	if e.Physics == nil {
		e.missing("physics")
		return
	}
	e.Physics.AddExplosionForce(id, force, origin, radius)
}

// AddTorque applies torque to id.
func (e *Effects) AddTorque(id EntityID, torque Vec3, mode ForceMode) {
	if e.Physics == nil {
		e.missing("physics")
		return
	}
	e.Physics.AddTorque(id, torque, mode)
}

// SetFrozen freezes or releases all motion on id.
func (e *Effects) SetFrozen(id EntityID, frozen bool) {
	if e.Physics == nil {
		e.missing("physics")
		return
	}
	e.Physics.SetFrozen(id, frozen)
}

// IgnoreCollision toggles collision between a and b.
func (e *Effects) IgnoreCollision(a, b EntityID, ignore bool) {
	if a == "" || b == "" {
		return
	}
	if e.Physics == nil {
		e.missing("physics")
		return
	}
	e.Physics.IgnoreCollision(a, b, ignore)
}

// SendImpulse vibrates h. A nil h means no controller is holding the prop.
func (e *Effects) SendImpulse(h Haptics, amplitude float64, duration time.Duration) {
	if h == nil {
		e.missing("haptics")
		return
	}
	h.SendImpulse(amplitude, duration)
}

// Notify publishes a weapon event if a Notifier is attached.
func (e *Effects) Notify(name string, attrs map[string]any) {
	if e.Notifier == nil {
		return
	}
	e.Notifier.Notify(name, attrs)
}
