// Package hosttest provides recording fakes of the host collaborators for tests.
package hosttest

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/sidearm/internal/game/event"
	"github.com/cory-johannsen/sidearm/internal/game/host"
)

// Explosion records one AddExplosionForce call.
type Explosion struct {
	ID     host.EntityID
	Force  float64
	Origin host.Vec3
	Radius float64
}

// Torque records one AddTorque call.
type Torque struct {
	ID     host.EntityID
	Torque host.Vec3
	Mode   host.ForceMode
}

// Event records one Notify call.
type Event struct {
	Name  string
	Attrs map[string]any
}

// Recorder implements every host collaborator and records each call.
type Recorder struct {
	Clips           []string
	Animations      []string
	Bools           map[string]bool
	AnimatorEnabled bool
	Visible         map[string]bool
	Effects         []string
	Spawns          []host.SpawnRequest
	Destroyed       []host.EntityID
	DestroyAfters   map[host.EntityID]time.Duration
	Forces          map[host.EntityID][]host.Vec3
	Explosions      []Explosion
	Torques         []Torque
	Frozen          map[host.EntityID]bool
	Ignored         map[[2]host.EntityID]bool
	Events          []Event

	nextID int
}

// NewRecorder returns an empty Recorder with the animator enabled.
func NewRecorder() *Recorder {
	return &Recorder{
		Bools:           make(map[string]bool),
		AnimatorEnabled: true,
		Visible:         make(map[string]bool),
		DestroyAfters:   make(map[host.EntityID]time.Duration),
		Forces:          make(map[host.EntityID][]host.Vec3),
		Frozen:          make(map[host.EntityID]bool),
		Ignored:         make(map[[2]host.EntityID]bool),
	}
}

// Attach wires r into every collaborator slot of fx.
func (r *Recorder) Attach(fx *host.Effects) {
	fx.Audio = r
	fx.Animator = r
	fx.Renderer = r
	fx.VFX = r
	fx.Spawner = r
	fx.Physics = r
	fx.Notifier = r
}

func (r *Recorder) PlayOneShot(clip string)            { r.Clips = append(r.Clips, clip) }
func (r *Recorder) PlayAnimation(name string)          { r.Animations = append(r.Animations, name) }
func (r *Recorder) SetBoolParam(name string, v bool)   { r.Bools[name] = v }
func (r *Recorder) SetEnabled(enabled bool)            { r.AnimatorEnabled = enabled }
func (r *Recorder) SetVisible(part string, v bool)     { r.Visible[part] = v }
func (r *Recorder) Emit(effect string)                 { r.Effects = append(r.Effects, effect) }
func (r *Recorder) Destroy(id host.EntityID)           { r.Destroyed = append(r.Destroyed, id) }
func (r *Recorder) SetFrozen(id host.EntityID, f bool) { r.Frozen[id] = f }

// Spawn records req and returns its ID, assigning "entity-N" when empty.
func (r *Recorder) Spawn(req host.SpawnRequest) host.EntityID {
	if req.ID == "" {
		r.nextID++
		req.ID = host.EntityID(fmt.Sprintf("entity-%d", r.nextID))
	}
	r.Spawns = append(r.Spawns, req)
	return req.ID
}

func (r *Recorder) DestroyAfter(id host.EntityID, delay time.Duration) {
	r.DestroyAfters[id] = delay
}

func (r *Recorder) AddForce(id host.EntityID, force host.Vec3) {
	r.Forces[id] = append(r.Forces[id], force)
}

func (r *Recorder) AddExplosionForce(id host.EntityID, force float64, origin host.Vec3, radius float64) {
	r.Explosions = append(r.Explosions, Explosion{ID: id, Force: force, Origin: origin, Radius: radius})
}

func (r *Recorder) AddTorque(id host.EntityID, torque host.Vec3, mode host.ForceMode) {
	r.Torques = append(r.Torques, Torque{ID: id, Torque: torque, Mode: mode})
}

func (r *Recorder) IgnoreCollision(a, b host.EntityID, ignore bool) {
	r.Ignored[[2]host.EntityID{a, b}] = ignore
}

func (r *Recorder) Notify(name string, attrs map[string]any) {
	r.Events = append(r.Events, Event{Name: name, Attrs: attrs})
}

// EventNames returns the names of all notified events in order.
func (r *Recorder) EventNames() []string {
	names := make([]string, len(r.Events))
	for i, e := range r.Events {
		names[i] = e.Name
	}
	return names
}

// CountClip returns how many times clip was played.
func (r *Recorder) CountClip(clip string) int {
	n := 0
	for _, c := range r.Clips {
		if c == clip {
			n++
		}
	}
	return n
}

// LastSpawn returns the most recent spawn request.
//
// Precondition: at least one Spawn call was recorded.
func (r *Recorder) LastSpawn() host.SpawnRequest {
	return r.Spawns[len(r.Spawns)-1]
}

// Impulse records one haptic pulse.
type Impulse struct {
	Amplitude float64
	Duration  time.Duration
}

// Hand is a fake host.Grabber.
type Hand struct {
	Name     host.EntityID
	Point    host.Vec3
	Impulses []Impulse

	tap  event.Signal[struct{}]
	long event.Signal[struct{}]
}

// NewHand returns a Hand with the given id.
func NewHand(id host.EntityID) *Hand {
	return &Hand{Name: id}
}

func (h *Hand) ID() host.EntityID                         { return h.Name }
func (h *Hand) AttachPoint() host.Vec3                    { return h.Point }
func (h *Hand) PrimaryTap() *event.Signal[struct{}]       { return &h.tap }
func (h *Hand) PrimaryLongPress() *event.Signal[struct{}] { return &h.long }

func (h *Hand) SendImpulse(amplitude float64, duration time.Duration) {
	h.Impulses = append(h.Impulses, Impulse{Amplitude: amplitude, Duration: duration})
}

// Tap emits a primary-button tap.
func (h *Hand) Tap() { h.tap.Emit(struct{}{}) }

// LongPress emits a primary-button long press.
func (h *Hand) LongPress() { h.long.Emit(struct{}{}) }
