// Package sim is a headless reference host for the weapon core. It owns
// kinematic bodies, a proximity sensor, an animation player, and delayed
// despawns, all advanced by an explicit fixed-step Tick.
package sim

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/sidearm/internal/game/chamber"
	"github.com/cory-johannsen/sidearm/internal/game/host"
	"github.com/cory-johannsen/sidearm/internal/game/pistol"
	"github.com/cory-johannsen/sidearm/internal/game/well"
)

// Gravity is the constant acceleration applied to free bodies.
var Gravity = host.Vec3{0, -9.81, 0}

// FloorY is the height at which falling bodies come to rest.
const FloorY = -1.0

// Config holds the simulation tunables.
type Config struct {
	TickInterval     time.Duration
	LoadAnimation    time.Duration
	ReleaseAnimation time.Duration
	FireAnimation    time.Duration
	CasingEventDelay time.Duration
	SensorRadius     float64
	LinearDamping    float64
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		TickInterval:     time.Second / 60,
		LoadAnimation:    400 * time.Millisecond,
		ReleaseAnimation: 300 * time.Millisecond,
		FireAnimation:    150 * time.Millisecond,
		CasingEventDelay: 40 * time.Millisecond,
		SensorRadius:     0.1,
		LinearDamping:    0.5,
	}
}

// Body is a simulated entity.
type Body struct {
	ID       host.EntityID
	Prefab   string
	Pose     host.Pose
	Velocity host.Vec3
	Spin     host.Vec3
	// Frozen bodies do not integrate. Held bodies follow a hand.
	Frozen bool
	Held   bool
	// Domain is the object backing the entity, for example a magazine.
	Domain any

	expires   bool
	expiresAt time.Duration
}

// ClipEvent is a named event raised partway through an animation clip.
type ClipEvent struct {
	At   time.Duration
	Name string
}

// Clip is the timing of one animation cue.
type Clip struct {
	Duration time.Duration
	Events   []ClipEvent
}

type playing struct {
	cue     string
	clip    Clip
	elapsed time.Duration
	raised  int
}

// World implements host.Spawner, host.Physics, host.Animator, host.Renderer
// and host.VFX over an in-memory body table.
//
// World is not safe for concurrent use.
type World struct {
	cfg    Config
	logger *zap.Logger

	now     time.Duration
	bodies  map[host.EntityID]*Body
	spawned int
	ignored map[[2]host.EntityID]bool

	clips           map[string]Clip
	anims           []*playing
	animatorEnabled bool
	bools           map[string]bool
	listener        host.AnimationListener

	visible map[string]bool
	effects map[string]int
	sensors []*sensor
}

// NewWorld returns an empty World.
//
// Precondition: logger must be non-nil.
func NewWorld(cfg Config, logger *zap.Logger) *World {
	if logger == nil {
		panic("sim.NewWorld: logger must not be nil")
	}
	return &World{
		cfg:     cfg,
		logger:  logger,
		bodies:  make(map[host.EntityID]*Body),
		ignored: make(map[[2]host.EntityID]bool),
		clips: map[string]Clip{
			well.CueLoadMagazine:    {Duration: cfg.LoadAnimation},
			well.CueReleaseMagazine: {Duration: cfg.ReleaseAnimation},
			chamber.CueFire: {
				Duration: cfg.FireAnimation,
				Events:   []ClipEvent{{At: cfg.CasingEventDelay, Name: pistol.EventEjectCasing}},
			},
		},
		animatorEnabled: true,
		bools:           make(map[string]bool),
		visible:         make(map[string]bool),
		effects:         make(map[string]int),
	}
}

// Now returns the simulated time since the world was created.
func (w *World) Now() time.Duration { return w.now }

// SetAnimationListener sets the receiver of animation completions and events.
func (w *World) SetAnimationListener(l host.AnimationListener) { w.listener = l }

// Tick advances the world by dt: integrates bodies, expires despawns,
// advances animations, and scans sensors, in that order.
func (w *World) Tick(dt time.Duration) {
	if dt <= 0 {
		return
	}
	w.now += dt
	w.integrate(dt.Seconds())
	w.expire()
	w.animate(dt)
	w.ScanSensors()
}

func (w *World) integrate(sec float64) {
	damp := math.Max(0, 1-w.cfg.LinearDamping*sec)
	for _, b := range w.bodies {
		if b.Frozen || b.Held {
			continue
		}
		b.Velocity = b.Velocity.Add(Gravity.Mul(sec)).Mul(damp)
		b.Pose.Position = b.Pose.Position.Add(b.Velocity.Mul(sec))
		b.Pose.Rotation = b.Pose.Rotation.Add(b.Spin.Mul(sec))
		if b.Pose.Position.Y() < FloorY {
			b.Pose.Position[1] = FloorY
			b.Velocity = host.Vec3{}
			b.Spin = host.Vec3{}
		}
	}
}

func (w *World) expire() {
	for _, id := range w.BodyIDs() {
		b := w.bodies[id]
		if b.expires && w.now >= b.expiresAt {
			w.logger.Debug("despawning entity", zap.String("entity", string(id)))
			delete(w.bodies, id)
		}
	}
}

func (w *World) animate(dt time.Duration) {
	if !w.animatorEnabled || len(w.anims) == 0 {
		return
	}
	var events, done []string
	remaining := w.anims[:0]
	for _, a := range w.anims {
		a.elapsed += dt
		for a.raised < len(a.clip.Events) && a.elapsed >= a.clip.Events[a.raised].At {
			events = append(events, a.clip.Events[a.raised].Name)
			a.raised++
		}
		if a.elapsed >= a.clip.Duration {
			done = append(done, a.cue)
			continue
		}
		remaining = append(remaining, a)
	}
	w.anims = remaining
	if w.listener == nil {
		return
	}
	for _, name := range events {
		w.listener.OnAnimationEvent(name)
	}
	for _, cue := range done {
		w.listener.OnAnimationComplete(cue)
	}
}

// PlayAnimation starts cue. A cue without events restarts if it is already
// playing. A cue with events layers a new instance over the running ones, so
// every call raises its own events. Unknown cues complete on the next tick.
func (w *World) PlayAnimation(name string) {
	clip := w.clips[name]
	if len(clip.Events) == 0 {
		for _, a := range w.anims {
			if a.cue == name {
				a.elapsed = 0
				return
			}
		}
	}
	w.anims = append(w.anims, &playing{cue: name, clip: clip})
}

// SetBoolParam records an animator parameter.
func (w *World) SetBoolParam(name string, value bool) { w.bools[name] = value }

// SetEnabled pauses or resumes every playing animation.
func (w *World) SetEnabled(enabled bool) { w.animatorEnabled = enabled }

// Playing returns the cues currently playing.
func (w *World) Playing() []string {
	cues := make([]string, len(w.anims))
	for i, a := range w.anims {
		cues[i] = a.cue
	}
	return cues
}

// BoolParam returns an animator parameter.
func (w *World) BoolParam(name string) bool { return w.bools[name] }

// AnimatorEnabled reports whether animations are advancing.
func (w *World) AnimatorEnabled() bool { return w.animatorEnabled }

// SetVisible records a model part's visibility.
func (w *World) SetVisible(part string, visible bool) { w.visible[part] = visible }

// Visible reports a model part's visibility.
func (w *World) Visible(part string) bool { return w.visible[part] }

// Emit counts one burst of effect.
func (w *World) Emit(effect string) { w.effects[effect]++ }

// EffectCount returns how many bursts of effect were emitted.
func (w *World) EffectCount(effect string) int { return w.effects[effect] }

// Spawn creates a body. An empty request ID is replaced with "<prefab>-<n>".
func (w *World) Spawn(req host.SpawnRequest) host.EntityID {
	w.spawned++
	id := req.ID
	if id == "" {
		id = host.EntityID(fmt.Sprintf("%s-%d", req.Prefab, w.spawned))
	}
	w.bodies[id] = &Body{ID: id, Prefab: req.Prefab, Pose: req.Pose, Domain: req.Body}
	w.logger.Debug("spawned entity", zap.String("entity", string(id)), zap.String("prefab", req.Prefab))
	return id
}

// Destroy removes a body immediately.
func (w *World) Destroy(id host.EntityID) {
	delete(w.bodies, id)
}

// DestroyAfter schedules a body for removal after delay of simulated time.
func (w *World) DestroyAfter(id host.EntityID, delay time.Duration) {
	if b, ok := w.bodies[id]; ok {
		b.expires = true
		b.expiresAt = w.now + delay
	}
}

// Body returns the body for id.
func (w *World) Body(id host.EntityID) (*Body, bool) {
	b, ok := w.bodies[id]
	return b, ok
}

// BodyIDs returns every body id in sorted order.
func (w *World) BodyIDs() []host.EntityID {
	ids := make([]host.EntityID, 0, len(w.bodies))
	for id := range w.bodies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CountPrefab returns the number of live bodies spawned from prefab.
func (w *World) CountPrefab(prefab string) int {
	n := 0
	for _, b := range w.bodies {
		if b.Prefab == prefab {
			n++
		}
	}
	return n
}

// MoveBody teleports a body and zeroes its velocity.
func (w *World) MoveBody(id host.EntityID, pos host.Vec3) bool {
	b, ok := w.bodies[id]
	if !ok {
		return false
	}
	b.Pose.Position = pos
	b.Velocity = host.Vec3{}
	return true
}

// AddForce applies a continuous force to a unit-mass body for one tick.
func (w *World) AddForce(id host.EntityID, force host.Vec3) {
	if b, ok := w.bodies[id]; ok {
		b.Velocity = b.Velocity.Add(force.Mul(w.cfg.TickInterval.Seconds()))
	}
}

// AddExplosionForce pushes a body away from origin with linear falloff to
// zero at radius. Bodies outside radius are unaffected.
func (w *World) AddExplosionForce(id host.EntityID, force float64, origin host.Vec3, radius float64) {
	b, ok := w.bodies[id]
	if !ok || radius <= 0 {
		return
	}
	d := b.Pose.Position.Sub(origin)
	dist := d.Len()
	if dist > radius {
		return
	}
	dir := host.Vec3{0, 1, 0}
	if dist > 0 {
		dir = d.Normalize()
	}
	b.Velocity = b.Velocity.Add(dir.Mul(force * (1 - dist/radius) * w.cfg.TickInterval.Seconds()))
}

// AddTorque adds to a body's spin.
func (w *World) AddTorque(id host.EntityID, torque host.Vec3, mode host.ForceMode) {
	b, ok := w.bodies[id]
	if !ok {
		return
	}
	if mode == host.ForceModeForce {
		torque = torque.Mul(w.cfg.TickInterval.Seconds())
	}
	b.Spin = b.Spin.Add(torque)
}

// SetFrozen stops or resumes a body's integration.
func (w *World) SetFrozen(id host.EntityID, frozen bool) {
	if b, ok := w.bodies[id]; ok {
		b.Frozen = frozen
		if frozen {
			b.Velocity, b.Spin = host.Vec3{}, host.Vec3{}
		}
	}
}

// IgnoreCollision records whether a and b pass through each other.
func (w *World) IgnoreCollision(a, b host.EntityID, ignore bool) {
	w.ignored[pairKey(a, b)] = ignore
}

// Ignoring reports whether collisions between a and b are ignored.
func (w *World) Ignoring(a, b host.EntityID) bool {
	return w.ignored[pairKey(a, b)]
}

func pairKey(a, b host.EntityID) [2]host.EntityID {
	if b < a {
		a, b = b, a
	}
	return [2]host.EntityID{a, b}
}

var (
	_ host.Spawner  = (*World)(nil)
	_ host.Physics  = (*World)(nil)
	_ host.Animator = (*World)(nil)
	_ host.Renderer = (*World)(nil)
	_ host.VFX      = (*World)(nil)
)
