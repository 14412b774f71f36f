package sim

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/sidearm/internal/game/host"
	"github.com/cory-johannsen/sidearm/internal/game/magazine"
	"github.com/cory-johannsen/sidearm/internal/game/pistol"
	"github.com/cory-johannsen/sidearm/internal/game/prop"
	"github.com/cory-johannsen/sidearm/internal/game/rng"
	"github.com/cory-johannsen/sidearm/internal/game/well"
)

// Fixed positions on the range, in world space.
var (
	BenchPosition    = host.Vec3{0.4, 0, 0}
	LeftHandPosition = host.Vec3{-0.3, 0, 0}
)

// Hand ids.
const (
	RightHand host.EntityID = "right_hand"
	LeftHand  host.EntityID = "left_hand"
)

// maxSettle bounds Settle so a stuck animation cannot hang a caller.
const maxSettle = 10 * time.Second

// ErrNoMagazine is returned when an action names a magazine that is not in
// the world.
var ErrNoMagazine = errors.New("sim: no such magazine")

// Status is a point-in-time view of the range for display and assertions.
type Status struct {
	Now         time.Duration
	Pistol      string
	Held        bool
	WellState   string
	WellRounds  int
	Chambered   bool
	SlideValue  float64
	InBattery   bool
	LastOutcome string
	Bodies      int
	Playing     []string
}

// Range is one pistol on a bench with two hands, running on a World.
//
// Range is not safe for concurrent use; the front end serializes access.
type Range struct {
	cfg     Config
	pcfg    pistol.Config
	def     *prop.PistolDef
	mag     *prop.MagazineDef
	logger  *zap.Logger
	world   *World
	journal *Journal
	pistol  *pistol.Pistol
	right   *Hand
	left    *Hand

	leftHolding host.EntityID
	slideHeld   bool
	lastOutcome string
}

// NewRange assembles a pistol from def and mag on a fresh World. audio and
// next may be nil; next receives every weapon event after the journal.
//
// Precondition: def, mag, src, and logger must be non-nil.
// Postcondition: returns an error when mag is not the magazine def names.
func NewRange(cfg Config, pcfg pistol.Config, def *prop.PistolDef, mag *prop.MagazineDef, audio host.Audio, next host.Notifier, src rng.Source, logger *zap.Logger) (*Range, error) {
	if def == nil || mag == nil || src == nil || logger == nil {
		panic("sim.NewRange: def, mag, src, and logger must not be nil")
	}
	if def.Magazine != mag.ID {
		return nil, fmt.Errorf("sim.NewRange: pistol %q takes magazine %q, got %q", def.ID, def.Magazine, mag.ID)
	}
	logger = logger.With(zap.String("range", def.ID))
	world := NewWorld(cfg, logger.Named("world"))
	journal := NewJournal(DefaultJournalSize, world.Now, next)

	fx := host.NewEffects(logger.Named("effects"))
	if audio != nil {
		fx.Audio = audio
	}
	fx.Animator = world
	fx.Renderer = world
	fx.VFX = world
	fx.Spawner = world
	fx.Physics = world
	fx.Notifier = journal

	p := pistol.New(pcfg, def.Assets(mag), src, fx, logger)
	world.Spawn(host.SpawnRequest{ID: p.EntityID(), Prefab: def.ID, Body: p})
	world.SetFrozen(p.EntityID(), true)
	world.SetAnimationListener(p)
	world.AttachSensor(def.Anchors.MagazineWell.Position, cfg.SensorRadius, p)

	return &Range{
		cfg:     cfg,
		pcfg:    pcfg,
		def:     def,
		mag:     mag,
		logger:  logger,
		world:   world,
		journal: journal,
		pistol:  p,
		right:   NewHand(RightHand, host.Vec3{}),
		left:    NewHand(LeftHand, LeftHandPosition),
	}, nil
}

// World returns the underlying world.
func (r *Range) World() *World { return r.world }

// Journal returns the weapon event journal.
func (r *Range) Journal() *Journal { return r.journal }

// Pistol returns the assembled pistol.
func (r *Range) Pistol() *pistol.Pistol { return r.pistol }

// MagazineDef returns the definition of the magazine the pistol takes.
func (r *Range) MagazineDef() *prop.MagazineDef { return r.mag }

// Right returns the shooting hand.
func (r *Range) Right() *Hand { return r.right }

// Left returns the support hand.
func (r *Range) Left() *Hand { return r.left }

// Status reports the current state of the range.
func (r *Range) Status() Status {
	s := r.pistol.Slide()
	return Status{
		Now:         r.world.Now(),
		Pistol:      r.def.Name,
		Held:        r.pistol.Holder() != nil,
		WellState:   r.pistol.Well().State(),
		WellRounds:  r.pistol.Well().HeldRounds(),
		Chambered:   r.pistol.Chamber().HasRound(),
		SlideValue:  s.Value(),
		InBattery:   s.InBattery(),
		LastOutcome: r.lastOutcome,
		Bodies:      len(r.world.BodyIDs()),
		Playing:     r.world.Playing(),
	}
}

// GrabPistol closes the right hand on the pistol. Reports whether the right
// hand holds it afterwards.
func (r *Range) GrabPistol() bool {
	r.right.Grab(r.pistol)
	held := r.pistol.Holder() != nil && r.pistol.Holder().ID() == RightHand
	if b, ok := r.world.Body(r.pistol.EntityID()); ok {
		b.Held = held
	}
	return held
}

// DropPistol opens the right hand. The pistol stays on its rest.
func (r *Range) DropPistol() {
	r.right.Release(r.pistol)
	if b, ok := r.world.Body(r.pistol.EntityID()); ok {
		b.Held = false
	}
}

// SpawnMagazine puts a new magazine holding rounds on the bench.
func (r *Range) SpawnMagazine(rounds int) (host.EntityID, error) {
	m, err := magazine.New(r.mag.Capacity, rounds, r.logger.Named("magazine"))
	if err != nil {
		return "", fmt.Errorf("spawning %s: %w", r.mag.ID, err)
	}
	id := r.world.Spawn(host.SpawnRequest{
		ID:     m.EntityID(),
		Prefab: r.mag.Prefab,
		Pose:   host.Pose{Position: BenchPosition},
		Body:   m,
	})
	r.world.SetFrozen(id, true)
	return id, nil
}

// InsertMagazine carries magazine id in the left hand into the well. Reports
// whether the well started loading it; a refused magazine goes back to the
// left hand.
func (r *Range) InsertMagazine(id host.EntityID) (bool, error) {
	m, err := r.magazineBody(id)
	if err != nil {
		return false, err
	}
	r.left.Grab(m)
	r.world.SetFrozen(id, false)
	if b, ok := r.world.Body(id); ok {
		b.Held = true
	}
	r.leftHolding = id

	r.left.MoveTo(r.def.Anchors.MagazineWell.Position)
	r.world.MoveBody(id, r.left.AttachPoint())
	r.world.ScanSensors()

	if _, alive := r.world.Body(id); !alive {
		r.leftHolding = ""
		r.left.MoveTo(LeftHandPosition)
		return true, nil
	}
	r.left.MoveTo(LeftHandPosition)
	r.world.MoveBody(id, LeftHandPosition)
	r.world.ScanSensors()
	return false, nil
}

// LoadFreshMagazine spawns a magazine holding rounds and inserts it.
func (r *Range) LoadFreshMagazine(rounds int) (bool, error) {
	id, err := r.SpawnMagazine(rounds)
	if err != nil {
		return false, err
	}
	return r.InsertMagazine(id)
}

// LeftHolding returns the magazine in the left hand, or "".
func (r *Range) LeftHolding() host.EntityID { return r.leftHolding }

// Eject taps the primary button on the shooting hand. Reports whether a
// magazine left the well.
func (r *Range) Eject() bool {
	before := r.pistol.Well().State()
	r.right.Tap()
	r.world.ScanSensors()
	return before == well.StateLoaded && r.pistol.Well().State() == well.StateEmpty
}

// Release long-presses the primary button on the shooting hand. Reports
// whether the well started releasing.
func (r *Range) Release() bool {
	r.right.LongPress()
	return r.pistol.Well().State() == well.StateReleasing
}

// TakeReleasedMagazine pulls a magazine hanging at the release point into
// the left hand, out of the well.
func (r *Range) TakeReleasedMagazine() (host.EntityID, bool) {
	for _, id := range r.world.BodyIDs() {
		b, _ := r.world.Body(id)
		m, ok := b.Domain.(*magazine.Magazine)
		if !ok || m.Lifecycle() != magazine.Attached {
			continue
		}
		r.left.Grab(m)
		r.world.SetFrozen(id, false)
		b.Held = true
		r.leftHolding = id
		r.world.MoveBody(id, r.left.AttachPoint())
		r.world.ScanSensors()
		return id, true
	}
	return "", false
}

// PullSlide grabs the slide with the left hand and draws it fully back.
func (r *Range) PullSlide() {
	ax := r.def.SlideAxis
	s := r.pistol.Slide()
	r.left.MoveTo(ax.Origin.Add(ax.Forward.Mul(r.pcfg.Slide.MaxPosition)))
	r.left.Grab(s)
	r.slideHeld = true
	r.left.MoveTo(ax.Origin.Add(ax.Forward.Mul(r.pcfg.Slide.MinPosition)))
	s.ApplyManipulation(r.left.AttachPoint())
}

// ReleaseSlide lets go of the slide so its spring returns it.
func (r *Range) ReleaseSlide() {
	if !r.slideHeld {
		return
	}
	r.left.Release(r.pistol.Slide())
	r.slideHeld = false
	r.left.MoveTo(LeftHandPosition)
}

// RackSlide pulls and releases the slide, then waits for it to return to
// battery.
func (r *Range) RackSlide() {
	r.PullSlide()
	r.ReleaseSlide()
	r.Settle()
}

// Chamber asks the pistol to chamber a round without cycling the slide.
func (r *Range) Chamber() bool {
	return r.pistol.AttemptChamber()
}

// PullTrigger pulls the trigger once.
func (r *Range) PullTrigger() host.Outcome {
	out := r.pistol.PullTrigger()
	r.lastOutcome = out.String()
	return out
}

// LastOutcome returns the most recent trigger outcome name, or "".
func (r *Range) LastOutcome() string { return r.lastOutcome }

// Tick advances the pistol and the world by dt.
func (r *Range) Tick(dt time.Duration) {
	r.pistol.Tick(dt)
	r.world.Tick(dt)
}

// Wait advances simulated time by d in fixed steps.
func (r *Range) Wait(d time.Duration) {
	step := r.cfg.TickInterval
	if step <= 0 {
		step = DefaultConfig().TickInterval
	}
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		r.Tick(step)
	}
}

// Settle ticks until no animation is playing, the slide is in battery, and
// every free body is at rest. Reports whether that happened before the
// settle limit.
func (r *Range) Settle() bool {
	step := r.cfg.TickInterval
	if step <= 0 {
		step = DefaultConfig().TickInterval
	}
	for elapsed := time.Duration(0); elapsed < maxSettle; elapsed += step {
		if r.settled() {
			return true
		}
		r.Tick(step)
	}
	r.logger.Warn("range did not settle", zap.Duration("limit", maxSettle))
	return false
}

func (r *Range) settled() bool {
	if len(r.world.Playing()) > 0 {
		return false
	}
	if !r.slideHeld && r.pistol.Slide().Value() < 1 {
		return false
	}
	for _, id := range r.world.BodyIDs() {
		b, _ := r.world.Body(id)
		if !b.Frozen && !b.Held && b.Velocity != (host.Vec3{}) {
			return false
		}
	}
	return true
}

func (r *Range) magazineBody(id host.EntityID) (*magazine.Magazine, error) {
	b, ok := r.world.Body(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoMagazine, id)
	}
	m, ok := b.Domain.(*magazine.Magazine)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNoMagazine, id, b.Prefab)
	}
	return m, nil
}
