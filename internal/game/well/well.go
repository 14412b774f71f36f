// Package well implements the magazine-well state machine: it accepts a
// magazine's data on insertion, supplies rounds to the chamber, and spawns a
// magazine entity back into the world on release or ejection.
package well

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/cory-johannsen/sidearm/internal/game/host"
	"github.com/cory-johannsen/sidearm/internal/game/magazine"
	"github.com/cory-johannsen/sidearm/internal/game/rounds"
)

// ErrInvalidStateTransition wraps every rejected well operation.
var ErrInvalidStateTransition = errors.New("well: invalid state transition")

// Well states.
const (
	StateEmpty     = "empty"
	StateLoading   = "loading"
	StateLoaded    = "loaded"
	StateReleasing = "releasing"
)

const (
	evDetect          = "detect"
	evInsert          = "insert"
	evRelease         = "release"
	evReleaseComplete = "release_complete"
	evEject           = "eject"
)

// Animation cues driven by the well. The host's animator reports their
// completion back through OnInsertAnimationComplete and
// OnReleaseAnimationComplete.
const (
	CueLoadMagazine    = "LoadMagazine"
	CueReleaseMagazine = "ReleaseMagazine"
)

// Config holds the well's tunables.
type Config struct {
	// EjectionPower scales the force applied to an ejected magazine.
	EjectionPower float64
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{EjectionPower: 10}
}

// Assets names the prop parts and anchors the well needs from the host.
type Assets struct {
	MagazinePrefab    string
	MagazineModel     string
	GripCollider      host.EntityID
	ReleasePoint      host.Anchor
	EjectionPoint     host.Anchor
	EjectionDirection host.Vec3
	InsertClip        string
	ReleaseClip       string
}

// Well owns at most one inserted magazine's data.
//
// Invariant: the well never holds a reference to a magazine entity; only the
// copied round count in info, valid while HasInsertedMagazine or IsLoadingMagazine.
type Well struct {
	cfg     Config
	assets  Assets
	fx      *host.Effects
	logger  *zap.Logger
	machine *fsm.FSM
	info    rounds.Count
}

// New returns an empty Well.
//
// Precondition: fx and logger must be non-nil.
// Postcondition: State() == StateEmpty.
func New(cfg Config, assets Assets, fx *host.Effects, logger *zap.Logger) *Well {
	if fx == nil || logger == nil {
		panic("well.New: fx and logger must not be nil")
	}
	w := &Well{
		cfg:    cfg,
		assets: assets,
		fx:     fx,
		logger: logger,
	}
	w.machine = fsm.NewFSM(
		StateEmpty,
		fsm.Events{
			{Name: evDetect, Src: []string{StateEmpty}, Dst: StateLoading},
			{Name: evInsert, Src: []string{StateLoading}, Dst: StateLoaded},
			{Name: evRelease, Src: []string{StateLoaded}, Dst: StateReleasing},
			{Name: evReleaseComplete, Src: []string{StateReleasing}, Dst: StateEmpty},
			{Name: evEject, Src: []string{StateLoaded}, Dst: StateEmpty},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				w.logger.Debug("magazine well transition",
					zap.String("event", e.Event),
					zap.String("from", e.Src),
					zap.String("to", e.Dst),
				)
			},
		},
	)
	fx.SetVisible(assets.MagazineModel, false)
	return w
}

// State returns the current state name.
func (w *Well) State() string {
	return w.machine.Current()
}

// HasInsertedMagazine reports whether a magazine is seated. A magazine that is
// mid-release still feeds the chamber until the release animation completes.
func (w *Well) HasInsertedMagazine() bool {
	s := w.machine.Current()
	return s == StateLoaded || s == StateReleasing
}

// IsLoadingMagazine reports whether an insertion animation is in progress.
func (w *Well) IsLoadingMagazine() bool {
	return w.machine.Current() == StateLoading
}

// HeldRounds returns the seated magazine's rounds, or 0 when none is seated.
func (w *Well) HeldRounds() int {
	if !w.HasInsertedMagazine() {
		return 0
	}
	return w.info.Held()
}

// Snapshot returns the stored magazine data while one is loading or seated.
func (w *Well) Snapshot() (rounds.Snapshot, bool) {
	if w.machine.Current() == StateEmpty {
		return rounds.Snapshot{}, false
	}
	return w.info.Snapshot(), true
}

// DeductRound removes one round from the seated magazine's data.
//
// Postcondition: returns false with no change when no magazine is seated or
// the magazine is empty.
func (w *Well) DeductRound() bool {
	if !w.HasInsertedMagazine() {
		return false
	}
	return w.info.Deduct()
}

// OnCandidateDetected starts loading c when the well is empty and c is
// loadable. The candidate entity is destroyed; its data now lives here.
func (w *Well) OnCandidateDetected(c host.Candidate) bool {
	if !c.Loadable() || c.ReleasedFromWell() {
		w.logger.Debug("ignoring magazine candidate",
			zap.String("magazine", string(c.EntityID())),
			zap.Bool("loadable", c.Loadable()),
			zap.Bool("released_from_well", c.ReleasedFromWell()),
		)
		return false
	}
	info, err := rounds.FromSnapshot(c.Snapshot())
	if err != nil {
		w.logger.Warn("rejecting magazine candidate",
			zap.String("magazine", string(c.EntityID())),
			zap.Error(err),
		)
		return false
	}
	if err := w.transition(evDetect); err != nil {
		w.logger.Debug("magazine candidate ignored", zap.Error(err))
		return false
	}
	w.info = info
	w.fx.PlayAnimation(CueLoadMagazine)
	w.fx.SetVisible(w.assets.MagazineModel, true)
	w.fx.Destroy(c.EntityID())
	w.fx.Notify("magazine_loading", map[string]any{"rounds": info.Held()})
	return true
}

// OnInsertAnimationComplete seats the loading magazine.
func (w *Well) OnInsertAnimationComplete() bool {
	if err := w.transition(evInsert); err != nil {
		w.logger.Debug("insert completion ignored", zap.Error(err))
		return false
	}
	w.fx.SetVisible(w.assets.MagazineModel, true)
	w.fx.PlayOneShot(w.assets.InsertClip)
	w.logger.Info("magazine inserted", zap.Int("rounds", w.info.Held()))
	w.fx.Notify("magazine_inserted", map[string]any{"rounds": w.info.Held()})
	return true
}

// AttemptRelease starts the release animation for a seated magazine.
// No-op unless Loaded.
func (w *Well) AttemptRelease() bool {
	if err := w.transition(evRelease); err != nil {
		w.logger.Debug("magazine release ignored", zap.Error(err))
		return false
	}
	w.fx.PlayAnimation(CueReleaseMagazine)
	w.fx.PlayOneShot(w.assets.ReleaseClip)
	return true
}

// OnReleaseAnimationComplete spawns the released magazine, frozen at the
// release point, and empties the well.
func (w *Well) OnReleaseAnimationComplete() (host.EntityID, bool) {
	if w.machine.Current() != StateReleasing {
		w.logger.Debug("release completion ignored",
			zap.Error(fmt.Errorf("%w: %s from %s", ErrInvalidStateTransition, evReleaseComplete, w.machine.Current())),
		)
		return "", false
	}
	id, spawned := w.spawnMagazine(w.assets.ReleasePoint.Pose(), magazine.Attached)
	if spawned {
		w.fx.SetFrozen(id, true)
		w.fx.IgnoreCollision(id, w.assets.GripCollider, true)
	}
	w.fx.SetVisible(w.assets.MagazineModel, false)
	held := w.info.Held()
	w.info = rounds.Count{}
	// Checked above; the transition cannot fail.
	_ = w.transition(evReleaseComplete)
	w.fx.Notify("magazine_released", map[string]any{"rounds": held})
	return id, spawned
}

// AttemptEject pushes the seated magazine out along the ejection direction
// and empties the well immediately. No-op unless Loaded.
func (w *Well) AttemptEject() (host.EntityID, bool) {
	if w.machine.Current() != StateLoaded {
		w.logger.Debug("magazine eject ignored",
			zap.Error(fmt.Errorf("%w: %s from %s", ErrInvalidStateTransition, evEject, w.machine.Current())),
		)
		return "", false
	}
	w.fx.PlayOneShot(w.assets.ReleaseClip)
	id, spawned := w.spawnMagazine(w.assets.EjectionPoint.Pose(), magazine.Ejected)
	if spawned {
		w.fx.AddForce(id, w.assets.EjectionDirection.Mul(w.cfg.EjectionPower))
		w.fx.IgnoreCollision(id, w.assets.GripCollider, true)
	}
	w.fx.SetVisible(w.assets.MagazineModel, false)
	held := w.info.Held()
	w.info = rounds.Count{}
	_ = w.transition(evEject)
	w.fx.Notify("magazine_ejected", map[string]any{"rounds": held})
	return id, spawned
}

// OnCandidateExit re-arms a magazine that was released or ejected from this
// well once it leaves the sensor, restoring its collision with the grip.
func (w *Well) OnCandidateExit(c host.Candidate) bool {
	if w.machine.Current() != StateEmpty || !c.ReleasedFromWell() {
		return false
	}
	c.ClearReleasedFromWell()
	w.fx.IgnoreCollision(c.EntityID(), w.assets.GripCollider, false)
	w.fx.Notify("magazine_rearmed", map[string]any{"magazine": string(c.EntityID())})
	return true
}

func (w *Well) spawnMagazine(pose host.Pose, phase magazine.Lifecycle) (host.EntityID, bool) {
	m, err := magazine.FromSnapshot(w.info.Snapshot(), w.logger)
	if err != nil {
		w.logger.Warn("cannot spawn magazine from well data", zap.Error(err))
		return "", false
	}
	m.MarkReleased(phase)
	id, ok := w.fx.Spawn(host.SpawnRequest{
		ID:     m.EntityID(),
		Prefab: w.assets.MagazinePrefab,
		Pose:   pose,
		Body:   m,
	})
	if ok {
		w.logger.Info("magazine spawned from well",
			zap.String("magazine", string(id)),
			zap.String("phase", phase.String()),
			zap.Int("rounds", m.HeldRounds()),
		)
	}
	return id, ok
}

func (w *Well) transition(ev string) error {
	if err := w.machine.Event(context.Background(), ev); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidStateTransition, ev, err)
	}
	return nil
}
