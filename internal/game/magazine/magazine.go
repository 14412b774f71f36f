// Package magazine models a standalone magazine entity: its round count and
// the flags that govern whether a magazine well may accept it.
package magazine

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/sidearm/internal/game/event"
	"github.com/cory-johannsen/sidearm/internal/game/host"
	"github.com/cory-johannsen/sidearm/internal/game/rounds"
)

// Lifecycle is the phase of a standalone magazine entity. A magazine that is
// loaded into a well has no entity; its data lives in the well.
type Lifecycle int

const (
	// Free is a magazine in the world or in a hand.
	Free Lifecycle = iota
	// Attached is a magazine released from a well and hanging at the release point.
	Attached
	// Ejected is a magazine pushed out of a well and not yet grabbed.
	Ejected
)

// String returns the lowercase lifecycle name.
func (l Lifecycle) String() string {
	switch l {
	case Attached:
		return "attached"
	case Ejected:
		return "ejected"
	default:
		return "free"
	}
}

var (
	_ host.Candidate = (*Magazine)(nil)
	_ host.Grabbable = (*Magazine)(nil)
)

// Magazine is one live magazine entity.
//
// Invariant: 0 <= HeldRounds() <= Capacity().
// Invariant: ReleasedFromWell() implies the magazine was spawned by a well and
// has not yet left that well's sensor.
type Magazine struct {
	id               host.EntityID
	count            rounds.Count
	loadable         bool
	releasedFromWell bool
	lifecycle        Lifecycle
	presence         event.Signal[bool]
	logger           *zap.Logger
}

// New returns a loadable magazine holding held of capacity rounds.
//
// Precondition: logger must be non-nil.
// Postcondition: returns rounds.ErrInvalidRoundCount (wrapped) when held is
// outside [0, capacity]; the request is rejected, never clamped.
func New(capacity, held int, logger *zap.Logger) (*Magazine, error) {
	return FromSnapshot(rounds.Snapshot{Capacity: capacity, Held: held}, logger)
}

// FromSnapshot returns a loadable magazine restored from s.
//
// Precondition: logger must be non-nil.
func FromSnapshot(s rounds.Snapshot, logger *zap.Logger) (*Magazine, error) {
	if logger == nil {
		panic("magazine.FromSnapshot: logger must not be nil")
	}
	c, err := rounds.FromSnapshot(s)
	if err != nil {
		return nil, err
	}
	return &Magazine{
		id:       host.EntityID(uuid.NewString()),
		count:    c,
		loadable: true,
		logger:   logger,
	}, nil
}

// EntityID returns the magazine's entity id.
func (m *Magazine) EntityID() host.EntityID { return m.id }

// Capacity returns the maximum rounds the magazine can hold.
func (m *Magazine) Capacity() int { return m.count.Capacity() }

// HeldRounds returns the rounds currently held.
func (m *Magazine) HeldRounds() int { return m.count.Held() }

// HasRounds reports whether at least one round is held. Drives the
// top-round visual.
func (m *Magazine) HasRounds() bool { return !m.count.IsEmpty() }

// Snapshot returns a read-only copy of the round state.
func (m *Magazine) Snapshot() rounds.Snapshot { return m.count.Snapshot() }

// Restore overwrites the round state with s.
//
// Postcondition: on error the magazine is unchanged.
func (m *Magazine) Restore(s rounds.Snapshot) error {
	c, err := rounds.FromSnapshot(s)
	if err != nil {
		return err
	}
	had := m.HasRounds()
	m.count = c
	m.emitPresence(had)
	return nil
}

// SetHeldRounds overwrites the held rounds.
//
// Negative values are logged and ignored. Values above capacity are clamped
// and logged. Reports whether the state changed.
func (m *Magazine) SetHeldRounds(n int) bool {
	had := m.HasRounds()
	before := m.count.Held()
	clamped, err := m.count.Set(n)
	if err != nil {
		m.logger.Warn("rejected magazine round count",
			zap.String("magazine", string(m.id)),
			zap.Int("requested", n),
			zap.Error(err),
		)
		return false
	}
	if clamped {
		m.logger.Warn("clamped magazine round count to capacity",
			zap.String("magazine", string(m.id)),
			zap.Int("requested", n),
			zap.Int("capacity", m.count.Capacity()),
		)
	}
	m.emitPresence(had)
	return m.count.Held() != before
}

func (m *Magazine) emitPresence(had bool) {
	if has := m.HasRounds(); has != had {
		m.presence.Emit(has)
	}
}

// OnRoundsPresenceChanged is raised whenever the held count crosses zero.
func (m *Magazine) OnRoundsPresenceChanged() *event.Signal[bool] {
	return &m.presence
}

// Loadable reports whether a well may accept this magazine.
func (m *Magazine) Loadable() bool { return m.loadable }

// ReleasedFromWell reports whether the magazine was just released or ejected
// and has not yet left the well.
func (m *Magazine) ReleasedFromWell() bool { return m.releasedFromWell }

// ClearReleasedFromWell re-arms the magazine once it has left the well.
func (m *Magazine) ClearReleasedFromWell() { m.releasedFromWell = false }

// Lifecycle returns the entity phase.
func (m *Magazine) Lifecycle() Lifecycle { return m.lifecycle }

// MarkReleased flags a magazine spawned out of a well.
//
// Precondition: phase is Attached or Ejected.
// Postcondition: Loadable() == false and ReleasedFromWell() == true until a
// grab and a sensor exit respectively.
func (m *Magazine) MarkReleased(phase Lifecycle) {
	m.lifecycle = phase
	m.loadable = false
	m.releasedFromWell = true
}

// OnGrabbed detaches the magazine and makes it loadable again.
func (m *Magazine) OnGrabbed(g host.Grabber) {
	m.lifecycle = Free
	m.loadable = true
	m.logger.Debug("magazine grabbed",
		zap.String("magazine", string(m.id)),
		zap.String("grabber", string(g.ID())),
		zap.Int("rounds", m.count.Held()),
	)
}

// OnReleased is a no-op; a dropped magazine keeps its flags.
func (m *Magazine) OnReleased(host.Grabber) {}
