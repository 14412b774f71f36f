// Package rounds tracks a finite count of ammunition rounds.
package rounds

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRoundCount is returned when a count is constructed outside [0, capacity].
	ErrInvalidRoundCount = errors.New("rounds: invalid round count")
	// ErrNegativeRoundCount is returned when a negative count is set at runtime.
	ErrNegativeRoundCount = errors.New("rounds: negative round count")
)

// Snapshot is an immutable copy of a magazine's capacity and held rounds,
// taken at a point of transfer.
type Snapshot struct {
	Capacity int `yaml:"capacity"`
	Held     int `yaml:"held"`
}

// Validate reports whether s describes a reachable count.
//
// Postcondition: returns nil iff Capacity > 0 and 0 <= Held <= Capacity.
func (s Snapshot) Validate() error {
	if s.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be > 0, got %d", ErrInvalidRoundCount, s.Capacity)
	}
	if s.Held < 0 || s.Held > s.Capacity {
		return fmt.Errorf("%w: held %d outside [0, %d]", ErrInvalidRoundCount, s.Held, s.Capacity)
	}
	return nil
}

// Count tracks rounds held against a fixed capacity.
// Invariant: 0 <= held <= capacity.
type Count struct {
	capacity int
	held     int
}

// New returns a Count holding held of capacity rounds.
//
// Precondition: capacity > 0 and 0 <= held <= capacity.
// Postcondition: on error the returned Count is the zero value; out-of-range
// input is rejected, never clamped.
func New(capacity, held int) (Count, error) {
	s := Snapshot{Capacity: capacity, Held: held}
	if err := s.Validate(); err != nil {
		return Count{}, err
	}
	return Count{capacity: capacity, held: held}, nil
}

// FromSnapshot returns a Count restored from s.
func FromSnapshot(s Snapshot) (Count, error) {
	return New(s.Capacity, s.Held)
}

// Snapshot returns a copy of the current state.
func (c Count) Snapshot() Snapshot {
	return Snapshot{Capacity: c.capacity, Held: c.held}
}

// Capacity returns the maximum rounds the count can hold.
func (c Count) Capacity() int { return c.capacity }

// Held returns the rounds currently held.
func (c Count) Held() int { return c.held }

// IsEmpty reports whether no rounds are held.
func (c Count) IsEmpty() bool { return c.held <= 0 }

// Deduct removes one round.
//
// Postcondition: returns false and leaves the count unchanged when empty.
func (c *Count) Deduct() bool {
	if c.held <= 0 {
		return false
	}
	c.held--
	return true
}

// Set overwrites the held rounds.
//
// Postcondition: n < 0 returns ErrNegativeRoundCount with state unchanged;
// n > capacity stores capacity and reports clamped == true.
func (c *Count) Set(n int) (clamped bool, err error) {
	if n < 0 {
		return false, fmt.Errorf("%w: %d", ErrNegativeRoundCount, n)
	}
	if n > c.capacity {
		c.held = c.capacity
		return true, nil
	}
	c.held = n
	return false, nil
}

// Reload restores held to capacity.
//
// Postcondition: Held() == Capacity().
func (c *Count) Reload() {
	c.held = c.capacity
}
