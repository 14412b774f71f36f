package sim

import (
	"time"

	"github.com/cory-johannsen/sidearm/internal/game/host"
)

// DefaultJournalSize is the number of entries a Journal retains.
const DefaultJournalSize = 256

// Entry is one weapon event stamped with simulated time.
type Entry struct {
	Seq   uint64
	At    time.Duration
	Name  string
	Attrs map[string]any
}

// Journal records weapon events and forwards them to an optional next
// notifier. Only the most recent entries are retained; counts cover every
// event ever seen.
type Journal struct {
	clock   func() time.Duration
	next    host.Notifier
	limit   int
	seq     uint64
	entries []Entry
	counts  map[string]int
}

// NewJournal returns a Journal stamping entries with clock.
//
// Precondition: clock must be non-nil. limit <= 0 uses DefaultJournalSize.
func NewJournal(limit int, clock func() time.Duration, next host.Notifier) *Journal {
	if clock == nil {
		panic("sim.NewJournal: clock must not be nil")
	}
	if limit <= 0 {
		limit = DefaultJournalSize
	}
	return &Journal{
		clock:  clock,
		next:   next,
		limit:  limit,
		counts: make(map[string]int),
	}
}

// Notify records the event and forwards it.
func (j *Journal) Notify(name string, attrs map[string]any) {
	j.seq++
	j.entries = append(j.entries, Entry{Seq: j.seq, At: j.clock(), Name: name, Attrs: attrs})
	if over := len(j.entries) - j.limit; over > 0 {
		j.entries = append(j.entries[:0], j.entries[over:]...)
	}
	j.counts[name]++
	if j.next != nil {
		j.next.Notify(name, attrs)
	}
}

// Seq returns the sequence number of the latest entry, or 0.
func (j *Journal) Seq() uint64 { return j.seq }

// Since returns the retained entries with Seq greater than seq.
func (j *Journal) Since(seq uint64) []Entry {
	var out []Entry
	for _, e := range j.entries {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// Recent returns up to n of the newest entries, oldest first.
func (j *Journal) Recent(n int) []Entry {
	n = min(max(n, 0), len(j.entries))
	return append([]Entry(nil), j.entries[len(j.entries)-n:]...)
}

// Count returns how many times name was notified.
func (j *Journal) Count(name string) int { return j.counts[name] }

var _ host.Notifier = (*Journal)(nil)
