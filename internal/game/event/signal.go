// Package event provides typed listener registration for domain events raised
// by prop components.
package event

// Subscription identifies one registered listener. The zero value is never
// issued by Subscribe and is ignored by Unsubscribe.
type Subscription uint64

// Signal is a synchronous, single-threaded event source.
//
// Listeners are invoked in registration order. Unsubscribe removes exactly the
// listener identified by the token returned from Subscribe, independent of
// function identity.
//
// Invariant: every listener appears at most once in listeners.
type Signal[T any] struct {
	next      Subscription
	listeners []listener[T]
}

type listener[T any] struct {
	id Subscription
	fn func(T)
}

// Subscribe registers fn and returns the token used to remove it.
//
// Precondition: fn must not be nil.
// Postcondition: fn is called on every subsequent Emit until Unsubscribe(token).
func (s *Signal[T]) Subscribe(fn func(T)) Subscription {
	if fn == nil {
		panic("event: Signal.Subscribe called with nil listener")
	}
	s.next++
	s.listeners = append(s.listeners, listener[T]{id: s.next, fn: fn})
	return s.next
}

// Unsubscribe removes the listener registered under sub. Reports whether a
// listener was removed; removing an unknown or already removed token is a no-op.
func (s *Signal[T]) Unsubscribe(sub Subscription) bool {
	for i, l := range s.listeners {
		if l.id == sub {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Emit calls every registered listener with v.
//
// A listener that subscribes or unsubscribes during Emit affects only
// subsequent emissions.
func (s *Signal[T]) Emit(v T) {
	if len(s.listeners) == 0 {
		return
	}
	snapshot := make([]listener[T], len(s.listeners))
	copy(snapshot, s.listeners)
	for _, l := range snapshot {
		l.fn(v)
	}
}

// Len returns the number of registered listeners.
func (s *Signal[T]) Len() int {
	return len(s.listeners)
}
