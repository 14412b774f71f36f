package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/sidearm/internal/game/event"
)

func TestSignal_EmitCallsListenersInOrder(t *testing.T) {
	var s event.Signal[int]
	var got []string
	s.Subscribe(func(v int) { got = append(got, "a") })
	s.Subscribe(func(v int) { got = append(got, "b") })
	s.Emit(1)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestSignal_UnsubscribeRemovesOnlyThatListener(t *testing.T) {
	var s event.Signal[struct{}]
	var a, b int
	handler := func(struct{}) { a++ }
	subA := s.Subscribe(handler)
	s.Subscribe(handler)
	s.Subscribe(func(struct{}) { b++ })

	assert.True(t, s.Unsubscribe(subA))
	s.Emit(struct{}{})

	assert.Equal(t, 1, a, "the second registration of the same func must survive")
	assert.Equal(t, 1, b)
	assert.Equal(t, 2, s.Len())
}

func TestSignal_UnsubscribeTwiceIsNoOp(t *testing.T) {
	var s event.Signal[int]
	sub := s.Subscribe(func(int) {})
	assert.True(t, s.Unsubscribe(sub))
	assert.False(t, s.Unsubscribe(sub))
	assert.False(t, s.Unsubscribe(0))
}

func TestSignal_UnsubscribeDuringEmitTakesEffectNextTime(t *testing.T) {
	var s event.Signal[int]
	calls := 0
	var sub event.Subscription
	sub = s.Subscribe(func(int) {
		calls++
		s.Unsubscribe(sub)
	})
	s.Emit(1)
	s.Emit(2)
	assert.Equal(t, 1, calls)
}

func TestSignal_SubscribeNilPanics(t *testing.T) {
	var s event.Signal[int]
	assert.Panics(t, func() { s.Subscribe(nil) })
}

// TestProperty_Signal_LenTracksSubscriptions asserts that after an arbitrary
// sequence of subscribe/unsubscribe operations Len equals the live token count.
func TestProperty_Signal_LenTracksSubscriptions(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var s event.Signal[int]
		live := map[event.Subscription]bool{}
		var issued []event.Subscription
		ops := rapid.IntRange(1, 50).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			if len(issued) == 0 || rapid.Bool().Draw(rt, "subscribe") {
				sub := s.Subscribe(func(int) {})
				issued = append(issued, sub)
				live[sub] = true
				continue
			}
			sub := issued[rapid.IntRange(0, len(issued)-1).Draw(rt, "idx")]
			removed := s.Unsubscribe(sub)
			if removed != live[sub] {
				rt.Fatalf("Unsubscribe(%d) = %v, live = %v", sub, removed, live[sub])
			}
			delete(live, sub)
		}
		if s.Len() != len(live) {
			rt.Fatalf("Len=%d, want %d", s.Len(), len(live))
		}
	})
}
