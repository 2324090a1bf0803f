package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ticked(s *Subscription) bool {
	select {
	case <-s.Changes():
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	defer a.Close()
	defer b.Close()

	h.Publish()

	assert.True(t, ticked(a))
	assert.True(t, ticked(b))
}

func TestClosedSubscriptionStopsDelivery(t *testing.T) {
	h := NewHub()
	s := h.Subscribe()
	s.Close()

	h.Publish()

	assert.False(t, ticked(s))
}

func TestCloseIsIdempotent(t *testing.T) {
	h := NewHub()
	s := h.Subscribe()

	s.Close()
	assert.NotPanics(t, s.Close)
}

func TestBurstCoalescesToAtLeastOneTick(t *testing.T) {
	h := NewHub()
	s := h.Subscribe()
	defer s.Close()

	for range 10 {
		h.Publish()
	}

	assert.True(t, ticked(s), "burst must produce at least one tick")
}

func TestReplacementSubscriptionIsIndependent(t *testing.T) {
	h := NewHub()

	old := h.Subscribe()
	old.Close()
	replacement := h.Subscribe()
	defer replacement.Close()

	h.Publish()

	assert.False(t, ticked(old), "old subscription must stay silent after replacement")
	assert.True(t, ticked(replacement))
}
