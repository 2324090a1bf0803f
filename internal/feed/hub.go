// Package feed is an in-process change hub. Writers call Publish after a
// mutation; every open Subscription receives a coalesced change tick and
// re-queries its snapshot. Delivery stops the moment Close is called, so a
// torn-down view can never receive a stale update.
package feed

import (
	"sync"
)

type Hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new listener. The caller owns the returned
// Subscription and must Close it when the consuming view goes away.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		hub: h,
		ch:  make(chan struct{}, 1),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Publish wakes every open subscription. Ticks are coalesced: a slow
// consumer sees at least one tick for any burst of publishes.
func (h *Hub) Publish() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub)
}

type Subscription struct {
	hub  *Hub
	ch   chan struct{}
	once sync.Once
}

// Changes ticks after each Publish until Close.
func (s *Subscription) Changes() <-chan struct{} {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
	})
}
