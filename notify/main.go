// Package notify provides a small fan-out hub for simulation events and
// snapshots. Senders never block on slow subscribers; an event a
// subscriber cannot take immediately is dropped and logged.
package notify

import (
	"sync"

	"go.uber.org/zap"
)

type Hub[E any] struct {
	comment string

	mu   sync.Mutex
	subs map[chan E]string
}

// HubSender is the send half of a Hub. The simulation owns the sender;
// consumers only see the Hub.
type HubSender[E any] struct {
	h *Hub[E]
}

func NewHub[E any](comment string) (*HubSender[E], *Hub[E]) {
	h := &Hub[E]{
		comment: comment,
		subs:    map[chan E]string{},
	}
	return &HubSender[E]{h: h}, h
}

// Send delivers e to every subscriber that can take it right now.
func (hs *HubSender[E]) Send(e E) {
	hs.h.mu.Lock()
	defer hs.h.mu.Unlock()
	for ch, comment := range hs.h.subs {
		select {
		case ch <- e:
		default:
			zap.S().Warnw("hub: subscriber not keeping up, dropping event",
				"hub", hs.h.comment,
				"subscriber", comment)
		}
	}
}

// Subscribe registers c. The comment identifies the subscriber in logs.
// c should be buffered; unbuffered subscribers only receive events they
// are already waiting on.
func (h *Hub[E]) Subscribe(comment string, c chan E) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[c] = comment
}

func (h *Hub[E]) Unsubscribe(c chan E) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[c]; !ok {
		panic("already unsubscribed")
	}
	delete(h.subs, c)
}
