// Package notify implements the in-process and redis-backed notifiers that
// fan completion events out to connected stream clients.
package notify

import (
	"log/slog"
	"sync"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

// queueCapacity bounds each subscriber queue. A stalled consumer loses the
// oldest messages instead of growing the queue without limit; durability for
// missed events lives in the job store.
const queueCapacity = 64

type subscription struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

// C returns the subscriber's receive channel. It is closed on unsubscribe.
func (s *subscription) C() <-chan []byte { return s.ch }

func (s *subscription) send(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- msg:
			return
		default:
		}
		// Queue full: drop the oldest entry and retry.
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Hub is the in-memory notifier: a per-key set of subscriber queues.
// Publish with no subscriber under the key drops the message.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscription]struct{}
}

// NewHub constructs an empty in-memory hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscription]struct{})}
}

// Subscribe registers a new independent queue under key.
func (h *Hub) Subscribe(key string) domain.Subscription {
	sub := &subscription{ch: make(chan []byte, queueCapacity)}
	h.mu.Lock()
	set, ok := h.subs[key]
	if !ok {
		set = make(map[*subscription]struct{})
		h.subs[key] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe closes the subscription's queue and removes it from the key's
// set. Calling it twice on the same handle is a no-op.
func (h *Hub) Unsubscribe(key string, s domain.Subscription) {
	sub, ok := s.(*subscription)
	if !ok {
		return
	}
	h.mu.Lock()
	if set, exists := h.subs[key]; exists {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, key)
		}
	}
	h.mu.Unlock()
	sub.close()
}

// Publish delivers message to every open queue currently registered under
// key. Fan-out tolerates concurrent subscribe/unsubscribe.
func (h *Hub) Publish(_ domain.Context, key string, message []byte) {
	h.mu.RLock()
	set := h.subs[key]
	targets := make([]*subscription, 0, len(set))
	for sub := range set {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		slog.Debug("notify: no subscriber, dropping", slog.String("key", key))
		return
	}
	for _, sub := range targets {
		sub.send(message)
	}
}
