package notify

import (
	"context"
	"sync"

	"nexus/models"
)

// Notice is an event addressed to an audience. Managers receive notices
// flagged for managers, leaders receive notices addressed to their id.
type Notice struct {
	Event    Event `json:"event"`
	LeaderID uint  `json:"leader_id,omitempty"`
	Managers bool  `json:"managers,omitempty"`
}

// For reports whether the notice is meant for who.
func (n Notice) For(who Audience) bool {
	switch who.Role {
	case models.RoleManager:
		return n.Managers
	case models.RoleLeader:
		return n.LeaderID != 0 && n.LeaderID == who.UserID
	}
	return false
}

// Publisher pushes notices to subscribed sessions.
type Publisher interface {
	Publish(ctx context.Context, n Notice) error
}

// subscriberBuffer bounds how many pushed events a slow session may queue.
// Overflow is dropped; the next poll restores it.
const subscriberBuffer = 32

type subscriber struct {
	who Audience
	ch  chan Event
}

// Hub fans notices out to in-process subscribers. It is the Publisher used
// when no external bus is configured, and the delivery end of the buses.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

func (h *Hub) Publish(_ context.Context, n Notice) error {
	h.Deliver(n)
	return nil
}

// Deliver hands the notice to every matching subscriber without blocking.
func (h *Hub) Deliver(n Notice) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		if !n.For(s.who) {
			continue
		}
		select {
		case s.ch <- n.Event:
		default:
		}
	}
}

// Subscribe registers who for pushed events. The returned func unsubscribes
// and closes the channel.
func (h *Hub) Subscribe(who Audience) (<-chan Event, func()) {
	s := &subscriber{who: who, ch: make(chan Event, subscriberBuffer)}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = s
	h.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			close(s.ch)
			h.mu.Unlock()
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
