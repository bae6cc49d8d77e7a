package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
)

// Subscription is one live consumer of the hub.
type Subscription struct {
	ID string
	C  <-chan chat.Message

	ch  chan chat.Message
	hub *Hub
}

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s.ID)
}

// Hub delivers published messages to in-process subscribers. Delivery never
// blocks the publisher: a subscriber whose buffer is full misses the message.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
	log  zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subs: make(map[string]*Subscription),
		log:  log,
	}
}

var _ Publisher = (*Hub)(nil)

// Subscribe registers a consumer with the given channel buffer.
func (h *Hub) Subscribe(buffer int) *Subscription {
	ch := make(chan chat.Message, buffer)
	sub := &Subscription{
		ID:  uuid.NewString(),
		C:   ch,
		ch:  ch,
		hub: h,
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()

	h.log.Debug().Str("subscription", sub.ID).Msg("subscribed")
	return sub
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(sub.ch)
	h.log.Debug().Str("subscription", id).Msg("unsubscribed")
}

// Publish delivers m to every subscriber.
func (h *Hub) Publish(_ context.Context, m chat.Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, sub := range h.subs {
		select {
		case sub.ch <- m:
		default:
			h.log.Warn().Str("subscription", id).Str("message", m.ID).Msg("subscriber buffer full, dropping message")
		}
	}
	return nil
}

// Len returns the number of active subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close detaches every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
}
