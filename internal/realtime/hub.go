package realtime

import (
	"sync"

	"github.com/YelzhanWeb/comandas/internal/domain"
)

const defaultBuffer = 16

// Hub fans one event out to every subscription on its channel. A slow
// subscriber loses events instead of blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[domain.Channel]map[*Subscription]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[domain.Channel]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new independent listener on channel.
func (h *Hub) Subscribe(channel domain.Channel) *Subscription {
	sub := &Subscription{
		hub:     h,
		channel: channel,
		ch:      make(chan domain.Event, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[channel] == nil {
		h.subs[channel] = make(map[*Subscription]struct{})
	}
	h.subs[channel][sub] = struct{}{}
	return sub
}

// Publish delivers ev to every current subscriber of ev.Channel and returns
// how many received it.
func (h *Hub) Publish(ev domain.Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs[ev.Channel] {
		select {
		case sub.ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers counts live subscriptions on channel.
func (h *Hub) Subscribers(channel domain.Channel) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

// Close drops every subscription and closes their channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel, set := range h.subs {
		for sub := range set {
			sub.once.Do(func() { close(sub.ch) })
		}
		delete(h.subs, channel)
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.subs[sub.channel]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.channel)
		}
	}
	sub.once.Do(func() { close(sub.ch) })
}

type Subscription struct {
	hub     *Hub
	channel domain.Channel
	ch      chan domain.Event
	once    sync.Once
}

func (s *Subscription) C() <-chan domain.Event {
	return s.ch
}

// Unsubscribe is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.hub.remove(s)
}
