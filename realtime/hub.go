// Package realtime pushes ticket events to connected printer clients over
// SSE and WebSocket.
package realtime

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// EventTicketNew is the channel printer clients listen on.
const EventTicketNew = "ticket:new"

// Message is one event, already JSON-encoded so every subscriber shares the
// same bytes.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type subscriber struct {
	tenant string
	ch     chan Message
}

// Hub tracks subscribers per restaurant. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	buffer int
	log    zerolog.Logger
}

func NewHub(buffer int, log zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		buffer: buffer,
		log:    log,
	}
}

// Subscription is a live registration; Close it when the client goes away.
type Subscription struct {
	C    <-chan Message
	hub  *Hub
	sub  *subscriber
	once sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.remove(s.sub) })
}

func (h *Hub) Subscribe(tenant string) *Subscription {
	sub := &subscriber{tenant: tenant, ch: make(chan Message, h.buffer)}
	h.mu.Lock()
	set := h.subs[tenant]
	if set == nil {
		set = make(map[*subscriber]struct{})
		h.subs[tenant] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()
	return &Subscription{C: sub.ch, hub: h, sub: sub}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.tenant]
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.tenant)
	}
	close(sub.ch)
}

// Publish sends event to every subscriber of tenant.
func (h *Hub) Publish(tenant, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	msg := Message{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	dropped := 0
	for sub := range h.subs[tenant] {
		select {
		case sub.ch <- msg:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.log.Warn().Str("tenant", tenant).Str("event", event).Int("dropped", dropped).Msg("slow subscribers skipped")
	}
	return nil
}

// ClientCount is the number of connected subscribers across all tenants.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.subs {
		n += len(set)
	}
	return n
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for tenant, set := range h.subs {
		for sub := range set {
			close(sub.ch)
		}
		delete(h.subs, tenant)
	}
}
