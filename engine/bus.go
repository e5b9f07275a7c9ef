package engine

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type EventType int

type Event struct {
	Type    EventType
	Payload any
	Time    time.Time
}

type handler struct {
	id    int
	fn    func(Event)
	types map[EventType]bool
}

// EventBus is a synchronous in-process pub/sub. Handlers run on the
// emitting goroutine in subscription order and must not block.
type EventBus struct {
	mu       sync.RWMutex
	handlers []handler
	nextID   int
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers fn for every event type.
func (b *EventBus) Subscribe(fn func(Event)) int {
	return b.SubscribeTypes(fn)
}

// SubscribeTypes registers fn for the listed types only.
func (b *EventBus) SubscribeTypes(fn func(Event), types ...EventType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	h := handler{id: b.nextID, fn: fn}
	if len(types) > 0 {
		h.types = make(map[EventType]bool, len(types))
		for _, t := range types {
			h.types[t] = true
		}
	}
	b.handlers = append(b.handlers, h)
	return h.id
}

func (b *EventBus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, h := range b.handlers {
		if h.id == id {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			return
		}
	}
}

func (b *EventBus) Emit(evt Event) {
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}
	b.mu.RLock()
	hs := make([]handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		if h.types == nil || h.types[evt.Type] {
			hs = append(hs, h)
		}
	}
	b.mu.RUnlock()
	for _, h := range hs {
		call(h.fn, evt)
	}
}

func call(fn func(Event), evt Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Int("event", int(evt.Type)).Interface("panic", r).Msg("engine: event handler panicked")
		}
	}()
	fn(evt)
}
