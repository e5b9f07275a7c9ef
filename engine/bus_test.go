package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusSubscribeTypes(t *testing.T) {
	b := NewEventBus()
	var all, created []EventType
	b.Subscribe(func(e Event) { all = append(all, e.Type) })
	id := b.SubscribeTypes(func(e Event) { created = append(created, e.Type) }, EventOrderCreated)

	b.Emit(Event{Type: EventOrderCreated})
	b.Emit(Event{Type: EventTicketQueued})
	assert.Equal(t, []EventType{EventOrderCreated, EventTicketQueued}, all)
	assert.Equal(t, []EventType{EventOrderCreated}, created)

	b.Unsubscribe(id)
	b.Emit(Event{Type: EventOrderCreated})
	assert.Len(t, created, 1)
	assert.Len(t, all, 3)
}

func TestEventBusRecoversHandlerPanic(t *testing.T) {
	b := NewEventBus()
	reached := false
	b.Subscribe(func(Event) { panic("boom") })
	b.Subscribe(func(Event) { reached = true })
	assert.NotPanics(t, func() { b.Emit(Event{Type: EventTicketFailed}) })
	assert.True(t, reached)
}

func TestEventBusStampsTime(t *testing.T) {
	b := NewEventBus()
	var got Event
	b.Subscribe(func(e Event) { got = e })
	b.Emit(Event{Type: EventOrderCreated})
	assert.False(t, got.Time.IsZero())
}
