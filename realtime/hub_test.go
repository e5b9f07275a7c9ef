package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, sub *Subscription) Message {
	t.Helper()
	select {
	case msg := <-sub.C:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHubPublishScopedToTenant(t *testing.T) {
	h := NewHub(4, zerolog.Nop())
	a := h.Subscribe("r1")
	b := h.Subscribe("r2")
	defer a.Close()
	defer b.Close()
	assert.Equal(t, 2, h.ClientCount())

	require.NoError(t, h.Publish("r1", EventTicketNew, map[string]string{"text": "hola"}))

	msg := recv(t, a)
	assert.Equal(t, EventTicketNew, msg.Event)
	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	assert.Equal(t, "hola", body["text"])

	select {
	case <-b.C:
		t.Fatal("other tenant received the event")
	default:
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	h := NewHub(1, zerolog.Nop())
	sub := h.Subscribe("r1")
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			h.Publish("r1", EventTicketNew, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Equal(t, json.RawMessage("0"), recv(t, sub).Data)
	assert.Len(t, sub.C, 0)
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	h := NewHub(0, zerolog.Nop())
	assert.NoError(t, h.Publish("r1", EventTicketNew, "x"))
	assert.Error(t, h.Publish("r1", EventTicketNew, make(chan int)))
}

func TestSubscriptionClose(t *testing.T) {
	h := NewHub(1, zerolog.Nop())
	sub := h.Subscribe("r1")
	sub.Close()
	sub.Close()
	assert.Equal(t, 0, h.ClientCount())
	_, ok := <-sub.C
	assert.False(t, ok)
}

func TestHubClose(t *testing.T) {
	h := NewHub(1, zerolog.Nop())
	sub := h.Subscribe("r1")
	h.Close()
	_, ok := <-sub.C
	assert.False(t, ok)
	sub.Close()
	assert.Equal(t, 0, h.ClientCount())
}
