package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketera/config"
	"ticketera/store"
)

func TestEnvelopeEncode(t *testing.T) {
	env, err := NewEnvelope(TypeTicketCreated, "r1", TicketCreated{OrderID: "o1", Table: "5", Total: "35.50"})
	require.NoError(t, err)
	data, err := env.Encode()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "ticket.created", got["type"])
	assert.Equal(t, "r1", got["tenant_id"])
	assert.NotEmpty(t, got["id"])
	payload := got["payload"].(map[string]any)
	assert.Equal(t, "35.50", payload["total"])
}

func TestClientNoneBackend(t *testing.T) {
	c := NewClient(&config.MessagingConfig{Backend: "none"})
	require.NoError(t, c.Connect())
	assert.False(t, c.IsConnected())
	assert.Equal(t, "none", c.Backend())
	assert.ErrorIs(t, c.Publish(context.Background(), "t", []byte("x")), ErrDisabled)
	c.Close()
}

func TestClientUnknownBackend(t *testing.T) {
	c := NewClient(&config.MessagingConfig{Backend: "carrier-pigeon"})
	assert.Error(t, c.Connect())
	assert.False(t, c.IsConnected())
}

func TestClientMissingSettings(t *testing.T) {
	for _, backend := range []string{"kafka", "mqtt", "amqp"} {
		c := NewClient(&config.MessagingConfig{Backend: backend})
		assert.Error(t, c.Connect(), backend)
		assert.False(t, c.IsConnected())
		assert.Error(t, c.Publish(context.Background(), "t", nil))
	}
}

type fakePublisher struct {
	connected bool
	fail      map[string]bool
	sent      []string
}

func (f *fakePublisher) IsConnected() bool { return f.connected }

func (f *fakePublisher) Publish(ctx context.Context, topic string, data []byte) error {
	if f.fail[string(data)] {
		return errors.New("broker said no")
	}
	f.sent = append(f.sent, topic+":"+string(data))
	return nil
}

func openDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDrainPublishesAndAcks(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	require.NoError(t, db.EnqueueOutbox(ctx, "tickets", []byte("a"), TypeTicketCreated, "r1"))
	require.NoError(t, db.EnqueueOutbox(ctx, "tickets", []byte("b"), TypeTicketCreated, "r1"))

	pub := &fakePublisher{connected: true, fail: map[string]bool{"b": true}}
	d := NewOutboxDrainer(db, pub, time.Hour, 10, zerolog.Nop())

	n, err := d.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"tickets:a"}, pub.sent)

	pending, err := db.ListPendingOutbox(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", string(pending[0].Payload))
	assert.Equal(t, 1, pending[0].Attempts)

	pub.fail = nil
	n, err = d.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	left, err := db.CountPendingOutbox(ctx)
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestDrainSkipsWhenDisconnected(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	require.NoError(t, db.EnqueueOutbox(ctx, "tickets", []byte("a"), TypeTicketCreated, "r1"))

	pub := &fakePublisher{}
	n, err := NewOutboxDrainer(db, pub, time.Hour, 10, zerolog.Nop()).Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	left, _ := db.CountPendingOutbox(ctx)
	assert.Equal(t, 1, left)
}

func TestDrainAbandonsPoisonRows(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	require.NoError(t, db.EnqueueOutbox(ctx, "tickets", []byte("poison"), TypeTicketCreated, "r1"))

	pub := &fakePublisher{connected: true, fail: map[string]bool{"poison": true}}
	d := NewOutboxDrainer(db, pub, time.Hour, 1, zerolog.Nop(), WithMaxAttempts(2))

	for i := 0; i < 2; i++ {
		n, err := d.Drain(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	}
	// a failing row at batch size 1 no longer holds the queue
	require.NoError(t, db.EnqueueOutbox(ctx, "tickets", []byte("fresh"), TypeTicketCreated, "r1"))
	n, err := d.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"tickets:fresh"}, pub.sent)

	n, err = d.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPurgeRemovesSentAndAbandoned(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	require.NoError(t, db.EnqueueOutbox(ctx, "tickets", []byte("ok"), TypeTicketCreated, "r1"))
	require.NoError(t, db.EnqueueOutbox(ctx, "tickets", []byte("poison"), TypeTicketCreated, "r1"))

	pub := &fakePublisher{connected: true, fail: map[string]bool{"poison": true}}
	d := NewOutboxDrainer(db, pub, time.Hour, 10, zerolog.Nop(), WithMaxAttempts(1), WithRetention(time.Nanosecond))
	_, err := d.Drain(ctx)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	n, err := d.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	left, err := db.CountPendingOutbox(ctx)
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestDrainerLoop(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	require.NoError(t, db.EnqueueOutbox(ctx, "tickets", []byte("a"), TypeTicketCreated, "r1"))

	pub := &fakePublisher{connected: true}
	d := NewOutboxDrainer(db, pub, 10*time.Millisecond, 10, zerolog.Nop())
	d.Start()
	assert.Eventually(t, func() bool {
		n, _ := db.CountPendingOutbox(ctx)
		return n == 0
	}, 2*time.Second, 10*time.Millisecond)
	d.Stop()
	d.Stop()
}
