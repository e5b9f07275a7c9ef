package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketera/config"
	"ticketera/messaging"
	"ticketera/realtime"
	"ticketera/store"
	"ticketera/substate"
)

func newEngine(t *testing.T, backend string) (*Engine, *store.DB, *store.Restaurant) {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Defaults()
	cfg.Tickets.Currency = ""
	// never connected in tests; a named backend only turns the outbox on
	cfg.Messaging.Backend = backend
	hub := realtime.NewHub(8, zerolog.Nop())
	eng := New(Config{
		AppConfig: cfg,
		DB:        db,
		Subs:      substate.NewManager(db, nil, 30, zerolog.Nop()),
		MsgClient: messaging.NewClient(&cfg.Messaging),
		Hub:       hub,
		Log:       zerolog.Nop(),
	})
	eng.Start()
	t.Cleanup(eng.Stop)

	r := &store.Restaurant{Name: "Demo"}
	require.NoError(t, db.RegisterRestaurant(context.Background(), r, &store.User{Name: "A", Email: "a@demo.com", PasswordHash: "x"}, time.Now().Add(time.Hour)))
	return eng, db, r
}

func TestOrderCreatedRunsPipeline(t *testing.T) {
	eng, db, r := newEngine(t, "none")
	ctx := context.Background()
	assert.Equal(t, realtime.Ready, eng.Link().State())

	sub := eng.Hub().Subscribe(r.ID)
	defer sub.Close()

	cat := &store.Category{RestaurantID: r.ID, Name: "Platos"}
	require.NoError(t, db.CreateCategory(ctx, cat))
	item := &store.MenuItem{RestaurantID: r.ID, CategoryID: cat.ID, Name: "Pasta", Price: decimal.RequireFromString("16")}
	require.NoError(t, db.CreateMenuItem(ctx, item))
	order, err := db.CreateOrder(ctx, r.ID, "5", []store.NewOrderLine{{MenuItemID: item.ID, Qty: 2, Price: &item.Price}})
	require.NoError(t, err)

	eng.Events.Emit(Event{Type: EventOrderCreated, Payload: OrderCreatedEvent{TenantID: r.ID, Order: order}})
	eng.Pipeline().Wait()

	recs := eng.Queue().ListTenant(r.ID)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Ticket.Text, "TOTAL: 32.00")

	// pipeline fan-out, then the printer's own {text, printedAt}
	for i := 0; i < 2; i++ {
		select {
		case msg := <-sub.C:
			assert.Equal(t, realtime.EventTicketNew, msg.Event)
		case <-time.After(time.Second):
			t.Fatalf("missing live event %d", i)
		}
	}
}

func TestOrderStatusChangedExports(t *testing.T) {
	eng, db, r := newEngine(t, "kafka")
	sub := eng.Hub().Subscribe(r.ID)
	defer sub.Close()

	eng.Events.Emit(Event{Type: EventOrderStatusChanged, Payload: OrderStatusChangedEvent{
		TenantID: r.ID, OrderID: "o1", Table: "3", OldStatus: store.StatusPending, NewStatus: store.StatusServed,
	}})

	select {
	case msg := <-sub.C:
		assert.Equal(t, EventOrderStatus, msg.Event)
		assert.Contains(t, string(msg.Data), `"status":"SERVED"`)
	case <-time.After(time.Second):
		t.Fatal("no status event")
	}

	pending, err := db.ListPendingOutbox(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "ticketera.orders", pending[0].Topic)
	assert.Equal(t, messaging.TypeOrderStatus, pending[0].MsgType)
}

func TestTicketOptions(t *testing.T) {
	eng, _, _ := newEngine(t, "none")
	opts := eng.TicketOptions()
	assert.Equal(t, 18, opts.NameWidth)
	assert.Equal(t, "02/01/2006 15:04", opts.TimeLayout)
	assert.NotNil(t, opts.Location)
}

func TestNoBackendSkipsOutbox(t *testing.T) {
	eng, db, r := newEngine(t, "none")
	ctx := context.Background()
	assert.Empty(t, eng.TicketsTopic())
	assert.Empty(t, eng.OrdersTopic())

	cat := &store.Category{RestaurantID: r.ID, Name: "Platos"}
	require.NoError(t, db.CreateCategory(ctx, cat))
	item := &store.MenuItem{RestaurantID: r.ID, CategoryID: cat.ID, Name: "Pasta", Price: decimal.RequireFromString("16")}
	require.NoError(t, db.CreateMenuItem(ctx, item))
	order, err := db.CreateOrder(ctx, r.ID, "5", []store.NewOrderLine{{MenuItemID: item.ID, Qty: 1}})
	require.NoError(t, err)

	eng.Events.Emit(Event{Type: EventOrderCreated, Payload: OrderCreatedEvent{TenantID: r.ID, Order: order}})
	eng.Events.Emit(Event{Type: EventOrderStatusChanged, Payload: OrderStatusChangedEvent{
		TenantID: r.ID, OrderID: order.ID, Table: "5", OldStatus: store.StatusPending, NewStatus: store.StatusServed,
	}})
	eng.Pipeline().Wait()

	assert.Len(t, eng.Queue().ListTenant(r.ID), 1)
	n, err := db.CountPendingOutbox(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReconfigureMessagingSwitchesTopics(t *testing.T) {
	eng, db, r := newEngine(t, "none")

	next := config.Defaults().Messaging
	next.Backend = "kafka"
	next.TicketsTopic = "t2"
	next.OrdersTopic = "o2"

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		eng.ReconfigureMessaging(&next)
	}()
	for i := 0; i < 20; i++ {
		eng.TicketsTopic()
	}
	wg.Wait()

	assert.Equal(t, "t2", eng.TicketsTopic())
	assert.Equal(t, "o2", eng.OrdersTopic())

	eng.Events.Emit(Event{Type: EventOrderStatusChanged, Payload: OrderStatusChangedEvent{
		TenantID: r.ID, OrderID: "o1", Table: "3", OldStatus: store.StatusPending, NewStatus: store.StatusServed,
	}})
	pending, err := db.ListPendingOutbox(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "o2", pending[0].Topic)
}
