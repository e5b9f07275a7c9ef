package engine

import (
	"context"
	"errors"
	"time"

	"ticketera/messaging"
	"ticketera/realtime"
)

// EventOrderStatus is the live channel for kitchen and floor displays.
const EventOrderStatus = "order:status"

func (e *Engine) wireEventHandlers() {
	// A committed order starts its ticket pipeline; Submit never blocks
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderCreatedEvent)
		e.log.Debug().Str("tenant", ev.TenantID).Str("order", ev.Order.ID).Str("table", ev.Order.TableNumber).Msg("order created")
		e.pipeline.Submit(ev.TenantID, ev.Order)
	}, EventOrderCreated)

	// Status changes go live and to the bus
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderStatusChangedEvent)
		e.handleOrderStatusChanged(ev)
	}, EventOrderStatusChanged)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(TicketQueuedEvent)
		e.log.Debug().Str("tenant", ev.TenantID).Str("order", ev.OrderID).Str("record", ev.RecordID).Msg("ticket queued")
	}, EventTicketQueued)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(TicketPrintedEvent)
		e.log.Debug().Str("tenant", ev.TenantID).Str("order", ev.OrderID).Bool("sent", ev.Sent).Msg(ev.Detail)
	}, EventTicketPrinted)

	// Print failures are only ever observable here and in the queue
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(TicketFailedEvent)
		e.log.Warn().Str("tenant", ev.TenantID).Str("order", ev.OrderID).Str("stage", ev.Stage).Msg(ev.Detail)
	}, EventTicketFailed)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(PrinterConfiguredEvent)
		e.log.Info().Str("tenant", ev.TenantID).Str("host", ev.Host).Int("port", ev.Port).Msg("printer configured")
	}, EventPrinterConfigured)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(SubscriptionChangedEvent)
		e.log.Info().Str("tenant", ev.TenantID).Str("status", ev.Status).Msg("subscription changed")
	}, EventSubscriptionChanged)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(ConnectionEvent)
		if evt.Type == EventMessagingConnected {
			e.log.Info().Msg(ev.Detail)
		} else {
			e.log.Warn().Msg(ev.Detail)
		}
	}, EventMessagingConnected, EventMessagingDisconnected)
}

func (e *Engine) handleOrderStatusChanged(ev OrderStatusChangedEvent) {
	payload := messaging.OrderStatusChanged{
		OrderID: ev.OrderID,
		Table:   ev.Table,
		Status:  ev.NewStatus,
	}
	if err := e.link.Publish(ev.TenantID, EventOrderStatus, payload); err != nil && !errors.Is(err, realtime.ErrNotReady) {
		e.log.Warn().Err(err).Str("order", ev.OrderID).Msg("order status fan-out")
	}

	topic := e.OrdersTopic()
	if topic == "" {
		return
	}
	env, err := messaging.NewEnvelope(messaging.TypeOrderStatus, ev.TenantID, payload)
	if err != nil {
		e.log.Warn().Err(err).Msg("encode order status envelope")
		return
	}
	data, _ := env.Encode()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.db.EnqueueOutbox(ctx, topic, data, messaging.TypeOrderStatus, ev.TenantID); err != nil {
		e.log.Warn().Err(err).Str("order", ev.OrderID).Msg("order status outbox enqueue")
	}
}
