package engine

// dispatchEmitter bridges the dispatch package's emitter interface to the EventBus.
type dispatchEmitter struct {
	bus *EventBus
}

func (e *dispatchEmitter) EmitTicketQueued(tenantID, orderID, recordID string) {
	e.bus.Emit(Event{Type: EventTicketQueued, Payload: TicketQueuedEvent{
		TenantID: tenantID,
		OrderID:  orderID,
		RecordID: recordID,
	}})
}

func (e *dispatchEmitter) EmitTicketPrinted(tenantID, orderID string, sent bool, detail string) {
	e.bus.Emit(Event{Type: EventTicketPrinted, Payload: TicketPrintedEvent{
		TenantID: tenantID,
		OrderID:  orderID,
		Sent:     sent,
		Detail:   detail,
	}})
}

func (e *dispatchEmitter) EmitTicketFailed(tenantID, orderID, stage, detail string) {
	e.bus.Emit(Event{Type: EventTicketFailed, Payload: TicketFailedEvent{
		TenantID: tenantID,
		OrderID:  orderID,
		Stage:    stage,
		Detail:   detail,
	}})
}
