package dispatch

// Emitter is the interface adapters must satisfy to bridge pipeline events to the engine.
type Emitter interface {
	EmitTicketQueued(tenantID, orderID, recordID string)
	EmitTicketPrinted(tenantID, orderID string, sent bool, detail string)
	EmitTicketFailed(tenantID, orderID, stage, detail string)
}
