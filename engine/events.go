package engine

import "ticketera/store"

const (
	EventOrderCreated EventType = iota + 1
	EventOrderStatusChanged
	EventTicketQueued
	EventTicketPrinted
	EventTicketFailed
	EventPrinterConfigured
	EventSubscriptionChanged
	EventMessagingConnected
	EventMessagingDisconnected
)

// --- Event payloads ---

type OrderCreatedEvent struct {
	TenantID string
	Order    *store.Order
}

type OrderStatusChangedEvent struct {
	TenantID  string
	OrderID   string
	Table     string
	OldStatus string
	NewStatus string
}

type TicketQueuedEvent struct {
	TenantID string
	OrderID  string
	RecordID string
}

type TicketPrintedEvent struct {
	TenantID string
	OrderID  string
	Sent     bool
	Detail   string
}

type TicketFailedEvent struct {
	TenantID string
	OrderID  string
	Stage    string // "print" or "panic"
	Detail   string
}

type PrinterConfiguredEvent struct {
	TenantID string
	Host     string
	Port     int
}

type SubscriptionChangedEvent struct {
	TenantID string
	Status   string
}

type ConnectionEvent struct {
	Detail string
}
