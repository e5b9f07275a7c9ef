package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TypeTicketCreated = "ticket.created"
	TypeOrderStatus   = "order.status"
)

// Envelope is the wire format of every exported event.
type Envelope struct {
	Type      string          `json:"type"`
	TenantID  string          `json:"tenant_id"`
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

func NewEnvelope(msgType, tenantID string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Type:      msgType,
		TenantID:  tenantID,
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Payload:   data,
	}, nil
}

func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// TicketCreated is the payload of a ticket.created envelope.
type TicketCreated struct {
	OrderID  string `json:"order_id"`
	Table    string `json:"table"`
	Total    string `json:"total"`
	Items    int    `json:"items"`
	Text     string `json:"text"`
	Printed  bool   `json:"printed"`
	QueuedID string `json:"queued_id"`
}

// OrderStatusChanged is the payload of an order.status envelope.
type OrderStatusChanged struct {
	OrderID string `json:"order_id"`
	Table   string `json:"table,omitempty"`
	Status  string `json:"status"`
}
