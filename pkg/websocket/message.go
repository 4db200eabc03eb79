package websocket

import "time"

const (
	MessageOrderStatusChanged = "order.status.changed"
	MessageOrderCreated       = "order.created"
)

// Envelope - конверт сообщения; по Type фронтенд решает, что делать.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type OrderStatusChangedPayload struct {
	OrderID       uint64    `json:"order_id"`
	OrderNumber   *string   `json:"order_number"`
	BankID        uint64    `json:"bank_id"`
	OldStatusID   uint64    `json:"old_status_id"`
	NewStatusID   uint64    `json:"new_status_id"`
	NewStatus     string    `json:"new_status"`
	ChangedByID   uint64    `json:"changed_by_id"`
	ChangedByName string    `json:"changed_by_name"`
	ChangedAt     time.Time `json:"changed_at"`
}
