package orders

import (
	"encoding/json"
	"time"
)

const EventOrderCreated = "OrderCreated"

type Envelope struct {
	EventID      string          `json:"event_id"` // uuid
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"` // 1
	OccurredAt   time.Time       `json:"occurred_at"`   // RFC3339
	Producer     string          `json:"producer"`      // e.g. "store-api"
	TraceID      string          `json:"trace_id,omitempty"`
	Payload      json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderCreatedPayload struct {
	OrderID      string    `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	Status       Status    `json:"status"`
	Total        string    `json:"total"` // decimal string, 2dp
	Items        []ItemQty `json:"items"`
}
