package redisx

import "time"

const (
	// Cached joined order payload: order:detail:{order_id} -> serialized order
	KeyOrderDetail = "order:detail:%s"

	// Dedup for event consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)
