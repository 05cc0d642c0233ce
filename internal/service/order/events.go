package order

import (
	"time"

	"github.com/kirana-labs/kirana/internal/entity"
)

// Event types published to the order events topic.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// Event is emitted on the message bus for every order mutation. PrevStatus
// and Total are populated depending on the event type.
type Event struct {
	Type       string        `json:"type"`
	OrderID    string        `json:"order_id"`
	HotelID    string        `json:"hotel_id"`
	Status     entity.Status `json:"status"`
	PrevStatus entity.Status `json:"prev_status,omitempty"`
	Total      float64       `json:"total,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}
