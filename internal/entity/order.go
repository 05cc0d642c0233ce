package entity

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Status is the lifecycle stage of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusReady      Status = "ready"
	StatusDelivering Status = "delivering"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// transitions holds the forward edges of the order lifecycle. failed is
// reachable from every non-terminal state; completed and failed are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusFailed},
	StatusConfirmed:  {StatusReady, StatusFailed},
	StatusReady:      {StatusDelivering, StatusFailed},
	StatusDelivering: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := transitions[s]; !ok {
		return "", fmt.Errorf("unknown order status: %q", raw)
	}
	return s, nil
}

// Terminal reports whether no further transitions are accepted from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is a legal lifecycle step.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a grocery order placed by a hotel, stored in the relational database.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID        string      `bun:"id,pk"`
	HotelID   string      `bun:"hotel_id,notnull"`
	Items     []OrderItem `bun:"rel:has-many,join:id=order_id"`
	Total     float64     `bun:"total,notnull"`
	Status    Status      `bun:"status,notnull"`
	Note      string      `bun:"note,nullzero"`
	CreatedAt time.Time   `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time   `bun:"updated_at,nullzero"`
}

// OrderItem is a single line of an order.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID       int64   `bun:",pk,autoincrement"`
	OrderID  string  `bun:"order_id,notnull"`
	Name     string  `bun:"name,notnull"`
	Quantity int     `bun:"quantity,notnull"`
	Price    float64 `bun:"price,notnull"`
	Unit     string  `bun:"unit,notnull"`
}

// OrderTotal sums quantity*price over items with quantity > 0. Computed once
// at placement time; never recomputed for persisted orders.
func OrderTotal(items []OrderItem) float64 {
	var total float64
	for _, item := range items {
		if item.Quantity > 0 {
			total += float64(item.Quantity) * item.Price
		}
	}
	return total
}

// QualifyingItems counts items with quantity > 0. An order needs at least one.
func QualifyingItems(items []OrderItem) int {
	n := 0
	for _, item := range items {
		if item.Quantity > 0 {
			n++
		}
	}
	return n
}
