package dto

import (
	"time"

	"github.com/kirana-labs/kirana/internal/entity"
)

// OrderItemResponse represents one order line as exposed via transport layers.
type OrderItemResponse struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Unit     string  `json:"unit"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID        string              `json:"id"`
	HotelID   string              `json:"hotel_id"`
	Items     []OrderItemResponse `json:"items"`
	Total     float64             `json:"total"`
	Status    string              `json:"status"`
	Note      string              `json:"note,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// NewOrderResponse maps an order entity to its transport shape.
func NewOrderResponse(order *entity.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Unit:     item.Unit,
		})
	}
	return OrderResponse{
		ID:        order.ID,
		HotelID:   order.HotelID,
		Items:     items,
		Total:     order.Total,
		Status:    string(order.Status),
		Note:      order.Note,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

// NewOrderListResponse maps a slice of orders, preserving order.
func NewOrderListResponse(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}
