package dto

import (
	"time"

	"github.com/kirana-labs/kirana/internal/entity"
)

// HotelResponse represents a hotel as exposed via transport layers. The push
// token is write-only and never rendered.
type HotelResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerName   string    `json:"owner_name,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	AddressLink string    `json:"address_link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewHotelResponse maps a hotel entity to its transport shape.
func NewHotelResponse(h *entity.Hotel) HotelResponse {
	return HotelResponse{
		ID:          h.ID,
		Name:        h.Name,
		OwnerName:   h.OwnerName,
		Phone:       h.Phone,
		Address:     h.Address,
		AddressLink: h.AddressLink,
		CreatedAt:   h.CreatedAt,
	}
}

// NewHotelListResponse maps a slice of hotels, preserving order.
func NewHotelListResponse(hotels []entity.Hotel) []HotelResponse {
	out := make([]HotelResponse, 0, len(hotels))
	for i := range hotels {
		out = append(out, NewHotelResponse(&hotels[i]))
	}
	return out
}
