package dto

import "github.com/kirana-labs/kirana/internal/entity"

// CatalogItemResponse represents one grocery product.
type CatalogItemResponse struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Unit  string  `json:"unit"`
}

// NewCatalogResponse maps the product catalog, preserving order.
func NewCatalogResponse(items []entity.CatalogItem) []CatalogItemResponse {
	out := make([]CatalogItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, CatalogItemResponse{
			ID:    item.ID,
			Name:  item.Name,
			Price: item.Price,
			Unit:  item.Unit,
		})
	}
	return out
}

// DefaultOrderResponse represents a hotel's saved order template.
type DefaultOrderResponse struct {
	HotelID string              `json:"hotel_id"`
	Items   []OrderItemResponse `json:"items"`
}

// NewDefaultOrderResponse maps a default order template to its transport shape.
func NewDefaultOrderResponse(tpl *entity.DefaultOrder) DefaultOrderResponse {
	items := make([]OrderItemResponse, 0, len(tpl.Items))
	for _, item := range tpl.Items {
		items = append(items, OrderItemResponse{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Unit:     item.Unit,
		})
	}
	return DefaultOrderResponse{HotelID: tpl.HotelID, Items: items}
}
