package entity

import "github.com/uptrace/bun"

// CatalogItem is a grocery product available for ordering.
type CatalogItem struct {
	bun.BaseModel `bun:"table:catalog_items,alias:ci"`

	ID    int64   `bun:",pk,autoincrement"`
	Name  string  `bun:"name,notnull,unique"`
	Price float64 `bun:"price,notnull"`
	Unit  string  `bun:"unit,notnull"`
}

// DefaultOrder is a per-hotel recurring order template maintained by the admin.
type DefaultOrder struct {
	bun.BaseModel `bun:"table:default_orders,alias:do"`

	ID      int64              `bun:",pk,autoincrement"`
	HotelID string             `bun:"hotel_id,notnull,unique"`
	Items   []DefaultOrderItem `bun:"rel:has-many,join:id=default_order_id"`
}

// DefaultOrderItem is a single line of a default order template.
type DefaultOrderItem struct {
	bun.BaseModel `bun:"table:default_order_items,alias:doi"`

	ID             int64   `bun:",pk,autoincrement"`
	DefaultOrderID int64   `bun:"default_order_id,notnull"`
	Name           string  `bun:"name,notnull"`
	Quantity       int     `bun:"quantity,notnull"`
	Price          float64 `bun:"price,notnull"`
	Unit           string  `bun:"unit,notnull"`
}
