package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Hotel is an ordering customer (restaurant or hotel).
type Hotel struct {
	bun.BaseModel `bun:"table:hotels,alias:h"`

	ID          string    `bun:"id,pk"`
	Name        string    `bun:"name,notnull"`
	OwnerName   string    `bun:"owner_name,notnull"`
	Phone       string    `bun:"phone,notnull"`
	Address     string    `bun:"address,notnull"`
	AddressLink string    `bun:"address_link,nullzero"`
	PushToken   string    `bun:"push_token,nullzero"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
