package seeder

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/kirana-labs/kirana/internal/database"
	"github.com/kirana-labs/kirana/internal/entity"
)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// All runs every seeder in dependency order.
func (s *Seeder) All(ctx context.Context) error {
	if err := s.Hotels(ctx); err != nil {
		return err
	}
	if err := s.Catalog(ctx); err != nil {
		return err
	}
	return s.DefaultOrders(ctx)
}

// Hotels seeds the hotel registry if entries are missing.
func (s *Seeder) Hotels(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Hotel{
		{
			ID:          "KIR001",
			Name:        "Hotel Sunshine",
			OwnerName:   "John Doe",
			Phone:       "+91 9876543210",
			Address:     "123 Main Street, City Center, Hyderabad, 500001",
			AddressLink: "https://maps.google.com/?q=17.385044,78.486671",
			CreatedAt:   now,
		},
		{
			ID:          "KIR002",
			Name:        "Grand Restaurant",
			OwnerName:   "Jane Smith",
			Phone:       "+91 9876543211",
			Address:     "456 Park Avenue, Jubilee Hills, Hyderabad, 500033",
			AddressLink: "https://maps.google.com/?q=17.431915,78.409682",
			CreatedAt:   now,
		},
		{
			ID:          "KIR003",
			Name:        "Spice Garden",
			OwnerName:   "Raj Kumar",
			Phone:       "+91 9876543212",
			Address:     "789 Food Street, Gachibowli, Hyderabad, 500032",
			AddressLink: "https://maps.google.com/?q=17.441242,78.348351",
			CreatedAt:   now,
		},
	}

	for _, sample := range samples {
		hotel := sample
		_, err := s.db.NewInsert().Model(&hotel).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	s.logger.Info("seeded hotels", zap.Int("count", len(samples)))
	return nil
}

// Catalog seeds the grocery catalog if entries are missing.
func (s *Seeder) Catalog(ctx context.Context) error {
	samples := []entity.CatalogItem{
		{Name: "Rice", Price: 50, Unit: "kg"},
		{Name: "Wheat Flour", Price: 40, Unit: "kg"},
		{Name: "Sugar", Price: 45, Unit: "kg"},
		{Name: "Cooking Oil", Price: 120, Unit: "liter"},
		{Name: "Milk", Price: 60, Unit: "liter"},
		{Name: "Tomatoes", Price: 30, Unit: "kg"},
		{Name: "Onions", Price: 25, Unit: "kg"},
		{Name: "Potatoes", Price: 20, Unit: "kg"},
		{Name: "Lentils", Price: 90, Unit: "kg"},
		{Name: "Salt", Price: 15, Unit: "kg"},
	}

	for _, sample := range samples {
		item := sample
		_, err := s.db.NewInsert().Model(&item).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	s.logger.Info("seeded catalog", zap.Int("count", len(samples)))
	return nil
}

// DefaultOrders seeds a starter template per hotel.
func (s *Seeder) DefaultOrders(ctx context.Context) error {
	templates := map[string][]entity.DefaultOrderItem{
		"KIR001": {
			{Name: "Rice", Quantity: 5, Price: 50, Unit: "kg"},
			{Name: "Cooking Oil", Quantity: 3, Price: 120, Unit: "liter"},
			{Name: "Onions", Quantity: 4, Price: 25, Unit: "kg"},
		},
		"KIR002": {
			{Name: "Wheat Flour", Quantity: 10, Price: 40, Unit: "kg"},
			{Name: "Milk", Quantity: 6, Price: 60, Unit: "liter"},
		},
	}

	for hotelID, items := range templates {
		tpl := &entity.DefaultOrder{HotelID: hotelID}
		err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			res, err := tx.NewInsert().Model(tpl).
				On("CONFLICT (hotel_id) DO NOTHING").
				Returning("id").
				Exec(ctx)
			if err != nil {
				return err
			}
			if rows, err := res.RowsAffected(); err == nil && rows == 0 {
				// template already present; leave it alone
				return nil
			}
			for i := range items {
				item := items[i]
				item.DefaultOrderID = tpl.ID
				if _, err := tx.NewInsert().Model(&item).Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	s.logger.Info("seeded default orders", zap.Int("count", len(templates)))
	return nil
}
