package defaultorder

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kirana-labs/kirana/internal/entity"
	"github.com/kirana-labs/kirana/internal/identity"
	defaultorderrepo "github.com/kirana-labs/kirana/internal/repository/defaultorder"
	"github.com/kirana-labs/kirana/pkg/errorbank"
)

// TemplateRepository is the persistence surface the service needs.
type TemplateRepository interface {
	GetByHotel(ctx context.Context, hotelID string) (*entity.DefaultOrder, error)
	Upsert(ctx context.Context, hotelID string, items []entity.DefaultOrderItem) (*entity.DefaultOrder, error)
	Catalog(ctx context.Context) ([]entity.CatalogItem, error)
}

// ItemInput is one template line.
type ItemInput struct {
	Name     string
	Quantity int
	Price    float64
	Unit     string
}

// Service manages per-hotel default order templates and the product catalog.
type Service struct {
	repo   TemplateRepository
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository TemplateRepository
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{repo: p.Repository, logger: p.Logger}
}

// Get returns the hotel's template. Hotel users read their own; admins read
// any.
func (s *Service) Get(ctx context.Context, viewer identity.Identity, hotelID string) (*entity.DefaultOrder, error) {
	resolved, err := resolveHotel(viewer, hotelID)
	if err != nil {
		return nil, err
	}

	tpl, err := s.repo.GetByHotel(ctx, resolved)
	if err != nil {
		if errors.Is(err, defaultorderrepo.ErrNotFound) {
			return nil, errorbank.NotFound("no default order for hotel")
		}
		return nil, errorbank.Internal("failed to load default order", errorbank.WithCause(err))
	}
	return tpl, nil
}

// Upsert replaces the hotel's template lines.
func (s *Service) Upsert(ctx context.Context, viewer identity.Identity, hotelID string, items []ItemInput) (*entity.DefaultOrder, error) {
	resolved, err := resolveHotel(viewer, hotelID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errorbank.BadRequest("template has no items")
	}

	lines := make([]entity.DefaultOrderItem, 0, len(items))
	for _, in := range items {
		if in.Name == "" {
			return nil, errorbank.BadRequest("item name is required")
		}
		if in.Quantity <= 0 {
			return nil, errorbank.BadRequest("item quantity must be positive", errorbank.WithDetail("name", in.Name))
		}
		if in.Price < 0 {
			return nil, errorbank.BadRequest("item price cannot be negative", errorbank.WithDetail("name", in.Name))
		}
		lines = append(lines, entity.DefaultOrderItem{
			Name:     in.Name,
			Quantity: in.Quantity,
			Price:    in.Price,
			Unit:     in.Unit,
		})
	}

	tpl, err := s.repo.Upsert(ctx, resolved, lines)
	if err != nil {
		return nil, errorbank.Internal("failed to save default order", errorbank.WithCause(err))
	}

	s.logger.Info("default order saved", zap.String("hotel_id", resolved), zap.Int("items", len(lines)))
	return tpl, nil
}

// Catalog lists the grocery products available for ordering. Any
// authenticated viewer may browse it.
func (s *Service) Catalog(ctx context.Context, viewer identity.Identity) ([]entity.CatalogItem, error) {
	if viewer.Role() == identity.RoleUnauthenticated {
		return nil, errorbank.Forbidden("authentication required")
	}
	items, err := s.repo.Catalog(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to load catalog", errorbank.WithCause(err))
	}
	return items, nil
}

// resolveHotel decides which hotel's template the viewer addresses.
func resolveHotel(viewer identity.Identity, requested string) (string, error) {
	switch viewer.Role() {
	case identity.RoleHotelUser:
		own, _ := viewer.HotelID()
		if requested != "" && requested != own {
			return "", errorbank.Forbidden("cannot manage another hotel's default order")
		}
		return own, nil
	case identity.RoleAdmin:
		if requested == "" {
			return "", errorbank.BadRequest("hotel_id is required")
		}
		return requested, nil
	default:
		return "", errorbank.Forbidden("role may not manage default orders")
	}
}
