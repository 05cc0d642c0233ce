package hotel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kirana-labs/kirana/internal/entity"
	"github.com/kirana-labs/kirana/internal/identity"
	hotelrepo "github.com/kirana-labs/kirana/internal/repository/hotel"
	"github.com/kirana-labs/kirana/pkg/errorbank"
)

// idPrefix is the registry's hotel id scheme: KIR001, KIR002, ...
const idPrefix = "KIR"

// HotelRepository is the persistence surface the service needs.
type HotelRepository interface {
	Create(ctx context.Context, h *entity.Hotel) error
	GetByID(ctx context.Context, id string) (*entity.Hotel, error)
	List(ctx context.Context) ([]entity.Hotel, error)
	SetPushToken(ctx context.Context, id, token string) error
}

// CreateInput carries a hotel registration request.
type CreateInput struct {
	Name        string
	OwnerName   string
	Phone       string
	Address     string
	AddressLink string
}

// Service manages the hotel registry.
type Service struct {
	repo   HotelRepository
	logger *zap.Logger
	now    func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository HotelRepository
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:   p.Repository,
		logger: p.Logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a hotel under the next free KIR-prefixed id. Registration
// is an admin operation.
func (s *Service) Create(ctx context.Context, viewer identity.Identity, in CreateInput) (*entity.Hotel, error) {
	if viewer.Role() != identity.RoleAdmin {
		return nil, errorbank.Forbidden("only admins may register hotels")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, errorbank.BadRequest("hotel name is required")
	}

	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to list hotels", errorbank.WithCause(err))
	}

	h := &entity.Hotel{
		ID:          nextID(existing),
		Name:        in.Name,
		OwnerName:   in.OwnerName,
		Phone:       in.Phone,
		Address:     in.Address,
		AddressLink: in.AddressLink,
		CreatedAt:   s.now(),
	}

	if err := s.repo.Create(ctx, h); err != nil {
		if errors.Is(err, hotelrepo.ErrDuplicateID) {
			return nil, errorbank.Conflict("hotel id already taken", errorbank.WithDetail("hotel_id", h.ID))
		}
		return nil, errorbank.Internal("failed to register hotel", errorbank.WithCause(err))
	}

	s.logger.Info("hotel registered", zap.String("id", h.ID), zap.String("name", h.Name))
	return h, nil
}

// Get fetches one hotel. Hotel users may only read their own record.
func (s *Service) Get(ctx context.Context, viewer identity.Identity, id string) (*entity.Hotel, error) {
	switch viewer.Role() {
	case identity.RoleAdmin, identity.RoleDelivery:
	case identity.RoleHotelUser:
		if own, _ := viewer.HotelID(); own != id {
			return nil, errorbank.NotFound("hotel not found")
		}
	default:
		return nil, errorbank.NotFound("hotel not found")
	}

	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, hotelrepo.ErrNotFound) {
			return nil, errorbank.NotFound("hotel not found")
		}
		return nil, errorbank.Internal("failed to load hotel", errorbank.WithCause(err))
	}
	return h, nil
}

// List returns all hotels for admins, newest first.
func (s *Service) List(ctx context.Context, viewer identity.Identity) ([]entity.Hotel, error) {
	if viewer.Role() != identity.RoleAdmin {
		return nil, errorbank.Forbidden("only admins may list hotels")
	}
	hotels, err := s.repo.List(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to list hotels", errorbank.WithCause(err))
	}
	return hotels, nil
}

// SetPushToken stores the push-notification token for a hotel. A hotel user
// may only update their own token.
func (s *Service) SetPushToken(ctx context.Context, viewer identity.Identity, id, token string) error {
	switch viewer.Role() {
	case identity.RoleAdmin:
	case identity.RoleHotelUser:
		if own, _ := viewer.HotelID(); own != id {
			return errorbank.Forbidden("cannot update another hotel's push token")
		}
	default:
		return errorbank.Forbidden("role may not update push tokens")
	}
	if token == "" {
		return errorbank.BadRequest("push token is required")
	}

	if err := s.repo.SetPushToken(ctx, id, token); err != nil {
		if errors.Is(err, hotelrepo.ErrNotFound) {
			return errorbank.NotFound("hotel not found")
		}
		return errorbank.Internal("failed to store push token", errorbank.WithCause(err))
	}
	return nil
}

// nextID picks the smallest unused KIR id above the current maximum.
func nextID(hotels []entity.Hotel) string {
	max := 0
	for _, h := range hotels {
		n, ok := parseID(h.ID)
		if ok && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", idPrefix, max+1)
}

func parseID(id string) (int, bool) {
	if !strings.HasPrefix(id, idPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, idPrefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
