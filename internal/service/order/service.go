package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kirana-labs/kirana/internal/cache"
	"github.com/kirana-labs/kirana/internal/config"
	"github.com/kirana-labs/kirana/internal/entity"
	"github.com/kirana-labs/kirana/internal/feed"
	"github.com/kirana-labs/kirana/internal/identity"
	"github.com/kirana-labs/kirana/internal/messaging"
	defaultorderrepo "github.com/kirana-labs/kirana/internal/repository/defaultorder"
	hotelrepo "github.com/kirana-labs/kirana/internal/repository/hotel"
	orderrepo "github.com/kirana-labs/kirana/internal/repository/order"
	"github.com/kirana-labs/kirana/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/kirana-labs/kirana/service/order")

// OrderRepository is the persistence surface the service needs.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetForViewer(ctx context.Context, viewer identity.Identity, id string) (*entity.Order, error)
	ListForViewer(ctx context.Context, viewer identity.Identity) ([]entity.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to entity.Status, at time.Time) error
}

// HotelDirectory resolves hotel ids at placement time.
type HotelDirectory interface {
	GetByID(ctx context.Context, id string) (*entity.Hotel, error)
}

// TemplateSource resolves a hotel's default order template.
type TemplateSource interface {
	GetByHotel(ctx context.Context, hotelID string) (*entity.DefaultOrder, error)
}

// ItemInput is one requested order line.
type ItemInput struct {
	Name     string
	Quantity int
	Price    float64
	Unit     string
}

// PlaceOrderInput carries a placement request.
type PlaceOrderInput struct {
	HotelID string
	Note    string
	Items   []ItemInput
}

// roleTargets lists which target statuses each role may write.
var roleTargets = map[identity.Role]map[entity.Status]bool{
	identity.RoleAdmin: {
		entity.StatusConfirmed: true,
		entity.StatusReady:     true,
		entity.StatusFailed:    true,
	},
	identity.RoleDelivery: {
		entity.StatusDelivering: true,
		entity.StatusCompleted:  true,
		entity.StatusFailed:     true,
	},
}

// Service encapsulates business logic around orders. Mutations are
// write-then-reconcile: nothing mutates subscriber-visible state directly,
// live views catch up via the feed.
type Service struct {
	repo      OrderRepository
	hotels    HotelDirectory
	templates TemplateSource
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	notifier  feed.Notifier
	messaging messagingConfig

	now   func() time.Time
	newID func() string
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository OrderRepository
	Hotels     HotelDirectory
	Templates  TemplateSource
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
	Notifier   feed.Notifier
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:      p.Repository,
		hotels:    p.Hotels,
		templates: p.Templates,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		notifier:  p.Notifier,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// PlaceOrder validates and persists a new order in pending state.
func (s *Service) PlaceOrder(ctx context.Context, viewer identity.Identity, in PlaceOrderInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.PlaceOrder", trace.WithAttributes(
		attribute.String("viewer.role", viewer.Role().String()),
	))
	defer span.End()

	hotelID, err := s.resolvePlacementHotel(viewer, in.HotelID)
	if err != nil {
		return nil, err
	}

	items, err := buildItems(in.Items)
	if err != nil {
		return nil, err
	}

	if _, err := s.hotels.GetByID(ctx, hotelID); err != nil {
		if errors.Is(err, hotelrepo.ErrNotFound) {
			return nil, errorbank.BadRequest("unknown hotel", errorbank.WithDetail("hotel_id", hotelID))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "hotel lookup failed")
		return nil, errorbank.Internal("failed to resolve hotel", errorbank.WithCause(err))
	}

	now := s.now()
	order := &entity.Order{
		ID:        s.newID(),
		HotelID:   hotelID,
		Items:     items,
		Total:     entity.OrderTotal(items),
		Status:    entity.StatusPending,
		Note:      in.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	if err := s.repo.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to place order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", order.ID), zap.Error(err))
	}

	s.publishEvent(ctx, Event{
		Type:       EventOrderPlaced,
		OrderID:    order.ID,
		HotelID:    order.HotelID,
		Status:     order.Status,
		Total:      order.Total,
		OccurredAt: now,
	})
	s.notifyFeed(ctx, order.ID)

	return order, nil
}

// PlaceDefaultOrder places an order from the hotel's default template.
func (s *Service) PlaceDefaultOrder(ctx context.Context, viewer identity.Identity, hotelID string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.PlaceDefaultOrder")
	defer span.End()

	resolved, err := s.resolvePlacementHotel(viewer, hotelID)
	if err != nil {
		return nil, err
	}

	tpl, err := s.templates.GetByHotel(ctx, resolved)
	if err != nil {
		if errors.Is(err, defaultorderrepo.ErrNotFound) {
			return nil, errorbank.NotFound("no default order for hotel")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "template lookup failed")
		return nil, errorbank.Internal("failed to load default order", errorbank.WithCause(err))
	}

	in := PlaceOrderInput{HotelID: resolved}
	for _, item := range tpl.Items {
		in.Items = append(in.Items, ItemInput{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Unit:     item.Unit,
		})
	}
	return s.PlaceOrder(ctx, viewer, in)
}

// UpdateStatus advances an order through its lifecycle: scope check first,
// then the transition guard, then role policy, then a status-conditional
// write. The guard runs before the policy so that a target no transition
// permits reads as a lifecycle conflict rather than a role denial.
func (s *Service) UpdateStatus(ctx context.Context, viewer identity.Identity, id string, next entity.Status) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status.next", string(next)),
	))
	defer span.End()

	order, err := s.repo.GetForViewer(ctx, viewer, id)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if !order.Status.CanTransition(next) {
		return nil, errorbank.Conflict("invalid status transition",
			errorbank.WithDetail("from", string(order.Status)),
			errorbank.WithDetail("to", string(next)),
		)
	}

	if !roleTargets[viewer.Role()][next] {
		return nil, errorbank.Forbidden(
			fmt.Sprintf("role %s may not mark orders %s", viewer.Role(), next),
		)
	}

	now := s.now()
	if err := s.repo.UpdateStatus(ctx, id, order.Status, next, now); err != nil {
		switch {
		case errors.Is(err, orderrepo.ErrNotFound):
			return nil, errorbank.NotFound("order not found")
		case errors.Is(err, orderrepo.ErrStatusConflict):
			return nil, errorbank.Conflict("order status changed concurrently",
				errorbank.WithDetail("to", string(next)),
			)
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Internal("failed to update order status", errorbank.WithCause(err))
		}
	}

	prev := order.Status
	order.Status = next
	order.UpdatedAt = now

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", order.ID), zap.Error(err))
	}

	s.publishEvent(ctx, Event{
		Type:       EventOrderStatusChanged,
		OrderID:    order.ID,
		HotelID:    order.HotelID,
		Status:     next,
		PrevStatus: prev,
		OccurredAt: now,
	})
	s.notifyFeed(ctx, order.ID)

	return order, nil
}

// Get retrieves an order within the viewer's scope, consulting cache first.
func (s *Service) Get(ctx context.Context, viewer identity.Identity, id string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		if !visibleTo(viewer, order) {
			return nil, errorbank.NotFound("order not found")
		}
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.String("id", id), zap.Error(err))
	}

	order, err := s.repo.GetForViewer(ctx, viewer, id)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", id), zap.Error(err))
	}

	return order, nil
}

// ListForViewer returns the viewer's visible orders, newest first.
func (s *Service) ListForViewer(ctx context.Context, viewer identity.Identity) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListForViewer", trace.WithAttributes(
		attribute.String("viewer.role", viewer.Role().String()),
	))
	defer span.End()

	orders, err := s.repo.ListForViewer(ctx, viewer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// resolvePlacementHotel decides which hotel an order is placed for. Hotel
// users place for their own hotel only; admins place for any hotel.
func (s *Service) resolvePlacementHotel(viewer identity.Identity, requested string) (string, error) {
	switch viewer.Role() {
	case identity.RoleHotelUser:
		own, _ := viewer.HotelID()
		if requested != "" && requested != own {
			return "", errorbank.Forbidden("cannot place orders for another hotel")
		}
		return own, nil
	case identity.RoleAdmin:
		if requested == "" {
			return "", errorbank.BadRequest("hotel_id is required")
		}
		return requested, nil
	default:
		return "", errorbank.Forbidden("role may not place orders")
	}
}

// buildItems validates requested lines. At least one line must have a
// positive quantity; negative quantities or prices reject the order.
func buildItems(inputs []ItemInput) ([]entity.OrderItem, error) {
	if len(inputs) == 0 {
		return nil, errorbank.BadRequest("order has no items")
	}

	items := make([]entity.OrderItem, 0, len(inputs))
	for i, in := range inputs {
		if in.Name == "" {
			return nil, errorbank.BadRequest("item name is required", errorbank.WithDetail("index", i))
		}
		if in.Quantity < 0 {
			return nil, errorbank.BadRequest("item quantity cannot be negative", errorbank.WithDetail("name", in.Name))
		}
		if in.Price < 0 {
			return nil, errorbank.BadRequest("item price cannot be negative", errorbank.WithDetail("name", in.Name))
		}
		items = append(items, entity.OrderItem{
			Name:     in.Name,
			Quantity: in.Quantity,
			Price:    in.Price,
			Unit:     in.Unit,
		})
	}

	if entity.QualifyingItems(items) == 0 {
		return nil, errorbank.BadRequest("order needs at least one item with quantity > 0")
	}
	return items, nil
}

// visibleTo mirrors the repository's viewer scope for cached reads.
func visibleTo(viewer identity.Identity, order *entity.Order) bool {
	switch viewer.Role() {
	case identity.RoleAdmin:
		return true
	case identity.RoleDelivery:
		return order.Status == entity.StatusReady || order.Status == entity.StatusDelivering
	case identity.RoleHotelUser:
		hotelID, ok := viewer.HotelID()
		return ok && hotelID == order.HotelID
	default:
		return false
	}
}

func (s *Service) notifyFeed(ctx context.Context, orderID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, orderID); err != nil {
		s.logger.Warn("order feed publish failed", zap.String("id", orderID), zap.Error(err))
	}
}

func (s *Service) publishEvent(ctx context.Context, event Event) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, []byte("order-"+event.OrderID), payload); err != nil {
		s.logger.Error("publish order event", zap.String("type", event.Type), zap.Error(err))
	}
}

func (s *Service) cacheKey(id string) string {
	return fmt.Sprintf("orders:%s", id)
}

func (s *Service) getFromCache(ctx context.Context, id string) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
}
