package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kirana-labs/kirana/internal/config"
	"github.com/kirana-labs/kirana/internal/entity"
	"github.com/kirana-labs/kirana/internal/identity"
	defaultorderrepo "github.com/kirana-labs/kirana/internal/repository/defaultorder"
	hotelrepo "github.com/kirana-labs/kirana/internal/repository/hotel"
	orderrepo "github.com/kirana-labs/kirana/internal/repository/order"
	"github.com/kirana-labs/kirana/pkg/errorbank"
)

type fakeRepo struct {
	orders    map[string]*entity.Order
	createErr error
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[string]*entity.Order)}
}

func (f *fakeRepo) Create(ctx context.Context, order *entity.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	clone := *order
	f.orders[order.ID] = &clone
	return nil
}

func (f *fakeRepo) GetForViewer(ctx context.Context, viewer identity.Identity, id string) (*entity.Order, error) {
	order, ok := f.orders[id]
	if !ok || !visibleTo(viewer, order) {
		return nil, orderrepo.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeRepo) ListForViewer(ctx context.Context, viewer identity.Identity) ([]entity.Order, error) {
	var out []entity.Order
	for _, order := range f.orders {
		if visibleTo(viewer, order) {
			out = append(out, *order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id string, from, to entity.Status, at time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	order, ok := f.orders[id]
	if !ok {
		return orderrepo.ErrNotFound
	}
	if order.Status != from {
		return orderrepo.ErrStatusConflict
	}
	order.Status = to
	order.UpdatedAt = at
	return nil
}

type fakeHotels struct {
	known map[string]bool
}

func (f *fakeHotels) GetByID(ctx context.Context, id string) (*entity.Hotel, error) {
	if !f.known[id] {
		return nil, hotelrepo.ErrNotFound
	}
	return &entity.Hotel{ID: id}, nil
}

type fakeTemplates struct {
	byHotel map[string]*entity.DefaultOrder
}

func (f *fakeTemplates) GetByHotel(ctx context.Context, hotelID string) (*entity.DefaultOrder, error) {
	tpl, ok := f.byHotel[hotelID]
	if !ok {
		return nil, defaultorderrepo.ErrNotFound
	}
	return tpl, nil
}

type fakeFeed struct {
	published []string
}

func (f *fakeFeed) Publish(ctx context.Context, orderID string) error {
	f.published = append(f.published, orderID)
	return nil
}

func (f *fakeFeed) Subscribe(ctx context.Context) (<-chan string, func(), error) {
	return nil, nil, errors.New("not implemented")
}

type fixture struct {
	svc       *Service
	repo      *fakeRepo
	feed      *fakeFeed
	templates *fakeTemplates
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newFakeRepo()
	notifier := &fakeFeed{}
	templates := &fakeTemplates{byHotel: map[string]*entity.DefaultOrder{}}

	svc := NewService(Params{
		Repository: repo,
		Hotels:     &fakeHotels{known: map[string]bool{"KIR001": true, "KIR002": true}},
		Templates:  templates,
		Cache:      nil,
		Config:     config.Config{Messaging: config.Messaging{Enabled: false}},
		Logger:     zap.NewNop(),
		Publisher:  nil,
		Notifier:   notifier,
	})

	// deterministic ids and a strictly increasing clock
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("order-%d", seq)
	}
	tick := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	return &fixture{svc: svc, repo: repo, feed: notifier, templates: templates}
}

func kind(err error) errorbank.Kind {
	return errorbank.From(err).Kind()
}

func hotelUser(t *testing.T, hotelID string) identity.Identity {
	t.Helper()
	viewer, err := identity.HotelUser("u-"+hotelID, hotelID)
	require.NoError(t, err)
	return viewer
}

func TestPlaceOrderComputesTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, hotelUser(t, "KIR001"), PlaceOrderInput{
		Items: []ItemInput{{Name: "Rice", Quantity: 5, Price: 50, Unit: "kg"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 250.0, order.Total)
	assert.Equal(t, entity.StatusPending, order.Status)
	assert.Equal(t, "KIR001", order.HotelID)
	assert.False(t, order.CreatedAt.IsZero())
	assert.Equal(t, order.CreatedAt, order.UpdatedAt)

	require.Contains(t, f.repo.orders, order.ID)
	assert.Equal(t, []string{order.ID}, f.feed.published)
}

func TestPlaceOrderRejectsNoQualifyingItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		items []ItemInput
	}{
		{"empty", nil},
		{"all_zero_quantity", []ItemInput{
			{Name: "Rice", Quantity: 0, Price: 50, Unit: "kg"},
			{Name: "Milk", Quantity: 0, Price: 60, Unit: "liter"},
		}},
		{"negative_quantity", []ItemInput{{Name: "Rice", Quantity: -1, Price: 50, Unit: "kg"}}},
		{"negative_price", []ItemInput{{Name: "Rice", Quantity: 1, Price: -5, Unit: "kg"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(ctx, hotelUser(t, "KIR001"), PlaceOrderInput{Items: tt.items})
			require.Error(t, err)
			assert.Equal(t, errorbank.KindBadRequest, kind(err))
		})
	}
	assert.Empty(t, f.repo.orders, "no record may be created for rejected placements")
}

func TestPlaceOrderHotelScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	items := []ItemInput{{Name: "Rice", Quantity: 1, Price: 50, Unit: "kg"}}

	// a hotel user may not place for another hotel
	_, err := f.svc.PlaceOrder(ctx, hotelUser(t, "KIR002"), PlaceOrderInput{HotelID: "KIR001", Items: items})
	assert.Equal(t, errorbank.KindForbidden, kind(err))

	// delivery may not place at all
	_, err = f.svc.PlaceOrder(ctx, identity.Delivery("d1"), PlaceOrderInput{HotelID: "KIR001", Items: items})
	assert.Equal(t, errorbank.KindForbidden, kind(err))

	// admins must name a hotel, and it must exist
	_, err = f.svc.PlaceOrder(ctx, identity.Admin("a1"), PlaceOrderInput{Items: items})
	assert.Equal(t, errorbank.KindBadRequest, kind(err))

	_, err = f.svc.PlaceOrder(ctx, identity.Admin("a1"), PlaceOrderInput{HotelID: "KIR999", Items: items})
	assert.Equal(t, errorbank.KindBadRequest, kind(err))

	order, err := f.svc.PlaceOrder(ctx, identity.Admin("a1"), PlaceOrderInput{HotelID: "KIR002", Items: items})
	require.NoError(t, err)
	assert.Equal(t, "KIR002", order.HotelID)
}

func TestPlaceOrderPersistenceFailureLeavesNoState(t *testing.T) {
	f := newFixture(t)
	f.repo.createErr = errors.New("connection refused")

	_, err := f.svc.PlaceOrder(context.Background(), hotelUser(t, "KIR001"), PlaceOrderInput{
		Items: []ItemInput{{Name: "Rice", Quantity: 1, Price: 50, Unit: "kg"}},
	})
	require.Error(t, err)
	assert.Equal(t, errorbank.KindInternal, kind(err))
	assert.Empty(t, f.repo.orders)
	assert.Empty(t, f.feed.published, "no feed notice for failed writes")
}

func TestUpdateStatusFullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := identity.Admin("a1")
	courier := identity.Delivery("d1")

	placed, err := f.svc.PlaceOrder(ctx, hotelUser(t, "KIR001"), PlaceOrderInput{
		Items: []ItemInput{{Name: "Rice", Quantity: 5, Price: 50, Unit: "kg"}},
	})
	require.NoError(t, err)

	steps := []struct {
		viewer identity.Identity
		next   entity.Status
	}{
		{admin, entity.StatusConfirmed},
		{admin, entity.StatusReady},
		{courier, entity.StatusDelivering},
		{courier, entity.StatusCompleted},
	}

	prev := placed.UpdatedAt
	for _, step := range steps {
		order, err := f.svc.UpdateStatus(ctx, step.viewer, placed.ID, step.next)
		require.NoErrorf(t, err, "transition to %s", step.next)
		assert.Equal(t, step.next, order.Status)
		assert.Truef(t, order.UpdatedAt.After(prev), "updatedAt must strictly increase at %s", step.next)
		prev = order.UpdatedAt
	}
}

func TestUpdateStatusRejectsIllegalTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := identity.Admin("a1")

	placed, err := f.svc.PlaceOrder(ctx, hotelUser(t, "KIR001"), PlaceOrderInput{
		Items: []ItemInput{{Name: "Rice", Quantity: 1, Price: 50, Unit: "kg"}},
	})
	require.NoError(t, err)

	// pending cannot jump to ready
	_, err = f.svc.UpdateStatus(ctx, admin, placed.ID, entity.StatusReady)
	assert.Equal(t, errorbank.KindConflict, kind(err))
	assert.Equal(t, entity.StatusPending, f.repo.orders[placed.ID].Status)

	_, err = f.svc.UpdateStatus(ctx, admin, placed.ID, entity.StatusConfirmed)
	require.NoError(t, err)

	// terminal states accept nothing further
	_, err = f.svc.UpdateStatus(ctx, admin, placed.ID, entity.StatusFailed)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, admin, placed.ID, entity.StatusConfirmed)
	assert.Equal(t, errorbank.KindConflict, kind(err))
	assert.Equal(t, entity.StatusFailed, f.repo.orders[placed.ID].Status)
}

func TestUpdateStatusRolePolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := hotelUser(t, "KIR001")

	placed, err := f.svc.PlaceOrder(ctx, owner, PlaceOrderInput{
		Items: []ItemInput{{Name: "Rice", Quantity: 1, Price: 50, Unit: "kg"}},
	})
	require.NoError(t, err)

	// hotel users never mutate status
	_, err = f.svc.UpdateStatus(ctx, owner, placed.ID, entity.StatusConfirmed)
	assert.Equal(t, errorbank.KindForbidden, kind(err))

	// delivery cannot confirm
	_, err = f.svc.UpdateStatus(ctx, identity.Delivery("d1"), placed.ID, entity.StatusConfirmed)
	assert.Equal(t, errorbank.KindNotFound, kind(err), "pending orders are outside the delivery scope")

	// admin cannot mark delivering, even once the order is ready for pickup
	admin := identity.Admin("a1")
	_, err = f.svc.UpdateStatus(ctx, admin, placed.ID, entity.StatusConfirmed)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, admin, placed.ID, entity.StatusReady)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, admin, placed.ID, entity.StatusDelivering)
	assert.Equal(t, errorbank.KindForbidden, kind(err))
	assert.Equal(t, entity.StatusReady, f.repo.orders[placed.ID].Status)
}

func TestUpdateStatusRevertToPendingIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := identity.Admin("a1")

	placed, err := f.svc.PlaceOrder(ctx, hotelUser(t, "KIR001"), PlaceOrderInput{
		Items: []ItemInput{{Name: "Rice", Quantity: 5, Price: 50, Unit: "kg"}},
	})
	require.NoError(t, err)

	confirmed, err := f.svc.UpdateStatus(ctx, admin, placed.ID, entity.StatusConfirmed)
	require.NoError(t, err)
	assert.True(t, confirmed.UpdatedAt.After(placed.UpdatedAt))

	// pending is never a legal target, so the lifecycle answers before role policy
	_, err = f.svc.UpdateStatus(ctx, admin, placed.ID, entity.StatusPending)
	assert.Equal(t, errorbank.KindConflict, kind(err))
	assert.Equal(t, entity.StatusConfirmed, f.repo.orders[placed.ID].Status)
	assert.Equal(t, confirmed.UpdatedAt, f.repo.orders[placed.ID].UpdatedAt)
}

func TestUpdateStatusOutsideScopeIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	placed, err := f.svc.PlaceOrder(ctx, hotelUser(t, "KIR001"), PlaceOrderInput{
		Items: []ItemInput{{Name: "Rice", Quantity: 1, Price: 50, Unit: "kg"}},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, hotelUser(t, "KIR002"), placed.ID, entity.StatusConfirmed)
	assert.Equal(t, errorbank.KindNotFound, kind(err))

	_, err = f.svc.Get(ctx, hotelUser(t, "KIR002"), placed.ID)
	assert.Equal(t, errorbank.KindNotFound, kind(err))
}

func TestUpdateStatusConcurrentConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	placed, err := f.svc.PlaceOrder(ctx, hotelUser(t, "KIR001"), PlaceOrderInput{
		Items: []ItemInput{{Name: "Rice", Quantity: 1, Price: 50, Unit: "kg"}},
	})
	require.NoError(t, err)

	f.repo.updateErr = orderrepo.ErrStatusConflict
	_, err = f.svc.UpdateStatus(ctx, identity.Admin("a1"), placed.ID, entity.StatusConfirmed)
	assert.Equal(t, errorbank.KindConflict, kind(err))
}

func TestListForViewerScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := identity.Admin("a1")

	first, err := f.svc.PlaceOrder(ctx, hotelUser(t, "KIR001"), PlaceOrderInput{
		Items: []ItemInput{{Name: "Rice", Quantity: 1, Price: 50, Unit: "kg"}},
	})
	require.NoError(t, err)
	_, err = f.svc.PlaceOrder(ctx, hotelUser(t, "KIR002"), PlaceOrderInput{
		Items: []ItemInput{{Name: "Milk", Quantity: 2, Price: 60, Unit: "liter"}},
	})
	require.NoError(t, err)

	// hotel user sees only their own hotel's orders
	orders, err := f.svc.ListForViewer(ctx, hotelUser(t, "KIR002"))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "KIR002", orders[0].HotelID)

	// delivery sees nothing until an order is ready
	orders, err = f.svc.ListForViewer(ctx, identity.Delivery("d1"))
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = f.svc.UpdateStatus(ctx, admin, first.ID, entity.StatusConfirmed)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, admin, first.ID, entity.StatusReady)
	require.NoError(t, err)

	orders, err = f.svc.ListForViewer(ctx, identity.Delivery("d1"))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, first.ID, orders[0].ID)

	orders, err = f.svc.ListForViewer(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	orders, err = f.svc.ListForViewer(ctx, identity.Unauthenticated())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceDefaultOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.templates.byHotel["KIR001"] = &entity.DefaultOrder{
		HotelID: "KIR001",
		Items: []entity.DefaultOrderItem{
			{Name: "Rice", Quantity: 5, Price: 50, Unit: "kg"},
			{Name: "Cooking Oil", Quantity: 3, Price: 120, Unit: "liter"},
		},
	}

	order, err := f.svc.PlaceDefaultOrder(ctx, hotelUser(t, "KIR001"), "")
	require.NoError(t, err)
	assert.Equal(t, 610.0, order.Total)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, entity.StatusPending, order.Status)

	_, err = f.svc.PlaceDefaultOrder(ctx, hotelUser(t, "KIR002"), "")
	assert.Equal(t, errorbank.KindNotFound, kind(err))
}
