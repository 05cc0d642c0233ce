package defaultorder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kirana-labs/kirana/internal/entity"
	"github.com/kirana-labs/kirana/internal/identity"
	defaultorderrepo "github.com/kirana-labs/kirana/internal/repository/defaultorder"
	"github.com/kirana-labs/kirana/pkg/errorbank"
)

type fakeRepo struct {
	templates map[string]*entity.DefaultOrder
	catalog   []entity.CatalogItem
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{templates: map[string]*entity.DefaultOrder{}}
}

func (f *fakeRepo) GetByHotel(ctx context.Context, hotelID string) (*entity.DefaultOrder, error) {
	tpl, ok := f.templates[hotelID]
	if !ok {
		return nil, defaultorderrepo.ErrNotFound
	}
	return tpl, nil
}

func (f *fakeRepo) Upsert(ctx context.Context, hotelID string, items []entity.DefaultOrderItem) (*entity.DefaultOrder, error) {
	tpl := &entity.DefaultOrder{HotelID: hotelID, Items: items}
	f.templates[hotelID] = tpl
	return tpl, nil
}

func (f *fakeRepo) Catalog(ctx context.Context) ([]entity.CatalogItem, error) {
	return f.catalog, nil
}

func newService(repo TemplateRepository) *Service {
	return NewService(Params{Repository: repo, Logger: zap.NewNop()})
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

func TestUpsertAndGetOwnTemplate(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)
	ctx := context.Background()
	owner := hotelUser(t, "KIR001")

	tpl, err := svc.Upsert(ctx, owner, "", []ItemInput{
		{Name: "Rice", Quantity: 5, Price: 50, Unit: "kg"},
		{Name: "Milk", Quantity: 2, Price: 60, Unit: "liter"},
	})
	require.NoError(t, err)
	assert.Equal(t, "KIR001", tpl.HotelID)
	assert.Len(t, tpl.Items, 2)

	got, err := svc.Get(ctx, owner, "")
	require.NoError(t, err)
	assert.Equal(t, "KIR001", got.HotelID)
}

func TestUpsertScoping(t *testing.T) {
	svc := newService(newFakeRepo())
	ctx := context.Background()
	items := []ItemInput{{Name: "Rice", Quantity: 1, Price: 50, Unit: "kg"}}

	_, err := svc.Upsert(ctx, hotelUser(t, "KIR002"), "KIR001", items)
	assert.Equal(t, errorbank.KindForbidden, kind(err))

	_, err = svc.Upsert(ctx, identity.Admin("a1"), "", items)
	assert.Equal(t, errorbank.KindBadRequest, kind(err))

	tpl, err := svc.Upsert(ctx, identity.Admin("a1"), "KIR001", items)
	require.NoError(t, err)
	assert.Equal(t, "KIR001", tpl.HotelID)

	_, err = svc.Upsert(ctx, identity.Delivery("d1"), "KIR001", items)
	assert.Equal(t, errorbank.KindForbidden, kind(err))
}

func TestUpsertValidation(t *testing.T) {
	svc := newService(newFakeRepo())
	ctx := context.Background()
	owner := hotelUser(t, "KIR001")

	_, err := svc.Upsert(ctx, owner, "", nil)
	assert.Equal(t, errorbank.KindBadRequest, kind(err))

	_, err = svc.Upsert(ctx, owner, "", []ItemInput{{Name: "Rice", Quantity: 0, Price: 50}})
	assert.Equal(t, errorbank.KindBadRequest, kind(err))

	_, err = svc.Upsert(ctx, owner, "", []ItemInput{{Name: "", Quantity: 1, Price: 50}})
	assert.Equal(t, errorbank.KindBadRequest, kind(err))
}

func TestGetMissingTemplate(t *testing.T) {
	svc := newService(newFakeRepo())

	_, err := svc.Get(context.Background(), hotelUser(t, "KIR001"), "")
	assert.Equal(t, errorbank.KindNotFound, kind(err))
}

func TestCatalogRequiresAuthentication(t *testing.T) {
	repo := newFakeRepo()
	repo.catalog = []entity.CatalogItem{{ID: 1, Name: "Rice", Price: 50, Unit: "kg"}}
	svc := newService(repo)
	ctx := context.Background()

	items, err := svc.Catalog(ctx, hotelUser(t, "KIR001"))
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.Catalog(ctx, identity.Unauthenticated())
	assert.Equal(t, errorbank.KindForbidden, kind(err))
}
