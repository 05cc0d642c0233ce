package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kirana-labs/kirana/internal/entity"
	"github.com/kirana-labs/kirana/internal/identity"
	ordersvc "github.com/kirana-labs/kirana/internal/service/order"
	"github.com/kirana-labs/kirana/pkg/errorbank"
)

type fakeService struct {
	placed   *ordersvc.PlaceOrderInput
	order    *entity.Order
	orders   []entity.Order
	err      error
	nextArg  entity.Status
	idArg    string
}

func (f *fakeService) PlaceOrder(ctx context.Context, viewer identity.Identity, in ordersvc.PlaceOrderInput) (*entity.Order, error) {
	f.placed = &in
	return f.order, f.err
}

func (f *fakeService) PlaceDefaultOrder(ctx context.Context, viewer identity.Identity, hotelID string) (*entity.Order, error) {
	return f.order, f.err
}

func (f *fakeService) UpdateStatus(ctx context.Context, viewer identity.Identity, id string, next entity.Status) (*entity.Order, error) {
	f.idArg = id
	f.nextArg = next
	return f.order, f.err
}

func (f *fakeService) Get(ctx context.Context, viewer identity.Identity, id string) (*entity.Order, error) {
	f.idArg = id
	return f.order, f.err
}

func (f *fakeService) ListForViewer(ctx context.Context, viewer identity.Identity) ([]entity.Order, error) {
	return f.orders, f.err
}

func sampleOrder() *entity.Order {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return &entity.Order{
		ID:      "o-1",
		HotelID: "KIR001",
		Items: []entity.OrderItem{
			{Name: "Rice", Quantity: 5, Price: 50, Unit: "kg"},
		},
		Total:     250,
		Status:    entity.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func perform(t *testing.T, svc OrderService, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h := NewHandler(svc, nil, zap.NewNop())

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	parts := strings.Split(strings.TrimPrefix(target, "/orders"), "/")
	var err error
	switch {
	case method == http.MethodPost && target == "/orders":
		err = h.place(c)
	case method == http.MethodPost && target == "/orders/default":
		err = h.placeDefault(c)
	case method == http.MethodGet && target == "/orders":
		err = h.list(c)
	case method == http.MethodPatch:
		c.SetParamNames("id")
		c.SetParamValues(parts[1])
		err = h.updateStatus(c)
	default:
		c.SetParamNames("id")
		c.SetParamValues(parts[1])
		err = h.getByID(c)
	}
	require.NoError(t, err)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
	Meta map[string]any `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestPlaceOrderEndpoint(t *testing.T) {
	svc := &fakeService{order: sampleOrder()}

	rec := perform(t, svc, http.MethodPost, "/orders",
		`{"hotel_id":"KIR001","items":[{"name":"Rice","quantity":5,"price":50,"unit":"kg"}]}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)

	require.NotNil(t, svc.placed)
	assert.Equal(t, "KIR001", svc.placed.HotelID)
	require.Len(t, svc.placed.Items, 1)
	assert.Equal(t, 5, svc.placed.Items[0].Quantity)

	var body struct {
		Total  float64 `json:"total"`
		Status string  `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, 250.0, body.Total)
	assert.Equal(t, "pending", body.Status)
}

func TestPlaceOrderEndpointValidationError(t *testing.T) {
	svc := &fakeService{err: errorbank.BadRequest("order has no items")}

	rec := perform(t, svc, http.MethodPost, "/orders", `{"hotel_id":"KIR001","items":[]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "bad_request", env.Error.Kind)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	order := sampleOrder()
	order.Status = entity.StatusConfirmed
	svc := &fakeService{order: order}

	rec := perform(t, svc, http.MethodPatch, "/orders/o-1/status", `{"status":"confirmed"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "o-1", svc.idArg)
	assert.Equal(t, entity.StatusConfirmed, svc.nextArg)
}

func TestUpdateStatusEndpointUnknownStatus(t *testing.T) {
	svc := &fakeService{}

	rec := perform(t, svc, http.MethodPatch, "/orders/o-1/status", `{"status":"shipped"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "bad_request", env.Error.Kind)
}

func TestGetOrderEndpointNotFound(t *testing.T) {
	svc := &fakeService{err: errorbank.NotFound("order not found")}

	rec := perform(t, svc, http.MethodGet, "/orders/o-404", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "not_found", env.Error.Kind)
}

func TestListOrdersEndpoint(t *testing.T) {
	svc := &fakeService{orders: []entity.Order{*sampleOrder()}}

	rec := perform(t, svc, http.MethodGet, "/orders", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.EqualValues(t, 1, env.Meta["count"])
}
