package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kirana-labs/kirana/internal/dto"
	"github.com/kirana-labs/kirana/internal/entity"
	"github.com/kirana-labs/kirana/internal/identity"
	"github.com/kirana-labs/kirana/internal/presentation/http/response"
	ordersvc "github.com/kirana-labs/kirana/internal/service/order"
	"github.com/kirana-labs/kirana/internal/store"
	"github.com/kirana-labs/kirana/internal/transport/http/middleware"
	"github.com/kirana-labs/kirana/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/kirana-labs/kirana/transport/http/order")

// OrderService is the behavior the handler needs from the order service.
type OrderService interface {
	PlaceOrder(ctx context.Context, viewer identity.Identity, in ordersvc.PlaceOrderInput) (*entity.Order, error)
	PlaceDefaultOrder(ctx context.Context, viewer identity.Identity, hotelID string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, viewer identity.Identity, id string, next entity.Status) (*entity.Order, error)
	Get(ctx context.Context, viewer identity.Identity, id string) (*entity.Order, error)
	ListForViewer(ctx context.Context, viewer identity.Identity) ([]entity.Order, error)
}

// Sessions opens live, viewer-bound order stores for the feed endpoint.
type Sessions interface {
	Open(ctx context.Context, viewer identity.Identity) *store.Store
}

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc      OrderService
	sessions Sessions
	logger   *zap.Logger
}

// NewHandler constructs an order Handler.
func NewHandler(svc OrderService, sessions Sessions, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, sessions: sessions, logger: logger}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler, auth *middleware.Auth) {
	g := e.Group("/orders", auth.Middleware())
	g.POST("", h.place)
	g.POST("/default", h.placeDefault)
	g.GET("", h.list)
	g.GET("/feed", h.feed)
	g.GET("/:id", h.getByID)
	g.PATCH("/:id/status", h.updateStatus)
}

type itemPayload struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Unit     string  `json:"unit"`
}

type placePayload struct {
	HotelID string        `json:"hotel_id"`
	Note    string        `json:"note"`
	Items   []itemPayload `json:"items"`
}

func (h *Handler) place(c echo.Context) error {
	b := response.New(c)

	var payload placePayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	in := ordersvc.PlaceOrderInput{HotelID: payload.HotelID, Note: payload.Note}
	for _, item := range payload.Items {
		in.Items = append(in.Items, ordersvc.ItemInput{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Unit:     item.Unit,
		})
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.place")
	defer span.End()

	order, err := h.svc.PlaceOrder(ctx, middleware.Viewer(c), in)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) placeDefault(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		HotelID string `json:"hotel_id"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.placeDefault")
	defer span.End()

	order, err := h.svc.PlaceDefaultOrder(ctx, middleware.Viewer(c), payload.HotelID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	orders, err := h.svc.ListForViewer(ctx, middleware.Viewer(c))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderListResponse(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, middleware.Viewer(c), id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) updateStatus(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	next, err := entity.ParseStatus(payload.Status)
	if err != nil {
		return b.WithError(errorbank.BadRequest("unknown status", errorbank.WithDetail("status", payload.Status))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.updateStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status.next", string(next)),
	))
	defer span.End()

	order, err := h.svc.UpdateStatus(ctx, middleware.Viewer(c), id, next)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

// feedFrame is one server-sent snapshot of the viewer's order collection.
type feedFrame struct {
	Orders []dto.OrderResponse `json:"orders"`
	Error  string              `json:"error,omitempty"`
}

// feed streams role-scoped order snapshots as server-sent events. The
// session store is torn down when the client disconnects.
func (h *Handler) feed(c echo.Context) error {
	viewer := middleware.Viewer(c)
	ctx := c.Request().Context()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	session := h.sessions.Open(ctx, viewer)
	defer session.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-session.Updates():
			if !ok {
				return nil
			}
			if err := writeFrame(res, session); err != nil {
				h.logger.Debug("feed write failed", zap.Error(err))
				return nil
			}
		}
	}
}

func writeFrame(res *echo.Response, session *store.Store) error {
	orders, snapErr := session.Orders()
	frame := feedFrame{Orders: dto.NewOrderListResponse(orders)}
	if snapErr != nil {
		frame.Error = snapErr.Error()
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: snapshot\ndata: %s\n\n", payload); err != nil {
		return err
	}
	res.Flush()
	return nil
}
