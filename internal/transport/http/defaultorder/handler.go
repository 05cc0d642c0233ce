package defaultorder

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kirana-labs/kirana/internal/dto"
	"github.com/kirana-labs/kirana/internal/entity"
	"github.com/kirana-labs/kirana/internal/identity"
	"github.com/kirana-labs/kirana/internal/presentation/http/response"
	defaultordersvc "github.com/kirana-labs/kirana/internal/service/defaultorder"
	"github.com/kirana-labs/kirana/internal/transport/http/middleware"
	"github.com/kirana-labs/kirana/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/kirana-labs/kirana/transport/http/defaultorder")

// TemplateService is the behavior the handler needs.
type TemplateService interface {
	Get(ctx context.Context, viewer identity.Identity, hotelID string) (*entity.DefaultOrder, error)
	Upsert(ctx context.Context, viewer identity.Identity, hotelID string, items []defaultordersvc.ItemInput) (*entity.DefaultOrder, error)
	Catalog(ctx context.Context, viewer identity.Identity) ([]entity.CatalogItem, error)
}

// Handler exposes default order template and catalog endpoints over HTTP.
type Handler struct {
	svc TemplateService
}

// NewHandler constructs a default order Handler.
func NewHandler(svc TemplateService) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler, auth *middleware.Auth) {
	e.GET("/catalog", h.catalog, auth.Middleware())

	g := e.Group("/default-orders", auth.Middleware())
	g.GET("", h.get)
	g.PUT("", h.upsert)
}

func (h *Handler) catalog(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "catalog.list")
	defer span.End()

	items, err := h.svc.Catalog(ctx, middleware.Viewer(c))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewCatalogResponse(items)).WithMeta("count", len(items)).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)
	hotelID := c.QueryParam("hotel_id")

	ctx, span := httpTracer.Start(c.Request().Context(), "defaultOrders.get", trace.WithAttributes(attribute.String("hotel.id", hotelID)))
	defer span.End()

	tpl, err := h.svc.Get(ctx, middleware.Viewer(c), hotelID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewDefaultOrderResponse(tpl)).Build()
}

func (h *Handler) upsert(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		HotelID string `json:"hotel_id"`
		Items   []struct {
			Name     string  `json:"name"`
			Quantity int     `json:"quantity"`
			Price    float64 `json:"price"`
			Unit     string  `json:"unit"`
		} `json:"items"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	items := make([]defaultordersvc.ItemInput, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, defaultordersvc.ItemInput{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Unit:     item.Unit,
		})
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "defaultOrders.upsert")
	defer span.End()

	tpl, err := h.svc.Upsert(ctx, middleware.Viewer(c), payload.HotelID, items)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewDefaultOrderResponse(tpl)).Build()
}
