package hotel

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kirana-labs/kirana/internal/dto"
	"github.com/kirana-labs/kirana/internal/entity"
	"github.com/kirana-labs/kirana/internal/identity"
	"github.com/kirana-labs/kirana/internal/presentation/http/response"
	hotelsvc "github.com/kirana-labs/kirana/internal/service/hotel"
	"github.com/kirana-labs/kirana/internal/transport/http/middleware"
	"github.com/kirana-labs/kirana/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/kirana-labs/kirana/transport/http/hotel")

// HotelService is the behavior the handler needs from the hotel service.
type HotelService interface {
	Create(ctx context.Context, viewer identity.Identity, in hotelsvc.CreateInput) (*entity.Hotel, error)
	Get(ctx context.Context, viewer identity.Identity, id string) (*entity.Hotel, error)
	List(ctx context.Context, viewer identity.Identity) ([]entity.Hotel, error)
	SetPushToken(ctx context.Context, viewer identity.Identity, id, token string) error
}

// Handler exposes hotel registry endpoints over HTTP.
type Handler struct {
	svc HotelService
}

// NewHandler constructs a hotel Handler.
func NewHandler(svc HotelService) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler, auth *middleware.Auth) {
	g := e.Group("/hotels", auth.Middleware())
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.PUT("/:id/push-token", h.setPushToken)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Name        string `json:"name"`
		OwnerName   string `json:"owner_name"`
		Phone       string `json:"phone"`
		Address     string `json:"address"`
		AddressLink string `json:"address_link"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "hotels.create")
	defer span.End()

	hotel, err := h.svc.Create(ctx, middleware.Viewer(c), hotelsvc.CreateInput{
		Name:        payload.Name,
		OwnerName:   payload.OwnerName,
		Phone:       payload.Phone,
		Address:     payload.Address,
		AddressLink: payload.AddressLink,
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewHotelResponse(hotel)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "hotels.list")
	defer span.End()

	hotels, err := h.svc.List(ctx, middleware.Viewer(c))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewHotelListResponse(hotels)).WithMeta("count", len(hotels)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "hotels.getByID", trace.WithAttributes(attribute.String("hotel.id", id)))
	defer span.End()

	hotel, err := h.svc.Get(ctx, middleware.Viewer(c), id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewHotelResponse(hotel)).Build()
}

func (h *Handler) setPushToken(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	var payload struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "hotels.setPushToken", trace.WithAttributes(attribute.String("hotel.id", id)))
	defer span.End()

	if err := h.svc.SetPushToken(ctx, middleware.Viewer(c), id, payload.Token); err != nil {
		return b.WithError(err).Build()
	}

	return b.Build()
}
