package order

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	ordersvc "github.com/kirana-labs/kirana/internal/service/order"
	"github.com/kirana-labs/kirana/internal/store"
	"github.com/kirana-labs/kirana/internal/transport/http/middleware"
)

// Module wires HTTP order handlers.
var Module = fx.Options(
	fx.Provide(func(s *ordersvc.Service) OrderService { return s }),
	fx.Provide(func(f *store.Factory) Sessions { return f }),
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, auth *middleware.Auth) {
		Register(e, h, auth)
	}),
)
