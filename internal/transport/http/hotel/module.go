package hotel

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	hotelsvc "github.com/kirana-labs/kirana/internal/service/hotel"
	"github.com/kirana-labs/kirana/internal/transport/http/middleware"
)

// Module wires HTTP hotel handlers.
var Module = fx.Options(
	fx.Provide(func(s *hotelsvc.Service) HotelService { return s }),
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, auth *middleware.Auth) {
		Register(e, h, auth)
	}),
)
