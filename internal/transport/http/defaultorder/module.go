package defaultorder

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	defaultordersvc "github.com/kirana-labs/kirana/internal/service/defaultorder"
	"github.com/kirana-labs/kirana/internal/transport/http/middleware"
)

// Module wires HTTP default order handlers.
var Module = fx.Options(
	fx.Provide(func(s *defaultordersvc.Service) TemplateService { return s }),
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, auth *middleware.Auth) {
		Register(e, h, auth)
	}),
)
