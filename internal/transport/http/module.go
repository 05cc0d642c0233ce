package http

import (
	"go.uber.org/fx"

	defaultordertransport "github.com/kirana-labs/kirana/internal/transport/http/defaultorder"
	hoteltransport "github.com/kirana-labs/kirana/internal/transport/http/hotel"
	"github.com/kirana-labs/kirana/internal/transport/http/middleware"
	ordertransport "github.com/kirana-labs/kirana/internal/transport/http/order"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	fx.Provide(middleware.NewAuth),
	ordertransport.Module,
	hoteltransport.Module,
	defaultordertransport.Module,
)
