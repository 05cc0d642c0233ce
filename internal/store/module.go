package store

import (
	"go.uber.org/fx"

	ordersvc "github.com/kirana-labs/kirana/internal/service/order"
)

// Module provides the session store factory to Fx.
var Module = fx.Options(
	fx.Provide(func(s *ordersvc.Service) Mutator { return s }),
	fx.Provide(NewFactory),
)
