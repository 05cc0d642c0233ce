package feed

import (
	"go.uber.org/fx"

	orderrepo "github.com/kirana-labs/kirana/internal/repository/order"
)

// Module wires the order feed into Fx.
var Module = fx.Options(
	fx.Provide(NewNotifier),
	fx.Provide(func(r *orderrepo.Repository) Lister { return r }),
	fx.Provide(NewHub),
)
