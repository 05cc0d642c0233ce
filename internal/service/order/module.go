package order

import (
	"go.uber.org/fx"

	defaultorderrepo "github.com/kirana-labs/kirana/internal/repository/defaultorder"
	hotelrepo "github.com/kirana-labs/kirana/internal/repository/hotel"
	orderrepo "github.com/kirana-labs/kirana/internal/repository/order"
)

// Module provides the order service to Fx.
var Module = fx.Options(
	fx.Provide(func(r *orderrepo.Repository) OrderRepository { return r }),
	fx.Provide(func(r *hotelrepo.Repository) HotelDirectory { return r }),
	fx.Provide(func(r *defaultorderrepo.Repository) TemplateSource { return r }),
	fx.Provide(NewService),
)
