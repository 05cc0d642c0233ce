package hotel

import (
	"go.uber.org/fx"

	hotelrepo "github.com/kirana-labs/kirana/internal/repository/hotel"
)

// Module provides the hotel service to Fx.
var Module = fx.Options(
	fx.Provide(func(r *hotelrepo.Repository) HotelRepository { return r }),
	fx.Provide(NewService),
)
