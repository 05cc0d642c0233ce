package hotel

import "go.uber.org/fx"

// Module provides the hotel repository to Fx.
var Module = fx.Provide(NewRepository)
