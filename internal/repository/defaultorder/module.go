package defaultorder

import "go.uber.org/fx"

// Module provides the default-order repository to Fx.
var Module = fx.Provide(NewRepository)
