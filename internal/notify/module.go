package notify

import "go.uber.org/fx"

// Module provides the push sender to Fx.
var Module = fx.Provide(NewSender)
