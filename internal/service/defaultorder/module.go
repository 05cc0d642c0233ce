package defaultorder

import (
	"go.uber.org/fx"

	defaultorderrepo "github.com/kirana-labs/kirana/internal/repository/defaultorder"
)

// Module provides the default order service to Fx.
var Module = fx.Options(
	fx.Provide(func(r *defaultorderrepo.Repository) TemplateRepository { return r }),
	fx.Provide(NewService),
)
