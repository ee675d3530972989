package account

import "go.uber.org/fx"

// Module provides the account service to Fx.
var Module = fx.Provide(NewService)
