package customer

import "go.uber.org/fx"

// Module provides the customer profile repository to Fx.
var Module = fx.Provide(NewRepository)
