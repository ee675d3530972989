package points

import "go.uber.org/fx"

// Module provides the points accrual service to Fx.
var Module = fx.Provide(NewService)
