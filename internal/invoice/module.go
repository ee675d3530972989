package invoice

import "go.uber.org/fx"

// Module provides the invoice renderer to Fx.
var Module = fx.Provide(NewRenderer)
