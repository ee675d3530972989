package http

import (
	"go.uber.org/fx"

	accounttransport "github.com/greencrop/storefront/internal/transport/http/account"
	contacttransport "github.com/greencrop/storefront/internal/transport/http/contact"
	ordertransport "github.com/greencrop/storefront/internal/transport/http/order"
	sitetransport "github.com/greencrop/storefront/internal/transport/http/site"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	accounttransport.Module,
	contacttransport.Module,
	sitetransport.Module,
)
