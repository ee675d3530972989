package app

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/greencrop/storefront/internal/auth"
	"github.com/greencrop/storefront/internal/cache"
	"github.com/greencrop/storefront/internal/config"
	"github.com/greencrop/storefront/internal/database"
	"github.com/greencrop/storefront/internal/invoice"
	"github.com/greencrop/storefront/internal/logger"
	"github.com/greencrop/storefront/internal/messaging"
	"github.com/greencrop/storefront/internal/migration"
	"github.com/greencrop/storefront/internal/observability"
	repositorycontact "github.com/greencrop/storefront/internal/repository/contact"
	repositorycustomer "github.com/greencrop/storefront/internal/repository/customer"
	repositoryorder "github.com/greencrop/storefront/internal/repository/order"
	repositoryuser "github.com/greencrop/storefront/internal/repository/user"
	grpcserver "github.com/greencrop/storefront/internal/server/grpc"
	httpserver "github.com/greencrop/storefront/internal/server/http"
	serviceaccount "github.com/greencrop/storefront/internal/service/account"
	servicecontact "github.com/greencrop/storefront/internal/service/contact"
	serviceorder "github.com/greencrop/storefront/internal/service/order"
	servicepoints "github.com/greencrop/storefront/internal/service/points"
	transporthttp "github.com/greencrop/storefront/internal/transport/http"
	"github.com/greencrop/storefront/internal/worker"
	workerorder "github.com/greencrop/storefront/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	auth.Module,
	invoice.Module,
	repositoryorder.Module,
	repositoryuser.Module,
	repositorycustomer.Module,
	repositorycontact.Module,
	servicepoints.Module,
	serviceorder.Module,
	serviceaccount.Module,
	servicecontact.Module,
)

// HTTP wires the storefront web endpoints and the gRPC health service on
// top of the core modules.
var HTTP = fx.Options(
	Core,
	migration.Module,
	migration.AutoMigrate,
	httpserver.Module,
	transporthttp.Module,
	grpcserver.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP

// Logging routes Fx lifecycle events through the application logger.
var Logging = fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
	zl := &fxevent.ZapLogger{Logger: l.Named("fx")}
	zl.UseLogLevel(zap.DebugLevel)
	return zl
})
