package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/greencrop/storefront/internal/config"
	"github.com/greencrop/storefront/internal/database"
	"github.com/greencrop/storefront/pkg/errorbank"
)

// ServiceName is the health service name that tracks the order store.
const ServiceName = "storefront.Store"

const healthCheckInterval = 10 * time.Second

// Module exposes the gRPC server and lifecycle hooks to Fx.
var Module = fx.Module("grpc_server",
	fx.Provide(NewServer, NewHealth),
	fx.Invoke(Run),
)

// StoreChecker reports whether the relational store is reachable.
type StoreChecker interface {
	DB(ctx context.Context) (*bun.DB, error)
}

// NewServer builds the gRPC server with logging interceptors and the
// health service registered.
func NewServer(logger *zap.Logger, hs *health.Server) *grpc.Server {
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unaryInterceptor(logger)),
		grpc.ChainStreamInterceptor(streamInterceptor(logger)),
	)
	healthpb.RegisterHealthServer(server, hs)
	return server
}

// unaryInterceptor logs each call and turns non-status errors into the
// status of their errorbank kind.
func unaryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(logger, info.FullMethod, time.Since(start), err)
		if err != nil {
			return nil, toStatus(err)
		}
		return resp, nil
	}
}

func streamInterceptor(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(logger, info.FullMethod, time.Since(start), err)
		if err != nil {
			return toStatus(err)
		}
		return nil
	}
}

func logCall(logger *zap.Logger, method string, took time.Duration, err error) {
	if err != nil {
		logger.Warn("grpc call failed", zap.String("method", method), zap.Duration("duration", took), zap.Error(err))
		return
	}
	logger.Debug("grpc call finished", zap.String("method", method), zap.Duration("duration", took))
}

func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	return errorbank.From(err).GRPCStatus().Err()
}

// NewHealth builds the standard health service. The store service starts
// as NOT_SERVING until the first store check succeeds.
func NewHealth() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return hs
}

// CheckStore updates the store status of hs from a single reachability check.
func CheckStore(ctx context.Context, hs *health.Server, store StoreChecker) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if _, err := store.DB(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus(ServiceName, status)
	return status
}

// Run binds the gRPC server to the configured host/port and manages
// lifecycle. It does nothing unless gRPC is enabled.
func Run(lc fx.Lifecycle, cfg config.Config, server *grpc.Server, hs *health.Server, provider *database.Provider, logger *zap.Logger) {
	if !cfg.GRPC.Enabled {
		logger.Info("grpc server disabled")
		return
	}

	addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
	var listener net.Listener
	checkCtx, cancelCheck := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				cancelCheck()
				return fmt.Errorf("listen grpc: %w", err)
			}
			listener = ln
			logger.Info("starting gRPC server", zap.String("addr", addr))
			go func() {
				if err := server.Serve(listener); err != nil {
					logger.Fatal("grpc server failed", zap.Error(err))
				}
			}()
			go watchStore(checkCtx, hs, provider, logger)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping gRPC server")
			cancelCheck()
			hs.Shutdown()

			stopped := make(chan struct{})
			go func() {
				server.GracefulStop()
				close(stopped)
			}()

			select {
			case <-ctx.Done():
				server.Stop()
				return ctx.Err()
			case <-stopped:
				if listener != nil {
					_ = listener.Close()
				}
				return nil
			}
		},
	})
}

func watchStore(ctx context.Context, hs *health.Server, store StoreChecker, logger *zap.Logger) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		if status := CheckStore(ctx, hs, store); status != last {
			logger.Info("store health changed", zap.String("status", status.String()))
			last = status
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
