// Package observability owns the tracer and meter providers of the
// storefront and the storefront's own runtime gauges.
package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/greencrop/storefront/internal/config"
	"github.com/greencrop/storefront/internal/database"
)

const (
	serviceVersion  = "1.0.0"
	shutdownTimeout = 10 * time.Second
	meterName       = "github.com/greencrop/storefront"
)

// Manager wires tracing and metrics providers.
type Manager struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metricsHandler http.Handler
	cfg            config.Observability
	logger         *zap.Logger
}

// Module exposes the observability manager to Fx and publishes the store
// pool gauges.
var Module = fx.Options(
	fx.Provide(NewManager),
	fx.Invoke(func(m *Manager, provider *database.Provider) error {
		_, err := ObservePool(m.Meter(), provider)
		return err
	}),
)

// NewManager configures tracing and metrics providers based on configuration.
// Providers become global when the app starts and are flushed when it stops.
func NewManager(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Manager, error) {
	mgr, err := newManager(context.Background(), cfg.Observability, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			mgr.install()
			return nil
		},
		OnStop: mgr.Shutdown,
	})

	return mgr, nil
}

func newManager(ctx context.Context, cfg config.Observability, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	res, err := sdkresource.New(ctx,
		sdkresource.WithFromEnv(),
		sdkresource.WithHost(),
		sdkresource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(serviceVersion),
			attribute.String("service.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	mgr := &Manager{cfg: cfg, logger: logger}

	if cfg.EnableTracing {
		exporter, err := traceExporter(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if exporter != nil {
			mgr.tracerProvider = sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(exporter),
				sdktrace.WithResource(res),
				sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.TraceSample))),
			)
		}
	}

	if cfg.EnableMetrics {
		reader, handler, err := metricReader(cfg, logger)
		if err != nil {
			return nil, err
		}
		if reader != nil {
			mgr.meterProvider = sdkmetric.NewMeterProvider(
				sdkmetric.WithReader(reader),
				sdkmetric.WithResource(res),
			)
			mgr.metricsHandler = handler
		}
	}

	return mgr, nil
}

func (m *Manager) install() {
	if tp := m.tracerProvider; tp != nil {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	if mp := m.meterProvider; mp != nil {
		otel.SetMeterProvider(mp)
	}
}

// Shutdown flushes and stops both providers.
func (m *Manager) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var err error
	if tp := m.tracerProvider; tp != nil {
		err = errors.Join(err, tp.Shutdown(ctx))
	}
	if mp := m.meterProvider; mp != nil {
		err = errors.Join(err, mp.Shutdown(ctx))
	}
	return err
}

// Meter returns the storefront meter, falling back to the global provider
// when metrics are off.
func (m *Manager) Meter() metric.Meter {
	if m.meterProvider != nil {
		return m.meterProvider.Meter(meterName)
	}
	return otel.Meter(meterName)
}

// TracingEnabled reports whether tracing is active.
func (m *Manager) TracingEnabled() bool {
	return m.tracerProvider != nil
}

// MetricsEnabled reports whether metrics are active.
func (m *Manager) MetricsEnabled() bool {
	return m.meterProvider != nil
}

// MetricsHandler exposes the Prometheus HTTP handler when metrics are enabled.
func (m *Manager) MetricsHandler() http.Handler {
	return m.metricsHandler
}
