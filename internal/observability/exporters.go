package observability

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	stdoutmetric "go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/greencrop/storefront/internal/config"
)

// traceExporter returns nil for unknown exporters; tracing is then off.
func traceExporter(ctx context.Context, cfg config.Observability, logger *zap.Logger) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.TraceExporter) {
	case "", "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		if cfg.TraceEndpoint == "" {
			return nil, fmt.Errorf("OBS_OTLP_ENDPOINT must be set for otlp exporter")
		}
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.TraceEndpoint)}
		if cfg.TraceInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return otlptracegrpc.New(ctx, opts...)
	default:
		logger.Warn("unsupported trace exporter; tracing disabled", zap.String("exporter", cfg.TraceExporter))
		return nil, nil
	}
}

// metricReader builds the reader for the configured exporter. The handler is
// only set for prometheus, which is scraped rather than pushed.
func metricReader(cfg config.Observability, logger *zap.Logger) (sdkmetric.Reader, http.Handler, error) {
	switch strings.ToLower(cfg.MetricsExporter) {
	case "prometheus":
		registry := prometheus.NewRegistry()
		exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
		if err != nil {
			return nil, nil, err
		}
		return exporter, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
	case "stdout":
		exporter, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint(), stdoutmetric.WithWriter(os.Stdout))
		if err != nil {
			return nil, nil, err
		}
		return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(30*time.Second)), nil, nil
	default:
		logger.Warn("unsupported metrics exporter; metrics disabled", zap.String("exporter", cfg.MetricsExporter))
		return nil, nil, nil
	}
}
