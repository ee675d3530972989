package observability

import (
	"context"
	"database/sql"

	"go.opentelemetry.io/otel/metric"
)

// PoolSource exposes connection pool statistics.
type PoolSource interface {
	Stats() (sql.DBStats, bool)
}

// ObservePool registers gauges for the store connection pool. Nothing is
// reported while the pool is closed.
func ObservePool(meter metric.Meter, pool PoolSource) (metric.Registration, error) {
	open, err := meter.Int64ObservableGauge("storefront.db.connections.open",
		metric.WithDescription("Open connections to the order store"))
	if err != nil {
		return nil, err
	}
	inUse, err := meter.Int64ObservableGauge("storefront.db.connections.in_use",
		metric.WithDescription("Connections checked out by requests"))
	if err != nil {
		return nil, err
	}
	waits, err := meter.Int64ObservableCounter("storefront.db.connections.waits",
		metric.WithDescription("Requests that waited for a free connection"))
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats, ok := pool.Stats()
		if !ok {
			return nil
		}
		o.ObserveInt64(open, int64(stats.OpenConnections))
		o.ObserveInt64(inUse, int64(stats.InUse))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, open, inUse, waits)
}
