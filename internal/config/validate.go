package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// finalize fills derived defaults in place and validates each section.
func (c *Config) finalize() error {
	return errors.Join(
		c.HTTP.validate(),
		c.GRPC.validate(),
		c.Cache.finalize(),
		c.Messaging.finalize(),
		c.Database.finalize(),
		c.Observability.finalize(),
		c.Auth.finalize(),
		c.Store.validate(),
	)
}

func (h HTTP) validate() error {
	if h.Port <= 0 {
		return fmt.Errorf("invalid HTTP port: %d", h.Port)
	}
	return nil
}

func (g GRPC) validate() error {
	if g.Enabled && g.Port <= 0 {
		return fmt.Errorf("invalid gRPC port: %d", g.Port)
	}
	return nil
}

func (c *Cache) finalize() error {
	if !c.Enabled {
		c.Driver = "noop"
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 30 * time.Second
	}
	switch c.Driver {
	case "noop":
		return nil
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("missing REDIS_ADDR for redis cache")
		}
		return nil
	default:
		return fmt.Errorf("unsupported cache driver: %s", c.Driver)
	}
}

func (m *Messaging) finalize() error {
	if !m.Enabled {
		m.Driver = "noop"
	}
	m.Workers.Concurrency = max(m.Workers.Concurrency, 1)
	if m.Workers.PollInterval <= 0 {
		m.Workers.PollInterval = time.Second
	}

	switch m.Driver {
	case "noop":
		return nil
	case "kafka":
		var errs []error
		if len(m.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS must be provided"))
		}
		if m.Kafka.Topic == "" {
			errs = append(errs, errors.New("KAFKA_TOPIC must be provided"))
		}
		if m.ConsumerGroup == "" {
			errs = append(errs, errors.New("KAFKA_CONSUMER_GROUP must be provided"))
		}
		return errors.Join(errs...)
	default:
		return fmt.Errorf("unsupported messaging driver: %s", m.Driver)
	}
}

func (d *Database) finalize() error {
	d.Driver = normalize(d.Driver, "mysql")
	var errs []error
	switch d.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver: %s", d.Driver))
	}
	if d.DSN == "" {
		errs = append(errs, errors.New("missing DB_DSN"))
	}
	return errors.Join(errs...)
}

func (o *Observability) finalize() error {
	o.LogLevel = normalize(o.LogLevel, "info")
	o.LogEncoding = normalize(o.LogEncoding, "json")
	o.TraceExporter = normalize(o.TraceExporter, "stdout")
	o.MetricsExporter = normalize(o.MetricsExporter, "prometheus")

	switch {
	case o.PrometheusPath == "":
		o.PrometheusPath = "/metrics"
	case !strings.HasPrefix(o.PrometheusPath, "/"):
		o.PrometheusPath = "/" + o.PrometheusPath
	}

	if o.TraceSample < 0 || o.TraceSample > 1 {
		return fmt.Errorf("invalid OBS_TRACE_SAMPLE_RATIO: %v", o.TraceSample)
	}
	return nil
}

func (a *Auth) finalize() error {
	if a.CookieName == "" {
		a.CookieName = "session"
	}
	if a.TokenTTL <= 0 {
		a.TokenTTL = 24 * time.Hour
	}
	if a.Secret == "" {
		return errors.New("missing SECRET_KEY")
	}
	return nil
}

func (s Store) validate() error {
	if s.PointsDivisor <= 0 {
		return fmt.Errorf("invalid STORE_POINTS_DIVISOR: %d", s.PointsDivisor)
	}
	return nil
}
