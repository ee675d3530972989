package config

import (
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// HTTP holds HTTP server configuration.
type HTTP struct {
	Host string
	Port int
}

// GRPC holds the health-check gRPC server configuration.
type GRPC struct {
	Enabled bool
	Host    string
	Port    int
}

// Cache configures the backend used for short-lived markers such as the
// contact form throttle.
type Cache struct {
	Enabled    bool
	Driver     string
	DefaultTTL time.Duration
	Redis      Redis
}

// Redis contains redis-specific connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Messaging configures the message bus used for order events.
type Messaging struct {
	Driver        string
	Enabled       bool
	Kafka         Kafka
	ConsumerGroup string
	Workers       Worker
}

// Kafka holds Kafka connection details.
type Kafka struct {
	Brokers        []string
	ClientID       string
	Topic          string
	CommitInterval time.Duration
	MinBytes       int
	MaxBytes       int
	ConnectTimeout time.Duration
}

// Worker configures background worker concurrency and polling.
type Worker struct {
	Enabled        bool
	PollInterval   time.Duration
	Concurrency    int
	HandlerTimeout time.Duration
}

// Database holds the relational store settings used by the connection provider.
type Database struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	PingTimeout     time.Duration
	// AutoMigrate applies pending migrations when the HTTP service starts.
	AutoMigrate bool
}

// Observability contains logging, tracing, and metrics configuration.
type Observability struct {
	ServiceName     string
	Environment     string
	LogLevel        string
	LogEncoding     string
	EnableTracing   bool
	TraceExporter   string
	TraceEndpoint   string
	TraceInsecure   bool
	TraceSample     float64
	EnableMetrics   bool
	MetricsExporter string
	PrometheusPath  string
}

// Auth configures the signed identity cookie.
type Auth struct {
	Secret     string
	CookieName string
	TokenTTL   time.Duration
	Secure     bool
}

// Store holds storefront business settings.
type Store struct {
	Name            string
	CurrencySymbol  string
	PointsDivisor   int64
	ContactThrottle time.Duration
}

// Config wraps all application configuration knobs.
type Config struct {
	HTTP          HTTP
	GRPC          GRPC
	Cache         Cache
	Messaging     Messaging
	Database      Database
	Observability Observability
	Auth          Auth
	Store         Store
}

// Module wires the configuration loader into the Fx graph.
var Module = fx.Provide(New)

var loadEnvOnce sync.Once

// New builds a Config from the environment (and a .env file, if present),
// applies defaults and reports every invalid setting at once.
func New() (Config, error) {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	cfg := Config{
		HTTP: HTTP{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnvAsInt("HTTP_PORT", 5000),
		},
		GRPC: GRPC{
			Enabled: getEnvAsBool("GRPC_ENABLED", false),
			Host:    getEnv("GRPC_HOST", "0.0.0.0"),
			Port:    getEnvAsInt("GRPC_PORT", 9090),
		},
		Cache: Cache{
			Enabled:    getEnvAsBool("CACHE_ENABLED", false),
			Driver:     getEnv("CACHE_DRIVER", "redis"),
			DefaultTTL: getEnvAsDuration("CACHE_DEFAULT_TTL", 30*time.Second),
			Redis: Redis{
				Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvAsInt("REDIS_DB", 0),
			},
		},
		Messaging: Messaging{
			Driver:  getEnv("MESSAGING_DRIVER", "kafka"),
			Enabled: getEnvAsBool("MESSAGING_ENABLED", false),
			Kafka: Kafka{
				Brokers:        getEnvAsStringSlice("KAFKA_BROKERS", []string{"127.0.0.1:9092"}),
				ClientID:       getEnv("KAFKA_CLIENT_ID", "storefront"),
				Topic:          getEnv("KAFKA_TOPIC", "orders.created"),
				CommitInterval: getEnvAsDuration("KAFKA_COMMIT_INTERVAL", time.Second),
				MinBytes:       getEnvAsInt("KAFKA_MIN_BYTES", 10e3),
				MaxBytes:       getEnvAsInt("KAFKA_MAX_BYTES", 10e6),
				ConnectTimeout: getEnvAsDuration("KAFKA_CONNECT_TIMEOUT", 5*time.Second),
			},
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "storefront-notifier"),
			Workers: Worker{
				Enabled:        getEnvAsBool("WORKER_ENABLED", true),
				PollInterval:   getEnvAsDuration("WORKER_POLL_INTERVAL", time.Second),
				Concurrency:    getEnvAsInt("WORKER_CONCURRENCY", 2),
				HandlerTimeout: getEnvAsDuration("WORKER_HANDLER_TIMEOUT", 30*time.Second),
			},
		},
		Database: Database{
			Driver:          getEnv("DB_DRIVER", "mysql"),
			DSN:             getEnv("DB_DSN", "storefront:storefront@tcp(127.0.0.1:3306)/storefront?parseTime=true"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			PingTimeout:     getEnvAsDuration("DB_PING_TIMEOUT", 5*time.Second),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Observability: Observability{
			ServiceName:     getEnv("OBS_SERVICE_NAME", "storefront"),
			Environment:     getEnv("OBS_ENVIRONMENT", "local"),
			LogLevel:        getEnv("OBS_LOG_LEVEL", "info"),
			LogEncoding:     getEnv("OBS_LOG_ENCODING", "json"),
			EnableTracing:   getEnvAsBool("OBS_ENABLE_TRACING", false),
			TraceExporter:   getEnv("OBS_TRACE_EXPORTER", "stdout"),
			TraceEndpoint:   getEnv("OBS_OTLP_ENDPOINT", "localhost:4317"),
			TraceInsecure:   getEnvAsBool("OBS_OTLP_INSECURE", true),
			TraceSample:     getEnvAsFloat("OBS_TRACE_SAMPLE_RATIO", 1),
			EnableMetrics:   getEnvAsBool("OBS_ENABLE_METRICS", true),
			MetricsExporter: getEnv("OBS_METRICS_EXPORTER", "prometheus"),
			PrometheusPath:  getEnv("OBS_PROMETHEUS_PATH", "/metrics"),
		},
		Auth: Auth{
			Secret:     getEnv("SECRET_KEY", "clave_secreta_demo"),
			CookieName: getEnv("AUTH_COOKIE_NAME", "session"),
			TokenTTL:   getEnvAsDuration("AUTH_TOKEN_TTL", 24*time.Hour),
			Secure:     getEnvAsBool("AUTH_COOKIE_SECURE", false),
		},
		Store: Store{
			Name:            getEnv("STORE_NAME", "AGRÍCOLA GREEN CROP"),
			CurrencySymbol:  getEnv("STORE_CURRENCY_SYMBOL", "S/ "),
			PointsDivisor:   int64(getEnvAsInt("STORE_POINTS_DIVISOR", 10)),
			ContactThrottle: getEnvAsDuration("STORE_CONTACT_THROTTLE", 30*time.Second),
		},
	}

	if err := cfg.finalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func normalize(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
