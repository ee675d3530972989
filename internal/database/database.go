package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/schema"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/greencrop/storefront/internal/config"
)

// ErrUnavailable is returned when no connection to the store can be obtained.
var ErrUnavailable = errors.New("database unavailable")

// OpenFunc opens a bun handle for the given settings without pinging it.
type OpenFunc func(cfg config.Database) (*bun.DB, error)

// Module registers the connection provider with Fx.
var Module = fx.Provide(New)

// Provider hands out request-scoped connections from a lazily opened pool.
// A failed initialisation is not cached: the next Acquire tries again.
// Concurrent callers share a single open attempt.
type Provider struct {
	cfg    config.Database
	open   OpenFunc
	logger *zap.Logger

	init singleflight.Group
	mu   sync.Mutex
	db   *bun.DB
}

// New builds the provider and ties its pool to the Fx lifecycle. Startup
// does not fail when the store is down; requests report ErrUnavailable instead.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) *Provider {
	p := NewProvider(cfg.Database, Open, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := p.DB(ctx); err != nil {
				logger.Warn("database not reachable at startup", zap.String("driver", cfg.Database.Driver), zap.Error(err))
				return nil
			}
			logger.Info("database connected", zap.String("driver", cfg.Database.Driver))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return p.Close()
		},
	})

	return p
}

// NewProvider constructs a Provider with a custom opener.
func NewProvider(cfg config.Database, open OpenFunc, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{cfg: cfg, open: open, logger: logger}
}

// DB returns the shared pool, opening and pinging it on first use. The
// open runs outside mu.
func (p *Provider) DB(ctx context.Context) (*bun.DB, error) {
	if db := p.current(); db != nil {
		return db, nil
	}

	v, err, _ := p.init.Do("open", func() (any, error) {
		if db := p.current(); db != nil {
			return db, nil
		}

		db, err := p.open(p.cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: open: %v", ErrUnavailable, err)
		}
		// Shared by every waiter: bounded by PingTimeout, not the caller's ctx.
		if err := ping(context.WithoutCancel(ctx), db, p.cfg.PingTimeout); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
		}

		p.mu.Lock()
		p.db = db
		p.mu.Unlock()
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*bun.DB), nil
}

func (p *Provider) current() *bun.DB {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.db
}

// Acquire checks a dedicated connection out of the pool. Callers must hand
// it back with Release, typically via defer.
func (p *Provider) Acquire(ctx context.Context) (bun.IDB, error) {
	db, err := p.DB(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: checkout: %v", ErrUnavailable, err)
	}
	return &conn, nil
}

// Release returns a connection obtained from Acquire. It is safe to call
// with nil or with handles that are not dedicated connections.
func (p *Provider) Release(idb bun.IDB) {
	conn, ok := idb.(*bun.Conn)
	if !ok || conn == nil {
		return
	}
	if err := conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		p.logger.Warn("release connection", zap.Error(err))
	}
}

// Stats reports pool statistics. ok is false until the pool has been opened.
func (p *Provider) Stats() (stats sql.DBStats, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return sql.DBStats{}, false
	}
	return p.db.Stats(), true
}

// Close shuts the pool down if it was ever opened.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Open builds a bun handle for the configured driver.
func Open(cfg config.Database) (*bun.DB, error) {
	dial, err := selectDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	sqldb, err := openSQLDB(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	applyPoolSettings(sqldb, cfg)

	return bun.NewDB(sqldb, dial), nil
}

// GooseDialect maps the configured driver onto the goose dialect name.
func GooseDialect(driver string) (string, error) {
	switch driver {
	case "postgres", "pg":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func selectDialect(driver string) (schema.Dialect, error) {
	switch driver {
	case "postgres":
		return pgdialect.New(), nil
	case "mysql":
		return mysqldialect.New(), nil
	case "sqlite":
		return sqlitedialect.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func openSQLDB(driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DSN")
	}

	switch driver {
	case "postgres":
		connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
		return sql.OpenDB(connector), nil
	case "mysql":
		return sql.Open("mysql", dsn)
	case "sqlite":
		return sql.Open("sqlite", dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}

func applyPoolSettings(db *sql.DB, cfg config.Database) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
}

func ping(ctx context.Context, db *bun.DB, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.PingContext(pingCtx)
}

// IsUniqueViolation reports whether err is a unique-constraint failure from
// any of the supported drivers.
func IsUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
