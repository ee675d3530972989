package migration

import (
	"context"
	"database/sql"
	"errors"
	"path"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/greencrop/storefront/db"
	"github.com/greencrop/storefront/internal/config"
	"github.com/greencrop/storefront/internal/database"
)

const migrationsRoot = "migrations"

// Migrator wraps goose operations over the embedded migration set.
type Migrator struct {
	provider *database.Provider
	dir      string
	logger   *zap.Logger
}

// New constructs a goose-backed migrator for the configured driver.
func New(cfg config.Config, provider *database.Provider, logger *zap.Logger) (*Migrator, error) {
	dialect, err := database.GooseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Migrator{
		provider: provider,
		dir:      path.Join(migrationsRoot, migrationsDir(cfg.Database.Driver)),
		logger:   logger,
	}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	sqldb, err := m.sqlDB(ctx)
	if err != nil {
		return err
	}

	if err := goose.UpContext(ctx, sqldb, m.dir); err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("no migrations to apply")

			return nil
		}
		return err
	}

	m.logger.Info("migrations applied", zap.String("dir", m.dir))

	return nil
}

// Down rolls back migrations. Steps <=0 defaults to 1; all=true rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	sqldb, err := m.sqlDB(ctx)
	if err != nil {
		return err
	}

	if all {
		if err := goose.DownToContext(ctx, sqldb, m.dir, 0); err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")

				return nil
			}
			return err
		}
		m.logger.Info("migrations rolled back", zap.String("mode", "all"))

		return nil
	}

	if steps <= 0 {
		steps = 1
	}

	for i := 0; i < steps; i++ {
		if err := goose.DownContext(ctx, sqldb, m.dir); err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")

				return nil
			}
			return err
		}
	}

	m.logger.Info("migrations rolled back", zap.Int("steps", steps))

	return nil
}

func (m *Migrator) sqlDB(ctx context.Context) (*sql.DB, error) {
	bdb, err := m.provider.DB(ctx)
	if err != nil {
		return nil, err
	}
	return bdb.DB, nil
}

func migrationsDir(driver string) string {
	switch driver {
	case "postgres", "pg":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return "mysql"
	}
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "no migrations")
}

// Module provides the migrator to Fx.
var Module = fx.Provide(New)

// AutoMigrate applies pending migrations on start when DB_AUTO_MIGRATE is
// set. An unreachable store is logged and left to the request path.
var AutoMigrate = fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, m *Migrator) {
	if !cfg.Database.AutoMigrate {
		return
	}
	lc.Append(fx.Hook{OnStart: func(ctx context.Context) error {
		if err := m.Up(ctx); err != nil {
			if errors.Is(err, database.ErrUnavailable) {
				m.logger.Warn("skipping migrations: database unavailable", zap.Error(err))
				return nil
			}
			return err
		}
		return nil
	}})
})

// Version reports the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	sqldb, err := m.sqlDB(ctx)
	if err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, sqldb)
}
