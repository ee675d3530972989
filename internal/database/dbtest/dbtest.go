// Package dbtest provisions throwaway sqlite stores with the schema applied.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/greencrop/storefront/internal/config"
	"github.com/greencrop/storefront/internal/database"
	"github.com/greencrop/storefront/internal/entity"
	"github.com/greencrop/storefront/internal/migration"
	userrepo "github.com/greencrop/storefront/internal/repository/user"
)

// SQLite returns a provider over a migrated sqlite file that lives for the
// duration of the test.
func SQLite(t testing.TB) *database.Provider {
	t.Helper()

	cfg := config.Config{Database: config.Database{
		Driver:       "sqlite",
		DSN:          "file:" + filepath.Join(t.TempDir(), "store.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		MaxOpenConns: 1,
	}}

	provider := database.NewProvider(cfg.Database, database.Open, nil)
	t.Cleanup(func() { _ = provider.Close() })

	migrator, err := migration.New(cfg, provider, nil)
	require.NoError(t, err)
	require.NoError(t, migrator.Up(context.Background()))

	return provider
}

// User inserts a customer with a placeholder password hash and returns its id.
func User(t testing.TB, provider *database.Provider, email string) int64 {
	t.Helper()

	ctx := context.Background()
	conn, err := provider.Acquire(ctx)
	require.NoError(t, err)
	defer provider.Release(conn)

	id, err := userrepo.NewRepository().Create(ctx, conn, &entity.User{Email: email, PasswordHash: "x"})
	require.NoError(t, err)
	return id
}
