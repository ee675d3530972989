package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	"github.com/greencrop/storefront/internal/config"
)

func TestProviderReportsUnavailableAndRetries(t *testing.T) {
	calls := 0
	open := func(config.Database) (*bun.DB, error) {
		calls++
		return nil, errors.New("tunnel down")
	}
	p := NewProvider(config.Database{Driver: "mysql"}, open, nil)

	_, err := p.Acquire(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = p.Acquire(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, calls)
}

func TestProviderReportsUnavailableOnFailedPing(t *testing.T) {
	sqldb, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	p := NewProvider(config.Database{}, func(config.Database) (*bun.DB, error) {
		return bun.NewDB(sqldb, mysqldialect.New()), nil
	}, nil)

	_, err = p.Acquire(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderOpensOnceAndReleasesConnections(t *testing.T) {
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)

	calls := 0
	p := NewProvider(config.Database{}, func(config.Database) (*bun.DB, error) {
		calls++
		return bun.NewDB(sqldb, mysqldialect.New()), nil
	}, nil)

	for i := 0; i < 3; i++ {
		conn, err := p.Acquire(context.Background())
		require.NoError(t, err)
		require.NotNil(t, conn)
		p.Release(conn)
	}
	assert.Equal(t, 1, calls)

	p.Release(nil)

	mock.ExpectClose()
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGooseDialect(t *testing.T) {
	for driver, want := range map[string]string{"mysql": "mysql", "postgres": "postgres", "sqlite": "sqlite3"} {
		got, err := GooseDialect(driver)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := GooseDialect("oracle")
	assert.Error(t, err)
}

func TestProviderStatsBeforeAndAfterOpen(t *testing.T) {
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	p := NewProvider(config.Database{}, func(config.Database) (*bun.DB, error) {
		return bun.NewDB(sqldb, mysqldialect.New()), nil
	}, nil)

	_, ok := p.Stats()
	assert.False(t, ok)

	_, err = p.DB(context.Background())
	require.NoError(t, err)
	_, ok = p.Stats()
	assert.True(t, ok)

	mock.ExpectClose()
	require.NoError(t, p.Close())
}

func TestProviderSharesOneOpenAttemptAcrossCallers(t *testing.T) {
	var opens atomic.Int32
	p := NewProvider(config.Database{}, func(config.Database) (*bun.DB, error) {
		opens.Add(1)
		time.Sleep(200 * time.Millisecond)
		return nil, errors.New("tunnel down")
	}, nil)

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	start := time.Now()
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = p.Acquire(context.Background())
		}()
	}
	wg.Wait()

	assert.Less(t, time.Since(start), 700*time.Millisecond)
	assert.Less(t, opens.Load(), int32(callers))
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrUnavailable)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"mysql duplicate entry": {err: &mysql.MySQLError{Number: 1062}, want: true},
		"wrapped duplicate":     {err: fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062}), want: true},
		"mysql other error":     {err: &mysql.MySQLError{Number: 1452}, want: false},
		"plain error":           {err: errors.New("boom"), want: false},
		"nil":                   {err: nil, want: false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsUniqueViolation(tc.err))
		})
	}
}
