package seeder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greencrop/storefront/internal/database/dbtest"
	customerrepo "github.com/greencrop/storefront/internal/repository/customer"
	orderrepo "github.com/greencrop/storefront/internal/repository/order"
	userrepo "github.com/greencrop/storefront/internal/repository/user"
	"github.com/greencrop/storefront/internal/service/account"
)

func TestUsersIsIdempotent(t *testing.T) {
	accounts := account.New(dbtest.SQLite(t), userrepo.NewRepository(), customerrepo.NewRepository(), orderrepo.NewRepository(), nil)
	s := &Seeder{accounts: accounts, logger: zap.NewNop()}
	ctx := context.Background()

	require.NoError(t, s.Users(ctx))
	require.NoError(t, s.Users(ctx))

	user, err := accounts.Authenticate(ctx, DemoEmail, DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, DemoEmail, user.Email)
}
