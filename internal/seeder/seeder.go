package seeder

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/greencrop/storefront/internal/service/account"
)

// Demo account credentials created by Users.
const (
	DemoEmail    = "demo@greencrop.pe"
	DemoPhone    = "999999999"
	DemoPassword = "demo123"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, in account.RegisterInput) (int64, error)
}

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	accounts Registrar
	logger   *zap.Logger
}

// New constructs a Seeder on top of the account service.
func New(accounts *account.Service, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{accounts: accounts, logger: logger}
}

// Users creates the demo account if it does not exist yet.
func (s *Seeder) Users(ctx context.Context) error {
	id, err := s.accounts.Register(ctx, account.RegisterInput{
		Email:           DemoEmail,
		Phone:           DemoPhone,
		Password:        DemoPassword,
		ConfirmPassword: DemoPassword,
	})
	if errors.Is(err, account.ErrEmailTaken) {
		s.logger.Info("demo user already present")
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("seeded demo user", zap.Int64("user_id", id), zap.String("email", DemoEmail))
	return nil
}
