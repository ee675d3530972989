package points

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/greencrop/storefront/internal/config"
	userrepo "github.com/greencrop/storefront/internal/repository/user"
)

var (
	tracer = otel.Tracer("github.com/greencrop/storefront/service/points")
	meter  = otel.Meter("github.com/greencrop/storefront/service/points")
)

// Store credits points to a user balance.
type Store interface {
	AddPoints(ctx context.Context, db bun.IDB, userID, points int64) error
}

// Service converts order totals into loyalty points.
type Service struct {
	store   Store
	divisor decimal.Decimal
	logger  *zap.Logger
	awarded metric.Int64Counter
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Users  *userrepo.Repository
	Config config.Config
	Logger *zap.Logger
}

// NewService wires the accrual service on top of the user repository.
func NewService(p Params) *Service {
	return New(p.Users, p.Config.Store.PointsDivisor, p.Logger)
}

// New builds a Service that awards one point per divisor units spent.
func New(store Store, divisor int64, logger *zap.Logger) *Service {
	if divisor <= 0 {
		divisor = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	awarded, err := meter.Int64Counter("storefront.points.awarded",
		metric.WithDescription("Loyalty points credited to customers"))
	if err != nil {
		logger.Warn("points counter unavailable", zap.Error(err))
	}
	return &Service{
		store:   store,
		divisor: decimal.NewFromInt(divisor),
		logger:  logger,
		awarded: awarded,
	}
}

// Calculate returns floor(amount / divisor), or 0 when amount is not a
// non-negative decimal.
func (s *Service) Calculate(amount string) int64 {
	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || value.IsNegative() {
		return 0
	}
	return value.Div(s.divisor).Floor().IntPart()
}

// Award credits the points earned by amount to userID and returns how many
// were credited. It never fails: bad amounts, unknown users and store errors
// all yield 0.
func (s *Service) Award(ctx context.Context, db bun.IDB, userID int64, amount string) int64 {
	ctx, span := tracer.Start(ctx, "PointsService.Award", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	points := s.Calculate(amount)
	if points <= 0 {
		return 0
	}

	if err := s.store.AddPoints(ctx, db, userID, points); err != nil {
		span.RecordError(err)
		s.logger.Warn("points accrual failed",
			zap.Int64("user_id", userID),
			zap.Int64("points", points),
			zap.Error(err),
		)
		return 0
	}

	span.SetAttributes(attribute.Int64("points", points))
	if s.awarded != nil {
		s.awarded.Add(ctx, points)
	}
	return points
}
