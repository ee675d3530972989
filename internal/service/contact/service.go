package contact

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/greencrop/storefront/internal/cache"
	"github.com/greencrop/storefront/internal/config"
	"github.com/greencrop/storefront/internal/database"
	"github.com/greencrop/storefront/internal/entity"
	contactrepo "github.com/greencrop/storefront/internal/repository/contact"
	"github.com/greencrop/storefront/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/greencrop/storefront/service/contact")

const throttlePrefix = "contact:"

// ConnProvider hands out request-scoped store connections.
type ConnProvider interface {
	Acquire(ctx context.Context) (bun.IDB, error)
	Release(db bun.IDB)
}

// Message is a contact form submission.
type Message struct {
	Name     string
	Email    string
	Body     string
	ClientIP string
}

// Service stores contact messages, throttled per client address.
type Service struct {
	conns    ConnProvider
	messages *contactrepo.Repository
	cache    cache.Store
	throttle time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Provider *database.Provider
	Messages *contactrepo.Repository
	Cache    cache.Store
	Config   config.Config
	Logger   *zap.Logger
}

// NewService wires the contact service.
func NewService(p Params) *Service {
	return New(p.Provider, p.Messages, p.Cache, p.Config.Store.ContactThrottle, p.Logger)
}

// New builds a Service. A zero throttle disables rate limiting.
func New(conns ConnProvider, messages *contactrepo.Repository, store cache.Store, throttle time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{conns: conns, messages: messages, cache: store, throttle: throttle, logger: logger}
}

// Submit validates and stores a message.
func (s *Service) Submit(ctx context.Context, msg Message) (int64, error) {
	ctx, span := serviceTracer.Start(ctx, "ContactService.Submit")
	defer span.End()

	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Body = strings.TrimSpace(msg.Body)

	var missing []string
	if msg.Name == "" {
		missing = append(missing, "name")
	}
	if msg.Email == "" {
		missing = append(missing, "email")
	}
	if msg.Body == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return 0, errorbank.Validation(missing)
	}

	key := throttlePrefix + msg.ClientIP
	reserved := false
	if s.cache != nil && s.throttle > 0 && msg.ClientIP != "" {
		ok, err := s.cache.Reserve(ctx, key, s.throttle)
		switch {
		case err != nil:
			s.logger.Warn("contact throttle unavailable", zap.Error(err))
		case !ok:
			return 0, errorbank.TooManyRequests("too many contact messages")
		default:
			reserved = true
		}
	}

	id, err := s.store(ctx, msg)
	if err != nil && reserved {
		if derr := s.cache.Delete(ctx, key); derr != nil {
			s.logger.Warn("release contact throttle", zap.Error(derr))
		}
	}
	return id, err
}

func (s *Service) store(ctx context.Context, msg Message) (int64, error) {
	db, err := s.conns.Acquire(ctx)
	if err != nil {
		s.logger.Error("contact store unavailable", zap.Error(err))
		return 0, errorbank.Unavailable("contact store unavailable", errorbank.WithCause(err))
	}
	defer s.conns.Release(db)

	id, err := s.messages.Create(ctx, db, &entity.ContactMessage{
		Name:     msg.Name,
		Email:    msg.Email,
		Message:  msg.Body,
		ClientIP: msg.ClientIP,
	})
	if err != nil {
		s.logger.Error("store contact message", zap.Error(err))
		return 0, errorbank.Internal("failed to store message", errorbank.WithCause(err))
	}
	s.logger.Info("contact message received", zap.Int64("message_id", id))
	return id, nil
}

// Count reports how many messages are stored; it doubles as a store health check.
func (s *Service) Count(ctx context.Context) (int, error) {
	ctx, span := serviceTracer.Start(ctx, "ContactService.Count")
	defer span.End()

	db, err := s.conns.Acquire(ctx)
	if err != nil {
		return 0, errorbank.Unavailable("contact store unavailable", errorbank.WithCause(err))
	}
	defer s.conns.Release(db)

	n, err := s.messages.Count(ctx, db)
	if err != nil {
		return 0, errorbank.Internal("failed to count messages", errorbank.WithCause(err))
	}
	return n, nil
}
