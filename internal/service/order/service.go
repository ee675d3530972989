package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/greencrop/storefront/internal/config"
	"github.com/greencrop/storefront/internal/database"
	"github.com/greencrop/storefront/internal/entity"
	"github.com/greencrop/storefront/internal/invoice"
	"github.com/greencrop/storefront/internal/messaging"
	repo "github.com/greencrop/storefront/internal/repository/order"
	"github.com/greencrop/storefront/internal/service/points"
	"github.com/greencrop/storefront/pkg/errorbank"
)

//go:generate mockgen -destination=mock_order/mock_order.go -package=mock_order . ConnProvider,OrderStore,PointsAccruer,InvoiceRenderer

var (
	serviceTracer = otel.Tracer("github.com/greencrop/storefront/service/order")
	serviceMeter  = otel.Meter("github.com/greencrop/storefront/service/order")
)

// ConnProvider hands out request-scoped store connections.
type ConnProvider interface {
	Acquire(ctx context.Context) (bun.IDB, error)
	Release(db bun.IDB)
}

// OrderStore persists and loads orders.
type OrderStore interface {
	Create(ctx context.Context, db bun.IDB, order *entity.Order) (int64, error)
	Get(ctx context.Context, db bun.IDB, id, ownerID int64) (*entity.Order, error)
}

// PointsAccruer credits loyalty points; it never fails.
type PointsAccruer interface {
	Award(ctx context.Context, db bun.IDB, userID int64, amount string) int64
}

// InvoiceRenderer turns a stored order into a document.
type InvoiceRenderer interface {
	Render(order *entity.Order, customer string) ([]byte, error)
}

// Receipt acknowledges a completed checkout.
type Receipt struct {
	OrderID int64
	Points  int64
	Message string
}

// Service runs the checkout pipeline: validate, persist, accrue points,
// acknowledge. Both checkout entry points go through Checkout.
type Service struct {
	conns     ConnProvider
	orders    OrderStore
	points    PointsAccruer
	invoices  InvoiceRenderer
	publisher messaging.Client
	logger    *zap.Logger
	now       func() time.Time
	outcomes  metric.Int64Counter
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Provider  *database.Provider
	Orders    *repo.Repository
	Points    *points.Service
	Invoices  *invoice.Renderer
	Publisher messaging.Client
	Config    config.Config
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	publisher := p.Publisher
	if !p.Config.Messaging.Enabled {
		publisher = nil
	}
	return New(p.Provider, p.Orders, p.Points, p.Invoices, publisher, p.Logger)
}

// New builds a Service from its collaborators. publisher may be nil.
func New(conns ConnProvider, orders OrderStore, accruer PointsAccruer, invoices InvoiceRenderer, publisher messaging.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	outcomes, err := serviceMeter.Int64Counter("storefront.checkouts",
		metric.WithDescription("Checkout requests by outcome"))
	if err != nil {
		logger.Warn("checkout counter unavailable", zap.Error(err))
	}
	return &Service{
		conns:     conns,
		orders:    orders,
		points:    accruer,
		invoices:  invoices,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		outcomes:  outcomes,
	}
}

// Checkout validates and persists an order, credits points to an
// authenticated owner and returns the acknowledgment.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*Receipt, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Checkout", trace.WithAttributes(
		attribute.Bool("order.guest", req.OwnerID == nil),
		attribute.String("order.payload_kind", req.PayloadKind.String()),
	))
	defer span.End()

	order, err := req.normalize()
	if err != nil {
		span.SetStatus(codes.Error, "rejected")
		s.record(ctx, "rejected")
		return nil, err
	}
	order.CreatedAt = s.now().UTC().Truncate(time.Second)

	db, err := s.conns.Acquire(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store unavailable")
		s.logger.Error("checkout: store unavailable", zap.Error(err))
		s.record(ctx, "unavailable")
		return nil, errorbank.Unavailable("order store unavailable", errorbank.WithCause(err))
	}
	defer s.conns.Release(db)

	id, err := s.orders.Create(ctx, db, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("checkout: persist order", zap.Error(err))
		s.record(ctx, "failed")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}
	order.ID = id
	span.SetAttributes(attribute.Int64("order.id", id))

	receipt := &Receipt{OrderID: id}
	if order.OwnerID != nil {
		receipt.Points = s.points.Award(ctx, db, *order.OwnerID, order.Total.String())
		receipt.Message = fmt.Sprintf("¡Pedido #%d realizado con éxito! Ganaste %d puntos.", id, receipt.Points)
	} else {
		receipt.Message = fmt.Sprintf("¡Pedido #%d realizado con éxito! Te contactaremos pronto.", id)
	}

	s.logger.Info("order placed",
		zap.Int64("order_id", id),
		zap.Bool("guest", order.OwnerID == nil),
		zap.Int64("points", receipt.Points),
	)
	s.record(ctx, "accepted")
	s.publishOrderCreated(ctx, order, receipt.Points)

	return receipt, nil
}

// Invoice renders the invoice of an order owned by ownerID. Missing orders,
// orders of other users and guest orders are all reported as not found.
func (s *Service) Invoice(ctx context.Context, id, ownerID int64, customer string) ([]byte, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Invoice", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	db, err := s.conns.Acquire(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store unavailable")
		return nil, errorbank.Unavailable("order store unavailable", errorbank.WithCause(err))
	}
	defer s.conns.Release(db)

	order, err := s.orders.Get(ctx, db, id, ownerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	doc, err := s.invoices.Render(order, customer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render error")
		s.logger.Error("render invoice", zap.Int64("order_id", id), zap.Error(err))
		return nil, errorbank.Internal("failed to render invoice", errorbank.WithCause(err))
	}
	return doc, nil
}

func (s *Service) record(ctx context.Context, outcome string) {
	if s.outcomes == nil {
		return
	}
	s.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (s *Service) publishOrderCreated(ctx context.Context, order *entity.Order, awarded int64) {
	if s.publisher == nil {
		return
	}
	event := OrderCreatedEvent{
		EventID:       uuid.NewString(),
		ID:            order.ID,
		OwnerID:       order.OwnerID,
		CustomerEmail: order.CustomerEmail,
		Total:         order.Total.StringFixed(2),
		Status:        order.Status,
		Points:        awarded,
		CreatedAt:     order.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order created", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", order.ID)), payload); err != nil {
		s.logger.Error("publish order created", zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

// OrderCreatedEvent is emitted after an order is persisted.
type OrderCreatedEvent struct {
	EventID       string    `json:"event_id"`
	ID            int64     `json:"id"`
	OwnerID       *int64    `json:"owner_id,omitempty"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	Total         string    `json:"total"`
	Status        string    `json:"status"`
	Points        int64     `json:"points"`
	CreatedAt     time.Time `json:"created_at"`
}
