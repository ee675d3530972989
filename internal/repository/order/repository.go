package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/greencrop/storefront/internal/entity"
)

var repoTracer = otel.Tracer("github.com/greencrop/storefront/repository/order")

// ErrNotFound is returned when an order is missing or belongs to someone else.
var ErrNotFound = errors.New("order not found")

// Repository reads and writes order rows on a caller-supplied connection.
type Repository struct{}

// NewRepository wires an order repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Create inserts the order and returns the id assigned by the store. The
// payload is written exactly as given.
func (r *Repository) Create(ctx context.Context, db bun.IDB, order *entity.Order) (int64, error) {
	if order == nil {
		return 0, errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.Bool("order.guest", order.IsGuest())))
	defer span.End()

	if _, err := db.NewInsert().Model(order).Returning("id").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return 0, err
	}

	span.SetAttributes(attribute.Int64("order.id", order.ID))
	return order.ID, nil
}

// Get fetches an order by id scoped to its owner. Orders of other users and
// guest orders are reported as ErrNotFound.
func (r *Repository) Get(ctx context.Context, db bun.IDB, id, ownerID int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := db.NewSelect().
		Model(order).
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// ListByOwner returns the owner's orders, newest first.
func (r *Repository) ListByOwner(ctx context.Context, db bun.IDB, ownerID int64) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListByOwner", trace.WithAttributes(attribute.Int64("order.owner_id", ownerID)))
	defer span.End()

	orders := make([]entity.Order, 0)
	err := db.NewSelect().
		Model(&orders).
		Where("owner_id = ?", ownerID).
		OrderExpr("created_at DESC").
		OrderExpr("id DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}
