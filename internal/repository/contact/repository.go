package contact

import (
	"context"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/greencrop/storefront/internal/entity"
)

var repoTracer = otel.Tracer("github.com/greencrop/storefront/repository/contact")

// Repository stores contact form submissions.
type Repository struct{}

// NewRepository wires a contact repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Create stores the message and returns its id.
func (r *Repository) Create(ctx context.Context, db bun.IDB, msg *entity.ContactMessage) (int64, error) {
	ctx, span := repoTracer.Start(ctx, "ContactRepository.Create")
	defer span.End()

	if _, err := db.NewInsert().Model(msg).Returning("id").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return 0, err
	}
	return msg.ID, nil
}

// Count returns how many messages were received.
func (r *Repository) Count(ctx context.Context, db bun.IDB) (int, error) {
	ctx, span := repoTracer.Start(ctx, "ContactRepository.Count")
	defer span.End()

	n, err := db.NewSelect().Model((*entity.ContactMessage)(nil)).Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
	}
	return n, err
}
