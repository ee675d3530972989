package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/greencrop/storefront/internal/database"
	"github.com/greencrop/storefront/internal/entity"
)

var repoTracer = otel.Tracer("github.com/greencrop/storefront/repository/user")

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned by Create when the email is already stored.
var ErrDuplicateEmail = errors.New("user email already exists")

// Repository persists registered users.
type Repository struct{}

// NewRepository wires a user repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Create inserts a user and returns its id.
func (r *Repository) Create(ctx context.Context, db bun.IDB, u *entity.User) (int64, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.Create")
	defer span.End()

	if _, err := db.NewInsert().Model(u).Returning("id").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		if database.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %v", ErrDuplicateEmail, err)
		}
		return 0, err
	}
	return u.ID, nil
}

// EmailExists reports whether an account already uses the address.
func (r *Repository) EmailExists(ctx context.Context, db bun.IDB, email string) (bool, error) {
	return db.NewSelect().Model((*entity.User)(nil)).Where("email = ?", email).Exists(ctx)
}

// ByEmail loads a user by login email.
func (r *Repository) ByEmail(ctx context.Context, db bun.IDB, email string) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.ByEmail")
	defer span.End()

	return r.one(ctx, span, db.NewSelect().Where("email = ?", email))
}

// ByID loads a user by primary key.
func (r *Repository) ByID(ctx context.Context, db bun.IDB, id int64) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.ByID", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	return r.one(ctx, span, db.NewSelect().Where("id = ?", id))
}

func (r *Repository) one(ctx context.Context, span trace.Span, q *bun.SelectQuery) (*entity.User, error) {
	u := new(entity.User)
	err := q.Model(u).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return u, nil
}

// AddPoints increments the balance in a single statement so concurrent
// awards never lose updates. It returns ErrNotFound when no row matched.
func (r *Repository) AddPoints(ctx context.Context, db bun.IDB, userID, points int64) error {
	ctx, span := repoTracer.Start(ctx, "UserRepository.AddPoints", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int64("points", points),
	))
	defer span.End()

	res, err := db.NewUpdate().
		Table("users").
		Set("points = points + ?", points).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
