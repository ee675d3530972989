package customer

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

var repoTracer = otel.Tracer("github.com/greencrop/storefront/repository/customer")

// Repository manages the per-user profile data: address book, wish list and
// notification preferences. Every query is scoped by user id.
type Repository struct{}

// NewRepository wires a customer repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Addresses lists the user's addresses, primary first.
func (r *Repository) Addresses(ctx context.Context, db bun.IDB, userID int64) ([]entity.Address, error) {
	ctx, span := repoTracer.Start(ctx, "CustomerRepository.Addresses", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	addresses := make([]entity.Address, 0)
	err := db.NewSelect().
		Model(&addresses).
		Where("user_id = ?", userID).
		OrderExpr("is_primary DESC").
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fail(span, err)
	}
	return addresses, nil
}

// AddAddress stores a new address for addr.UserID.
func (r *Repository) AddAddress(ctx context.Context, db bun.IDB, addr *entity.Address) error {
	ctx, span := repoTracer.Start(ctx, "CustomerRepository.AddAddress", trace.WithAttributes(attribute.Int64("user.id", addr.UserID)))
	defer span.End()

	if _, err := db.NewInsert().Model(addr).Returning("id").Exec(ctx); err != nil {
		return fail(span, err)
	}
	return nil
}

// Wishlist lists the user's favourite products.
func (r *Repository) Wishlist(ctx context.Context, db bun.IDB, userID int64) ([]entity.WishlistItem, error) {
	ctx, span := repoTracer.Start(ctx, "CustomerRepository.Wishlist", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	items := make([]entity.WishlistItem, 0)
	err := db.NewSelect().
		Model(&items).
		Where("user_id = ?", userID).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fail(span, err)
	}
	return items, nil
}

// AddWishlistItem adds the product unless it is already listed. It reports
// whether a row was inserted.
func (r *Repository) AddWishlistItem(ctx context.Context, db bun.IDB, userID, productID int64) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "CustomerRepository.AddWishlistItem", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int64("product.id", productID),
	))
	defer span.End()

	exists, err := db.NewSelect().
		Model((*entity.WishlistItem)(nil)).
		Where("user_id = ?", userID).
		Where("product_id = ?", productID).
		Exists(ctx)
	if err != nil {
		return false, fail(span, err)
	}
	if exists {
		return false, nil
	}

	item := &entity.WishlistItem{UserID: userID, ProductID: productID}
	if _, err := db.NewInsert().Model(item).Returning("id").Exec(ctx); err != nil {
		return false, fail(span, err)
	}
	return true, nil
}

// RemoveWishlistItem deletes an item owned by the user. Items of other users
// are left untouched and reported as not removed.
func (r *Repository) RemoveWishlistItem(ctx context.Context, db bun.IDB, userID, itemID int64) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "CustomerRepository.RemoveWishlistItem", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	res, err := db.NewDelete().
		Model((*entity.WishlistItem)(nil)).
		Where("id = ?", itemID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return false, fail(span, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Preferences returns the user's notification settings, or the defaults when
// none were saved yet.
func (r *Repository) Preferences(ctx context.Context, db bun.IDB, userID int64) (entity.NotificationPreferences, error) {
	ctx, span := repoTracer.Start(ctx, "CustomerRepository.Preferences", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	var prefs entity.NotificationPreferences
	err := db.NewSelect().Model(&prefs).Where("user_id = ?", userID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.DefaultNotificationPreferences(userID), nil
	}
	if err != nil {
		return entity.NotificationPreferences{}, fail(span, err)
	}
	return prefs, nil
}

// SavePreferences creates or replaces the settings row of prefs.UserID.
func (r *Repository) SavePreferences(ctx context.Context, db bun.IDB, prefs *entity.NotificationPreferences) error {
	ctx, span := repoTracer.Start(ctx, "CustomerRepository.SavePreferences", trace.WithAttributes(attribute.Int64("user.id", prefs.UserID)))
	defer span.End()

	exists, err := db.NewSelect().
		Model((*entity.NotificationPreferences)(nil)).
		Where("user_id = ?", prefs.UserID).
		Exists(ctx)
	if err != nil {
		return fail(span, err)
	}

	if !exists {
		if _, err := db.NewInsert().Model(prefs).Returning("id").Exec(ctx); err != nil {
			return fail(span, err)
		}
		return nil
	}

	_, err = db.NewUpdate().
		Model(prefs).
		Column("email_enabled", "sms_enabled", "promotional_enabled").
		Where("user_id = ?", prefs.UserID).
		Exec(ctx)
	if err != nil {
		return fail(span, err)
	}
	return nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
