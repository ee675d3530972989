package customer

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	"github.com/greencrop/storefront/internal/entity"
)

func newMockDB(t *testing.T) (*bun.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, mysqldialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func existsRows(v bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(v)
}

func TestPreferencesDefaultsWhenMissing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .* FROM `notification_preferences`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "email_enabled", "sms_enabled", "promotional_enabled"}))

	prefs, err := NewRepository().Preferences(context.Background(), db, 3)
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultNotificationPreferences(3), prefs)
	assert.True(t, prefs.Email)
	assert.False(t, prefs.SMS)
	assert.True(t, prefs.Promotional)
}

func TestSavePreferencesInsertsFirstTime(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(existsRows(false))
	mock.ExpectExec("INSERT INTO `notification_preferences`").WillReturnResult(sqlmock.NewResult(1, 1))

	err := NewRepository().SavePreferences(context.Background(), db, &entity.NotificationPreferences{UserID: 3, SMS: true})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSavePreferencesUpdatesExisting(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(existsRows(true))
	mock.ExpectExec("UPDATE `notification_preferences`.* SET .*sms_enabled.* WHERE \\(user_id = 3\\)").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewRepository().SavePreferences(context.Background(), db, &entity.NotificationPreferences{UserID: 3, SMS: true})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddWishlistItemSkipsDuplicates(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT EXISTS .* WHERE \\(user_id = 3\\) AND \\(product_id = 12\\)").WillReturnRows(existsRows(true))

	added, err := NewRepository().AddWishlistItem(context.Background(), db, 3, 12)
	require.NoError(t, err)
	assert.False(t, added)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddWishlistItemInserts(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(existsRows(false))
	mock.ExpectExec("INSERT INTO `wishlist_items`").WillReturnResult(sqlmock.NewResult(8, 1))

	added, err := NewRepository().AddWishlistItem(context.Background(), db, 3, 12)
	require.NoError(t, err)
	assert.True(t, added)
}

func TestRemoveWishlistItemScopedByUser(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM `wishlist_items`.* WHERE \\(id = 8\\) AND \\(user_id = 4\\)").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := NewRepository().RemoveWishlistItem(context.Background(), db, 4, 8)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestAddressesPropagatesErrors(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .* FROM `addresses`").WillReturnError(errors.New("boom"))

	_, err := NewRepository().Addresses(context.Background(), db, 4)
	assert.Error(t, err)
}

func TestAddAddress(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO `addresses`").WillReturnResult(sqlmock.NewResult(2, 1))

	addr := &entity.Address{UserID: 4, Street: "Jr. Unión 100", City: "Lima", Country: "Perú"}
	require.NoError(t, NewRepository().AddAddress(context.Background(), db, addr))
	assert.Equal(t, int64(2), addr.ID)
}
