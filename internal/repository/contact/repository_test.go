package contact

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	"github.com/greencrop/storefront/internal/entity"
)

func TestCreateAndCount(t *testing.T) {
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, mysqldialect.New())
	defer db.Close()

	mock.ExpectExec("INSERT INTO `contact_messages`").WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `contact_messages`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	repo := NewRepository()
	id, err := repo.Create(context.Background(), db, &entity.ContactMessage{
		Name:     "Lucía",
		Email:    "lucia@example.com",
		Message:  "¿Tienen semillas de quinua?",
		ClientIP: "10.0.0.1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	n, err := repo.Count(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
