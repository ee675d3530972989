package order_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greencrop/storefront/internal/database"
	"github.com/greencrop/storefront/internal/database/dbtest"
	"github.com/greencrop/storefront/internal/entity"
	"github.com/greencrop/storefront/internal/invoice"
	repo "github.com/greencrop/storefront/internal/repository/order"
	userrepo "github.com/greencrop/storefront/internal/repository/user"
	"github.com/greencrop/storefront/internal/service/order"
	"github.com/greencrop/storefront/internal/service/points"
	"github.com/greencrop/storefront/pkg/errorbank"
)

type checkoutFixture struct {
	svc    *order.Service
	orders *repo.Repository
	users  *userrepo.Repository
	store  *database.Provider
}

func newCheckoutFixture(t *testing.T) checkoutFixture {
	provider := dbtest.SQLite(t)
	orders := repo.NewRepository()
	users := userrepo.NewRepository()
	svc := order.New(provider, orders, points.New(users, 10, nil), invoice.New("AGRÍCOLA GREEN CROP", "S/ "), nil, nil)
	return checkoutFixture{svc: svc, orders: orders, users: users, store: provider}
}

func (f checkoutFixture) createUser(t *testing.T, email string) int64 {
	ctx := context.Background()
	db, err := f.store.Acquire(ctx)
	require.NoError(t, err)
	defer f.store.Release(db)

	id, err := f.users.Create(ctx, db, &entity.User{Email: email, PasswordHash: "x"})
	require.NoError(t, err)
	return id
}

func (f checkoutFixture) user(t *testing.T, id int64) *entity.User {
	ctx := context.Background()
	db, err := f.store.Acquire(ctx)
	require.NoError(t, err)
	defer f.store.Release(db)

	u, err := f.users.ByID(ctx, db, id)
	require.NoError(t, err)
	return u
}

func TestGuestCheckoutIsNotRetrievableByOwners(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	someone := f.createUser(t, "someone@example.com")

	receipt, err := f.svc.Checkout(ctx, order.CheckoutRequest{
		Snapshot: order.Snapshot{
			Name:          "Invitado",
			Email:         "guest@example.com",
			Phone:         "900000000",
			Address:       "Jr. Cusco 45",
			PaymentMethod: "efectivo",
		},
		Total:       "100",
		Payload:     `{"items":[{"nombre":"Urea","cantidad":2,"precio":50}]}`,
		PayloadKind: order.PayloadOpaque,
	})
	require.NoError(t, err)
	assert.Zero(t, receipt.Points)

	db, err := f.store.Acquire(ctx)
	require.NoError(t, err)
	var stored entity.Order
	require.NoError(t, db.NewSelect().Model(&stored).Where("id = ?", receipt.OrderID).Scan(ctx))
	f.store.Release(db)

	assert.Nil(t, stored.OwnerID)
	assert.Equal(t, entity.OrderStatusPending, stored.Status)
	assert.Equal(t, `{"items":[{"nombre":"Urea","cantidad":2,"precio":50}]}`, stored.Payload)

	_, err = f.svc.Invoice(ctx, receipt.OrderID, someone, "someone@example.com")
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))
}

func TestAuthenticatedCheckoutAwardsPoints(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	owner := f.createUser(t, "ana@example.com")
	other := f.createUser(t, "eve@example.com")

	receipt, err := f.svc.Checkout(ctx, order.CheckoutRequest{
		OwnerID:     &owner,
		Total:       "55",
		Payload:     `{"items":[{"nombre":"Guano","cantidad":1,"precio":55}],"email":"ana@example.com"}`,
		PayloadKind: order.PayloadJSON,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), receipt.Points)
	assert.Equal(t, fmt.Sprintf("¡Pedido #%d realizado con éxito! Ganaste 5 puntos.", receipt.OrderID), receipt.Message)
	assert.Equal(t, int64(5), f.user(t, owner).Points)
	assert.Zero(t, f.user(t, other).Points)

	db, err := f.store.Acquire(ctx)
	require.NoError(t, err)
	defer f.store.Release(db)

	got, err := f.orders.Get(ctx, db, receipt.OrderID, owner)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.CustomerEmail)
	assert.True(t, decimal.NewFromInt(55).Equal(got.Total))

	_, err = f.orders.Get(ctx, db, receipt.OrderID, other)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestOrderIDsIncrease(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	owner := f.createUser(t, "ana@example.com")

	var last int64
	for i := 0; i < 3; i++ {
		receipt, err := f.svc.Checkout(ctx, order.CheckoutRequest{OwnerID: &owner, Total: "9.99", Payload: `{"items":[]}`})
		require.NoError(t, err)
		assert.Greater(t, receipt.OrderID, last)
		last = receipt.OrderID
	}
	assert.Zero(t, f.user(t, owner).Points)
}

func TestInvoiceForOwnedOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	owner := f.createUser(t, "ana@example.com")

	receipt, err := f.svc.Checkout(ctx, order.CheckoutRequest{OwnerID: &owner, Total: "30", Payload: `{"items":[{"nombre":"Cal","cantidad":3,"precio":10}]}`})
	require.NoError(t, err)

	first, err := f.svc.Invoice(ctx, receipt.OrderID, owner, "ana@example.com")
	require.NoError(t, err)
	second, err := f.svc.Invoice(ctx, receipt.OrderID, owner, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
