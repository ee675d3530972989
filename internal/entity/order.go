package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OrderStatusPending is the status every checkout starts with. Later
// transitions belong to back-office tooling.
const OrderStatusPending = "pending"

// Order is a persisted checkout: a customer snapshot taken at submission time,
// the total, and the cart payload stored verbatim.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID              int64           `bun:",pk,autoincrement" json:"id"`
	OwnerID         *int64          `bun:"owner_id" json:"owner_id,omitempty"`
	CustomerName    string          `bun:"customer_name,nullzero" json:"customer_name"`
	CustomerEmail   string          `bun:"customer_email,nullzero" json:"customer_email"`
	CustomerPhone   string          `bun:"customer_phone,nullzero" json:"customer_phone"`
	CustomerAddress string          `bun:"customer_address,nullzero" json:"customer_address"`
	PaymentMethod   string          `bun:"payment_method,nullzero" json:"payment_method"`
	Total           decimal.Decimal `bun:"total,type:decimal(10,2)" json:"total"`
	Status          string          `bun:"status,nullzero,notnull,default:'pending'" json:"status"`
	Payload         string          `bun:"payload" json:"payload"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// IsGuest reports whether the order was placed without an account.
func (o *Order) IsGuest() bool {
	return o.OwnerID == nil
}
