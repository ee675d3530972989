package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Address is an entry in a user's address book.
type Address struct {
	bun.BaseModel `bun:"table:addresses"`

	ID         int64  `bun:",pk,autoincrement" json:"id"`
	UserID     int64  `bun:"user_id,notnull" json:"-"`
	Alias      string `bun:"alias,nullzero" json:"alias"`
	Street     string `bun:"street,notnull" json:"calle"`
	City       string `bun:"city,notnull" json:"ciudad"`
	State      string `bun:"state,nullzero" json:"estado"`
	PostalCode string `bun:"postal_code,nullzero" json:"codigo_postal"`
	Country    string `bun:"country,notnull" json:"pais"`
	IsPrimary  bool   `bun:"is_primary,notnull,default:false" json:"es_principal"`
}

// WishlistItem marks a product as a favourite of a user.
type WishlistItem struct {
	bun.BaseModel `bun:"table:wishlist_items"`

	ID        int64     `bun:",pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id,notnull" json:"-"`
	ProductID int64     `bun:"product_id,notnull" json:"producto_id"`
	AddedAt   time.Time `bun:"added_at,nullzero,notnull,default:current_timestamp" json:"fecha_agregado"`
}

// NotificationPreferences holds the channels a user opted into.
type NotificationPreferences struct {
	bun.BaseModel `bun:"table:notification_preferences"`

	ID          int64 `bun:",pk,autoincrement" json:"-"`
	UserID      int64 `bun:"user_id,notnull,unique" json:"-"`
	Email       bool  `bun:"email_enabled,notnull" json:"email_notificaciones"`
	SMS         bool  `bun:"sms_enabled,notnull" json:"sms_notificaciones"`
	Promotional bool  `bun:"promotional_enabled,notnull" json:"emails_promocionales"`
}

// DefaultNotificationPreferences is what a user gets until they change it.
func DefaultNotificationPreferences(userID int64) NotificationPreferences {
	return NotificationPreferences{UserID: userID, Email: true, SMS: false, Promotional: true}
}

// ContactMessage is a submission of the public contact form.
type ContactMessage struct {
	bun.BaseModel `bun:"table:contact_messages"`

	ID        int64     `bun:",pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	Email     string    `bun:"email,notnull"`
	Message   string    `bun:"message,notnull"`
	ClientIP  string    `bun:"client_ip,nullzero"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
