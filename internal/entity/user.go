package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// User is a registered customer. Points only ever grow through accrual.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           int64     `bun:",pk,autoincrement"`
	Email        string    `bun:"email,notnull,unique"`
	Phone        string    `bun:"phone,nullzero"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Points       int64     `bun:"points,notnull,default:0"`
	SocialID     *string   `bun:"social_id"`
	Provider     *string   `bun:"provider"`
	RegisteredAt time.Time `bun:"registered_at,nullzero,notnull,default:current_timestamp"`
}
