package entities

import (
	"time"

	"delivery-system/pkg/types"
)

type User struct {
	ID       uint64  `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Email    string  `json:"email" db:"email"`
	Password string  `json:"-" db:"password"`
	Phone    *string `json:"phone" db:"phone"`
	Role     string  `json:"role" db:"role"`
	BankID   *uint64 `json:"bank_id" db:"bank_id"`
	IsActive bool    `json:"is_active" db:"is_active"`
	Note     *string `json:"note" db:"note"`

	BankAccessKeyHash *string    `json:"-" db:"bank_access_key_hash"`
	BankKeyExpiresAt  *time.Time `json:"bank_key_expires_at,omitempty" db:"bank_key_expires_at"`
	OneSignalPlayerID *string    `json:"-" db:"onesignal_player_id"`

	Bank *BankShort `json:"bank,omitempty" db:"-"`

	types.BaseEntity
}

// UserShort - пользователь, вложенный в другие ответы (курьер, автор).
type UserShort struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}
