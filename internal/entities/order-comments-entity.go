package entities

import (
	"time"

	"delivery-system/pkg/types"
)

type OrderComment struct {
	ID          uint64     `json:"id" db:"id"`
	OrderID     uint64     `json:"order_id" db:"order_id"`
	UserID      uint64     `json:"user_id" db:"user_id"`
	Comment     string     `json:"comment" db:"comment"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`

	User  *UserShort `json:"user,omitempty" db:"-"`
	Order *Order     `json:"order,omitempty" db:"-"`

	types.BaseEntity
}
