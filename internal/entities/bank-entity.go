package entities

import "delivery-system/pkg/types"

type Bank struct {
	ID          uint64  `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Phone       *string `json:"phone" db:"phone"`
	Email       *string `json:"email" db:"email"`
	OrderPrefix *string `json:"order_prefix" db:"order_prefix"`

	types.BaseEntity
}

// BankShort - банк, вложенный в заказ или пользователя.
type BankShort struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}
