package entities

import "delivery-system/pkg/types"

type OrderStatus struct {
	ID    uint64  `json:"id" db:"id"`
	Title string  `json:"title" db:"title"`
	Color *string `json:"color" db:"color"`

	types.BaseEntity
}
