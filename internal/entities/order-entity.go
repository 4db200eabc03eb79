package entities

import (
	"strings"
	"time"

	"delivery-system/pkg/types"
)

type Order struct {
	ID             uint64     `json:"id" db:"id"`
	BankID         uint64     `json:"bank_id" db:"bank_id"`
	OrderNumber    *string    `json:"order_number" db:"order_number"`
	Product        string     `json:"product" db:"product"`
	Name           string     `json:"name" db:"name"`
	Surname        string     `json:"surname" db:"surname"`
	Patronymic     string     `json:"patronymic" db:"patronymic"`
	Phone          string     `json:"phone" db:"phone"`
	Address        string     `json:"address" db:"address"`
	DeliveryAt     time.Time  `json:"delivery_at" db:"delivery_at"`
	DeliveredAt    *time.Time `json:"delivered_at" db:"delivered_at"`
	CourierID      *uint64    `json:"courier_id" db:"courier_id"`
	OrderStatusID  uint64     `json:"order_status_id" db:"order_status_id"`
	Note           *string    `json:"note" db:"note"`
	DeclinedReason *string    `json:"declined_reason" db:"declined_reason"`
	CourierNote    *string    `json:"courier_note" db:"courier_note"`

	Bank    *BankShort   `json:"bank,omitempty" db:"-"`
	Courier *UserShort   `json:"courier,omitempty" db:"-"`
	Status  *OrderStatus `json:"status,omitempty" db:"-"`

	types.BaseEntity
}

// ClientFullName - "Фамилия Имя Отчество".
func (o *Order) ClientFullName() string {
	return strings.Join(strings.Fields(o.Surname+" "+o.Name+" "+o.Patronymic), " ")
}
