package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type CreateOrderDTO struct {
	BankID         uint64  `json:"bank_id" validate:"omitempty,gt=0"`
	Product        string  `json:"product" validate:"required,max=255"`
	Name           string  `json:"name" validate:"required,max=255"`
	Surname        string  `json:"surname" validate:"required,max=255"`
	Patronymic     string  `json:"patronymic" validate:"required,max=255"`
	Phone          string  `json:"phone" validate:"required,max=255"`
	Address        string  `json:"address" validate:"required,max=255"`
	DeliveryAt     string  `json:"delivery_at" validate:"required"`
	CourierID      *uint64 `json:"courier_id" validate:"omitempty,gt=0"`
	Note           *string `json:"note"`
	DeclinedReason *string `json:"declined_reason"`
}

// UpdateOrderDTO - PUT заказа, заменяет все поля.
type UpdateOrderDTO struct {
	BankID         uint64  `json:"bank_id" validate:"required,gt=0"`
	Product        string  `json:"product" validate:"required,max=255"`
	Name           string  `json:"name" validate:"required,max=255"`
	Surname        string  `json:"surname" validate:"required,max=255"`
	Patronymic     string  `json:"patronymic" validate:"required,max=255"`
	Phone          string  `json:"phone" validate:"required,max=255"`
	Address        string  `json:"address" validate:"required,max=255"`
	DeliveryAt     string  `json:"delivery_at" validate:"required"`
	DeliveredAt    *string `json:"delivered_at"`
	CourierID      *uint64 `json:"courier_id" validate:"omitempty,gt=0"`
	OrderStatusID  uint64  `json:"order_status_id" validate:"required,gt=0"`
	Note           *string `json:"note"`
	DeclinedReason *string `json:"declined_reason"`
}

type ChangeOrderStatusDTO struct {
	OrderStatusID  uint64  `json:"order_status_id" validate:"required,gt=0"`
	DeclinedReason *string `json:"declined_reason"`
	DeliveryAt     *string `json:"delivery_at"`
}

// BulkUpdateOrdersDTO - массовое изменение; применяются только переданные поля.
type BulkUpdateOrdersDTO struct {
	IDs            []uint64    `json:"ids"`
	OrderStatusID  null.Uint64 `json:"order_status_id"`
	CourierID      null.Uint64 `json:"courier_id"`
	BankID         null.Uint64 `json:"bank_id"`
	DeliveryAt     null.String `json:"delivery_at"`
	DeclinedReason null.String `json:"declined_reason"`
	Note           null.String `json:"note"`
}

func (d BulkUpdateOrdersDTO) HasFields() bool {
	return d.OrderStatusID.Valid || d.CourierID.Valid || d.BankID.Valid ||
		d.DeliveryAt.Valid || d.DeclinedReason.Valid || d.Note.Valid
}

type CourierNoteDTO struct {
	CourierNote string `json:"courier_note" validate:"required,max=1000"`
}

type OrderResponseDTO struct {
	ID             uint64          `json:"id"`
	BankID         uint64          `json:"bank_id"`
	OrderNumber    *string         `json:"order_number"`
	Product        string          `json:"product"`
	Name           string          `json:"name"`
	Surname        string          `json:"surname"`
	Patronymic     string          `json:"patronymic"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	DeliveryAt     time.Time       `json:"delivery_at"`
	DeliveredAt    *time.Time      `json:"delivered_at"`
	CourierID      *uint64         `json:"courier_id"`
	OrderStatusID  uint64          `json:"order_status_id"`
	Note           *string         `json:"note"`
	DeclinedReason *string         `json:"declined_reason"`
	CourierNote    *string         `json:"courier_note"`
	Bank           *ShortBankDTO   `json:"bank"`
	Courier        *ShortUserDTO   `json:"courier"`
	Status         *ShortStatusDTO `json:"status"`
	CreatedAt      *time.Time      `json:"created_at"`
	UpdatedAt      *time.Time      `json:"updated_at"`
}

// ImportFailureDTO - ошибка одной ячейки при импорте из Excel.
type ImportFailureDTO struct {
	Row       int               `json:"row"`
	Attribute string            `json:"attribute"`
	Errors    []string          `json:"errors"`
	Values    map[string]string `json:"values"`
}

type ImportResultDTO struct {
	Imported int `json:"imported"`
}
