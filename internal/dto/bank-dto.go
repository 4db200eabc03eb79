package dto

import "time"

type BankDTO struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Phone       *string `json:"phone" validate:"omitempty,max=255"`
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	OrderPrefix *string `json:"order_prefix" validate:"omitempty,max=10"`
}

type BankResponseDTO struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Phone       *string    `json:"phone"`
	Email       *string    `json:"email"`
	OrderPrefix *string    `json:"order_prefix"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}
