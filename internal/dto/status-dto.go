package dto

import "time"

type OrderStatusDTO struct {
	Title string  `json:"title" validate:"required,max=255"`
	Color *string `json:"color" validate:"omitempty,max=32"`
}

type OrderStatusResponseDTO struct {
	ID        uint64     `json:"id"`
	Title     string     `json:"title"`
	Color     *string    `json:"color"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
