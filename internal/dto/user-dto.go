package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type CreateUserDTO struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=6"`
	Phone    *string `json:"phone" validate:"omitempty,phone"`
	Role     string  `json:"role" validate:"required,user_role"`
	BankID   *uint64 `json:"bank_id" validate:"omitempty,gt=0"`
	IsActive *bool   `json:"is_active"`
	Note     *string `json:"note"`
}

// UpdateUserDTO - PUT: пароль меняется, только если передан.
type UpdateUserDTO struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Phone    *string `json:"phone" validate:"omitempty,phone"`
	Role     string  `json:"role" validate:"required,user_role"`
	BankID   *uint64 `json:"bank_id" validate:"omitempty,gt=0"`
	IsActive *bool   `json:"is_active"`
	Note     *string `json:"note"`
}

type UserResponseDTO struct {
	ID               uint64        `json:"id"`
	Name             string        `json:"name"`
	Email            string        `json:"email"`
	Phone            *string       `json:"phone"`
	Role             string        `json:"role"`
	BankID           *uint64       `json:"bank_id"`
	Bank             *ShortBankDTO `json:"bank"`
	IsActive         bool          `json:"is_active"`
	Note             *string       `json:"note"`
	BankKeyExpiresAt *time.Time    `json:"bank_key_expires_at,omitempty"`
	CreatedAt        *time.Time    `json:"created_at"`
	UpdatedAt        *time.Time    `json:"updated_at"`
}

type BankKeyResponseDTO struct {
	BankAccessKey string    `json:"bank_access_key"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// UpdateProfileDTO - PATCH профиля курьера: отсутствующие поля не меняются.
type UpdateProfileDTO struct {
	Name  null.String `json:"name" validate:"omitempty,max=255"`
	Phone null.String `json:"phone" validate:"omitempty,max=20"`
	Note  null.String `json:"note"`
}

type ProfileResponseDTO struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
	IsActive bool    `json:"is_active"`
	Note     *string `json:"note"`
}
