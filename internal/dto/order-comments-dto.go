package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type CreateCommentDTO struct {
	Comment string `json:"comment" validate:"required,max=1000"`
}

// UpdateCommentDTO - отметка выполнения и/или правка текста.
type UpdateCommentDTO struct {
	IsCompleted null.Bool   `json:"is_completed"`
	Comment     null.String `json:"comment" validate:"omitempty,max=1000"`
}

type CommentOrderDTO struct {
	ID          uint64  `json:"id"`
	OrderNumber *string `json:"order_number"`
	BankName    string  `json:"bank_name"`
}

type CommentResponseDTO struct {
	ID          uint64               `json:"id"`
	OrderID     uint64               `json:"order_id"`
	UserID      uint64               `json:"user_id"`
	Comment     string               `json:"comment"`
	IsCompleted bool                 `json:"is_completed"`
	CompletedAt *time.Time           `json:"completed_at"`
	CreatedAt   *time.Time           `json:"created_at"`
	UpdatedAt   *time.Time           `json:"updated_at"`
	User        ShortUserWithRoleDTO `json:"user"`
	Order       *CommentOrderDTO     `json:"order,omitempty"`
}

type CourierCommentsDTO struct {
	Comments    []CommentResponseDTO `json:"comments"`
	Total       int                  `json:"total"`
	Uncompleted int                  `json:"uncompleted"`
}
