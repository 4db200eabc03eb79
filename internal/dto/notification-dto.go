package dto

import (
	"encoding/json"
	"time"
)

type NotificationResponseDTO struct {
	ID        uint64          `json:"id"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Data      json.RawMessage `json:"data"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}
