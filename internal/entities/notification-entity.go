package entities

import (
	"encoding/json"
	"time"
)

type Notification struct {
	ID        uint64          `json:"id" db:"id"`
	UserID    uint64          `json:"user_id" db:"user_id"`
	Title     string          `json:"title" db:"title"`
	Body      string          `json:"body" db:"body"`
	Data      json.RawMessage `json:"data" db:"data"`
	IsRead    bool            `json:"is_read" db:"is_read"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
