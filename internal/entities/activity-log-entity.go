package entities

import (
	"encoding/json"
	"time"
)

type ActivityLog struct {
	ID          uint64          `db:"id"`
	LogName     string          `db:"log_name"`
	Description string          `db:"description"`
	SubjectType *string         `db:"subject_type"`
	SubjectID   *uint64         `db:"subject_id"`
	Event       *string         `db:"event"`
	CauserID    *uint64         `db:"causer_id"`
	Properties  json.RawMessage `db:"properties"`
	CreatedAt   time.Time       `db:"created_at"`

	CauserName *string `db:"-"`
}

// ActivityProperties - содержимое properties: новые и старые значения изменённых полей.
type ActivityProperties struct {
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	Old        map[string]interface{} `json:"old,omitempty"`
}
