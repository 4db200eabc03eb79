package entities

import "time"

type OrderFile struct {
	ID         uint64    `json:"id" db:"id"`
	OrderID    uint64    `json:"order_id" db:"order_id"`
	FileName   string    `json:"file_name" db:"file_name"`
	FilePath   string    `json:"-" db:"file_path"`
	FileType   string    `json:"file_type" db:"file_type"`
	MimeType   string    `json:"mime_type" db:"mime_type"`
	FileSize   int64     `json:"file_size" db:"file_size"`
	UploadedBy uint64    `json:"-" db:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`

	Uploader *UserShort `json:"-" db:"-"`
}

type OrderPhoto struct {
	ID         uint64    `json:"id" db:"id"`
	OrderID    uint64    `json:"order_id" db:"order_id"`
	FilePath   string    `json:"-" db:"file_path"`
	UploadedBy *uint64   `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
