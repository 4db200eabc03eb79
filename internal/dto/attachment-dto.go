package dto

import "time"

type OrderFileResponseDTO struct {
	ID            uint64       `json:"id"`
	FileName      string       `json:"file_name"`
	FileType      string       `json:"file_type"`
	MimeType      string       `json:"mime_type"`
	FileSize      int64        `json:"file_size"`
	FormattedSize string       `json:"formatted_size"`
	URL           string       `json:"url"`
	UploadedBy    ShortUserDTO `json:"uploaded_by"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     *time.Time   `json:"updated_at,omitempty"`
}

type OrderPhotoResponseDTO struct {
	ID        uint64    `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// DownloadDTO - открытый файл для отдачи клиенту. Reader закрывает вызывающий.
type DownloadDTO struct {
	FileName    string
	ContentType string
	Size        int64
}
