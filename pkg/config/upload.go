package config

type UploadConfig struct {
	AllowedMimeTypes []string
	MaxSizeMB        int64
	PathPrefix       string
}

const (
	UploadContextOrderFile   = "order_file"
	UploadContextOrderPhoto  = "order_photo"
	UploadContextOrderImport = "order_import"
)

var UploadContexts = map[string]UploadConfig{
	UploadContextOrderFile: {
		// пустой список - любой тип
		MaxSizeMB:  10,
		PathPrefix: "order-files",
	},
	UploadContextOrderPhoto: {
		AllowedMimeTypes: []string{"image/jpeg", "image/png", "image/jpg"},
		MaxSizeMB:        5,
		PathPrefix:       "order-photos",
	},
	UploadContextOrderImport: {
		AllowedMimeTypes: []string{
			"application/zip",
			"application/octet-stream",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		},
		MaxSizeMB: 10,
	},
}
