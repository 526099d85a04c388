package config

type UploadConfig struct {
	AllowedMimeTypes []string
	AllowedExt       []string
	MaxSizeMB        int64
	MaxRows          int // 0 - без лимита
}

var UploadContexts = map[string]UploadConfig{
	// xlsx - это zip-архив, DetectContentType видит именно его
	"equipment_import": {
		AllowedMimeTypes: []string{
			"application/zip",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		},
		AllowedExt: []string{".xlsx"},
		MaxSizeMB:  5,
		MaxRows:    5000,
	},
}

// MaxBatchSize - общий лимит серийных номеров в одном пакете для JSON и xlsx. 0 - без лимита.
func MaxBatchSize() int {
	return UploadContexts["equipment_import"].MaxRows
}
