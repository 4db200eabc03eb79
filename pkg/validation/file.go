package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"

	"delivery-system/pkg/config"
)

// ValidateFile проверяет размер и MIME-тип файла.
// contextName - ключ из config.UploadContexts (например, "order_photo").
// Возвращает определённый по содержимому MIME-тип.
func ValidateFile(fileHeader *multipart.FileHeader, file io.ReadSeeker, contextName string) (string, error) {
	rules, ok := config.UploadContexts[contextName]
	if !ok {
		return "", fmt.Errorf("внутренняя ошибка: неизвестный контекст загрузки '%s'", contextName)
	}

	if rules.MaxSizeMB > 0 {
		maxSizeBytes := rules.MaxSizeMB * 1024 * 1024
		if fileHeader.Size > maxSizeBytes {
			return "", fmt.Errorf("размер файла (%.2f MB) превышает лимит в %d MB", float64(fileHeader.Size)/1024/1024, rules.MaxSizeMB)
		}
	}

	// Читаем заголовок файла (первые 512 байт)
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("ошибка чтения файла")
	}

	// Возвращаем курсор чтения в начало
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("ошибка обработки файла")
	}

	mimeType := http.DetectContentType(buffer[:n])
	// Office-документы определяются как zip, уточняем по заголовку запроса
	if declared := fileHeader.Header.Get("Content-Type"); declared != "" && isGenericMime(mimeType) {
		mimeType = declared
	}
	mimeType = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])

	if len(rules.AllowedMimeTypes) > 0 && !slices.Contains(rules.AllowedMimeTypes, mimeType) {
		return "", fmt.Errorf("недопустимый формат файла: %s", mimeType)
	}

	return mimeType, nil
}

func isGenericMime(mime string) bool {
	return strings.HasPrefix(mime, "application/zip") ||
		strings.HasPrefix(mime, "application/octet-stream") ||
		strings.HasPrefix(mime, "text/plain")
}
