package utils

import (
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"delivery-system/pkg/constants"
)

// FormatFileSize - "512 B", "1.5 KB", "12.34 MB".
func FormatFileSize(bytes int64) string {
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size > 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	rounded := math.Round(size*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + units[i]
}

var (
	documentMimes     = []string{"application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "text/plain", "text/rtf"}
	spreadsheetMimes  = []string{"application/vnd.ms-excel", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "text/csv"}
	presentationMimes = []string{"application/vnd.ms-powerpoint", "application/vnd.openxmlformats-officedocument.presentationml.presentation"}
	archiveMimes      = []string{"application/zip", "application/x-rar-compressed", "application/x-7z-compressed"}
)

// FileTypeFromMime определяет категорию вложения по MIME-типу.
func FileTypeFromMime(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return constants.FileTypeImage
	case strings.HasPrefix(mimeType, "application/pdf"):
		return constants.FileTypePDF
	case slices.Contains(documentMimes, mimeType):
		return constants.FileTypeDocument
	case slices.Contains(spreadsheetMimes, mimeType):
		return constants.FileTypeSpreadsheet
	case slices.Contains(presentationMimes, mimeType):
		return constants.FileTypePresentation
	case slices.Contains(archiveMimes, mimeType):
		return constants.FileTypeArchive
	}
	return constants.FileTypeDocument
}

// OrderNumberPrefix: префикс банка или первые 2 буквы названия, только буквы, в верхнем регистре.
func OrderNumberPrefix(bankName, orderPrefix string) string {
	source := strings.TrimSpace(orderPrefix)
	if source == "" {
		runes := []rune(strings.TrimSpace(bankName))
		source = string(runes[:min(2, len(runes))])
	}
	var sb strings.Builder
	for _, r := range source {
		if unicode.IsLetter(r) {
			sb.WriteRune(unicode.ToUpper(r))
		}
	}
	return sb.String()
}

func FormatOrderNumber(prefix string, n int) string {
	return fmt.Sprintf("%s%05d", prefix, n)
}

// HasExtension проверяет расширение файла без учёта регистра.
func HasExtension(filename string, allowed ...string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return slices.Contains(allowed, ext)
}

// SanitizeFileName убирает из имени символы, недопустимые в Content-Disposition и zip.
func SanitizeFileName(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "\"", "", ":", "_", "*", "_", "?", "", "<", "", ">", "", "|", "_")
	return strings.TrimSpace(replacer.Replace(name))
}
