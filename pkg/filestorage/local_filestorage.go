package filestorage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrFileNotFound = errors.New("файл не найден в хранилище")

// FileStorageInterface - хранилище вложений. Пути относительные, вида "order-files/2025/01/31/<uuid>.pdf".
type FileStorageInterface interface {
	Save(file io.Reader, originalFileName string, prefix string) (filePath string, err error)
	Open(filePath string) (io.ReadCloser, error)
	Exists(filePath string) bool
	Delete(filePath string) error
}

type LocalFileStorage struct {
	basePath string
}

func NewLocalFileStorage(basePath string) (FileStorageInterface, error) {
	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию: %w", err)
		}
	}
	return &LocalFileStorage{basePath: basePath}, nil
}

func (s *LocalFileStorage) Save(file io.Reader, originalFileName string, prefix string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalFileName))
	uniqueFileName := uuid.New().String() + ext

	datePath := time.Now().Format("2006/01/02")
	fullDirPath := filepath.Join(s.basePath, prefix, datePath)

	if err := os.MkdirAll(fullDirPath, 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(filepath.Join(fullDirPath, uniqueFileName))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file); err != nil {
		return "", err
	}

	return filepath.ToSlash(filepath.Join(prefix, datePath, uniqueFileName)), nil
}

func (s *LocalFileStorage) Open(filePath string) (io.ReadCloser, error) {
	f, err := os.Open(s.fullPath(filePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalFileStorage) Exists(filePath string) bool {
	if filePath == "" {
		return false
	}
	info, err := os.Stat(s.fullPath(filePath))
	return err == nil && !info.IsDir()
}

func (s *LocalFileStorage) Delete(filePath string) error {
	if filePath == "" {
		return nil
	}
	fullPath := s.fullPath(filePath)

	// файла уже нет - считаем удалённым
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(fullPath)
}

// fullPath не даёт выйти за пределы basePath через "../".
func (s *LocalFileStorage) fullPath(filePath string) string {
	relativePath := strings.TrimPrefix(filepath.ToSlash(filePath), "/uploads/")
	clean := filepath.Clean("/" + relativePath)
	return filepath.Join(s.basePath, clean)
}
