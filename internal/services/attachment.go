package services

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/config"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/filestorage"
	"delivery-system/pkg/utils"
	"delivery-system/pkg/validation"
)

const uploadsURLPrefix = "/uploads/"

// ArchiveWriter пишет zip-архив в w. Заголовки ответа выставляются до вызова.
type ArchiveWriter func(w io.Writer) error

type AttachmentServiceInterface interface {
	GetFiles(ctx context.Context, orderID uint64) ([]dto.OrderFileResponseDTO, error)
	FindFile(ctx context.Context, orderID, fileID uint64) (*dto.OrderFileResponseDTO, error)
	UploadFiles(ctx context.Context, orderID uint64, files []*multipart.FileHeader) ([]dto.OrderFileResponseDTO, error)
	OpenFile(ctx context.Context, orderID, fileID uint64) (io.ReadCloser, *dto.DownloadDTO, error)
	DeleteFile(ctx context.Context, orderID, fileID uint64) error
	DownloadAllFiles(ctx context.Context, orderID uint64) (string, ArchiveWriter, error)

	GetPhotos(ctx context.Context, orderID uint64) ([]dto.OrderPhotoResponseDTO, error)
	UploadPhotos(ctx context.Context, orderID uint64, photos []*multipart.FileHeader) ([]dto.OrderPhotoResponseDTO, error)
	DeletePhoto(ctx context.Context, orderID, photoID uint64) error
	DownloadAllPhotos(ctx context.Context, orderID uint64) (string, ArchiveWriter, error)
}

type AttachmentService struct {
	*BaseService
	orderRepo   repositories.OrderRepositoryInterface
	fileRepo    repositories.OrderFileRepositoryInterface
	photoRepo   repositories.OrderPhotoRepositoryInterface
	fileStorage filestorage.FileStorageInterface
}

func NewAttachmentService(
	base *BaseService,
	orderRepo repositories.OrderRepositoryInterface,
	fileRepo repositories.OrderFileRepositoryInterface,
	photoRepo repositories.OrderPhotoRepositoryInterface,
	fileStorage filestorage.FileStorageInterface,
) AttachmentServiceInterface {
	return &AttachmentService{
		BaseService: base,
		orderRepo:   orderRepo,
		fileRepo:    fileRepo,
		photoRepo:   photoRepo,
		fileStorage: fileStorage,
	}
}

func fileToResponse(f *entities.OrderFile) dto.OrderFileResponseDTO {
	res := dto.OrderFileResponseDTO{
		ID:            f.ID,
		FileName:      f.FileName,
		FileType:      f.FileType,
		MimeType:      f.MimeType,
		FileSize:      f.FileSize,
		FormattedSize: utils.FormatFileSize(f.FileSize),
		URL:           uploadsURLPrefix + f.FilePath,
		UploadedBy:    dto.ShortUserDTO{ID: f.UploadedBy},
		CreatedAt:     f.CreatedAt,
	}
	if !f.UpdatedAt.IsZero() {
		res.UpdatedAt = utils.ToPtr(f.UpdatedAt)
	}
	if f.Uploader != nil {
		res.UploadedBy.Name = f.Uploader.Name
	}
	return res
}

func photoToResponse(p *entities.OrderPhoto) dto.OrderPhotoResponseDTO {
	return dto.OrderPhotoResponseDTO{ID: p.ID, URL: uploadsURLPrefix + p.FilePath, CreatedAt: p.CreatedAt}
}

// accessibleOrder - заказ, на который у актёра есть право permission.
func (s *AttachmentService) accessibleOrder(ctx context.Context, orderID uint64, permission string) (*entities.User, *entities.Order, error) {
	actor, err := s.CurrentActor(ctx)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.orderRepo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if !s.gatekeeper.CanViewOrder(actor, order) || !s.gatekeeper.Can(actor, permission, order) {
		return nil, nil, apperrors.ErrForbidden
	}
	return actor, order, nil
}

func (s *AttachmentService) GetFiles(ctx context.Context, orderID uint64) ([]dto.OrderFileResponseDTO, error) {
	if _, _, err := s.accessibleOrder(ctx, orderID, authz.OrdersView); err != nil {
		return nil, err
	}
	files, err := s.fileRepo.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.OrderFileResponseDTO, 0, len(files))
	for i := range files {
		result = append(result, fileToResponse(&files[i]))
	}
	return result, nil
}

func (s *AttachmentService) FindFile(ctx context.Context, orderID, fileID uint64) (*dto.OrderFileResponseDTO, error) {
	if _, _, err := s.accessibleOrder(ctx, orderID, authz.OrdersView); err != nil {
		return nil, err
	}
	file, err := s.fileRepo.FindFile(ctx, orderID, fileID)
	if err != nil {
		return nil, err
	}
	res := fileToResponse(file)
	return &res, nil
}

// UploadFiles сохраняет все файлы или ни одного: при ошибке уже сохранённые удаляются.
func (s *AttachmentService) UploadFiles(ctx context.Context, orderID uint64, files []*multipart.FileHeader) ([]dto.OrderFileResponseDTO, error) {
	actor, _, err := s.accessibleOrder(ctx, orderID, authz.FilesUpload)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fieldError("files", "Выберите хотя бы один файл")
	}

	rules := config.UploadContexts[config.UploadContextOrderFile]
	var saved []entities.OrderFile
	rollback := func() {
		for _, f := range saved {
			_ = s.fileRepo.DeleteFile(ctx, f.ID)
			_ = s.fileStorage.Delete(f.FilePath)
		}
	}

	for _, fh := range files {
		path, mimeType, err := s.storeUpload(fh, config.UploadContextOrderFile, rules.PathPrefix)
		if err != nil {
			rollback()
			return nil, err
		}
		created, err := s.fileRepo.CreateFile(ctx, &entities.OrderFile{
			OrderID:    orderID,
			FileName:   fh.Filename,
			FilePath:   path,
			FileType:   utils.FileTypeFromMime(mimeType),
			MimeType:   mimeType,
			FileSize:   fh.Size,
			UploadedBy: actor.ID,
		})
		if err != nil {
			_ = s.fileStorage.Delete(path)
			rollback()
			return nil, err
		}
		saved = append(saved, *created)
	}

	s.logger.Info("Файлы загружены к заказу",
		zap.Uint64("orderID", orderID),
		zap.Int("count", len(saved)),
		zap.Uint64("userID", actor.ID),
	)
	result := make([]dto.OrderFileResponseDTO, 0, len(saved))
	for i := range saved {
		saved[i].Uploader = &entities.UserShort{ID: actor.ID, Name: actor.Name}
		result = append(result, fileToResponse(&saved[i]))
	}
	return result, nil
}

// storeUpload проверяет файл по правилам контекста и кладёт его в хранилище.
func (s *AttachmentService) storeUpload(fh *multipart.FileHeader, uploadContext, prefix string) (string, string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", "", apperrors.NewInvalidInputError("Не удалось открыть файл %s", fh.Filename)
	}
	defer src.Close()

	mimeType, err := validation.ValidateFile(fh, src, uploadContext)
	if err != nil {
		return "", "", apperrors.NewValidationError(fmt.Sprintf("%s: %s", fh.Filename, err.Error()), nil)
	}
	path, err := s.fileStorage.Save(src, fh.Filename, prefix)
	if err != nil {
		s.logger.Error("Не удалось сохранить файл", zap.String("file", fh.Filename), zap.Error(err))
		return "", "", err
	}
	return path, mimeType, nil
}

func (s *AttachmentService) OpenFile(ctx context.Context, orderID, fileID uint64) (io.ReadCloser, *dto.DownloadDTO, error) {
	if _, _, err := s.accessibleOrder(ctx, orderID, authz.OrdersView); err != nil {
		return nil, nil, err
	}
	file, err := s.fileRepo.FindFile(ctx, orderID, fileID)
	if err != nil {
		return nil, nil, err
	}
	reader, err := s.fileStorage.Open(file.FilePath)
	if err != nil {
		if errors.Is(err, filestorage.ErrFileNotFound) {
			return nil, nil, apperrors.NewNotFoundError("Файл не найден")
		}
		return nil, nil, err
	}
	return reader, &dto.DownloadDTO{FileName: file.FileName, ContentType: file.MimeType, Size: file.FileSize}, nil
}

func (s *AttachmentService) DeleteFile(ctx context.Context, orderID, fileID uint64) error {
	actor, _, err := s.accessibleOrder(ctx, orderID, authz.FilesDelete)
	if err != nil {
		return err
	}
	file, err := s.fileRepo.FindFile(ctx, orderID, fileID)
	if err != nil {
		return err
	}
	if !s.gatekeeper.Can(actor, authz.FilesDelete, file) {
		return apperrors.NewForbiddenError("Удалить файл может только загрузивший его пользователь или администратор")
	}
	if err := s.fileRepo.DeleteFile(ctx, file.ID); err != nil {
		return err
	}
	if err := s.fileStorage.Delete(file.FilePath); err != nil {
		s.logger.Warn("Не удалось удалить файл с диска", zap.String("path", file.FilePath), zap.Error(err))
	}
	return nil
}

func (s *AttachmentService) DownloadAllFiles(ctx context.Context, orderID uint64) (string, ArchiveWriter, error) {
	_, order, err := s.accessibleOrder(ctx, orderID, authz.OrdersView)
	if err != nil {
		return "", nil, err
	}
	files, err := s.fileRepo.GetByOrder(ctx, orderID)
	if err != nil {
		return "", nil, err
	}
	entries := make([]archiveEntry, 0, len(files))
	for _, f := range files {
		if s.fileStorage.Exists(f.FilePath) {
			entries = append(entries, archiveEntry{Name: f.FileName, Path: f.FilePath})
		}
	}
	if len(entries) == 0 {
		return "", nil, apperrors.NewNotFoundError("У заказа нет файлов")
	}
	return archiveName(order, "files"), s.zipWriter(entries), nil
}

func (s *AttachmentService) GetPhotos(ctx context.Context, orderID uint64) ([]dto.OrderPhotoResponseDTO, error) {
	if _, _, err := s.accessibleOrder(ctx, orderID, authz.OrdersView); err != nil {
		return nil, err
	}
	photos, err := s.photoRepo.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.OrderPhotoResponseDTO, 0, len(photos))
	for i := range photos {
		result = append(result, photoToResponse(&photos[i]))
	}
	return result, nil
}

// UploadPhotos - фото загружает только курьер, назначенный на заказ.
func (s *AttachmentService) UploadPhotos(ctx context.Context, orderID uint64, photos []*multipart.FileHeader) ([]dto.OrderPhotoResponseDTO, error) {
	actor, _, err := s.accessibleOrder(ctx, orderID, authz.PhotosUpload)
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, fieldError("photos", "Выберите хотя бы одно фото")
	}

	rules := config.UploadContexts[config.UploadContextOrderPhoto]
	var saved []entities.OrderPhoto
	for _, fh := range photos {
		path, _, err := s.storeUpload(fh, config.UploadContextOrderPhoto, rules.PathPrefix)
		if err != nil {
			s.dropPhotos(ctx, saved)
			return nil, err
		}
		created, err := s.photoRepo.CreatePhoto(ctx, &entities.OrderPhoto{
			OrderID:    orderID,
			FilePath:   path,
			UploadedBy: &actor.ID,
		})
		if err != nil {
			_ = s.fileStorage.Delete(path)
			s.dropPhotos(ctx, saved)
			return nil, err
		}
		saved = append(saved, *created)
	}

	s.logger.Info("Фото загружены к заказу", zap.Uint64("orderID", orderID), zap.Int("count", len(saved)))
	result := make([]dto.OrderPhotoResponseDTO, 0, len(saved))
	for i := range saved {
		result = append(result, photoToResponse(&saved[i]))
	}
	return result, nil
}

func (s *AttachmentService) dropPhotos(ctx context.Context, photos []entities.OrderPhoto) {
	for _, p := range photos {
		_ = s.photoRepo.DeletePhoto(ctx, p.ID)
		_ = s.fileStorage.Delete(p.FilePath)
	}
}

func (s *AttachmentService) DeletePhoto(ctx context.Context, orderID, photoID uint64) error {
	actor, _, err := s.accessibleOrder(ctx, orderID, authz.PhotosDelete)
	if err != nil {
		return err
	}
	photo, err := s.photoRepo.FindPhoto(ctx, orderID, photoID)
	if err != nil {
		return err
	}
	if !s.gatekeeper.Can(actor, authz.PhotosDelete, photo) {
		return apperrors.NewForbiddenError("Удалить фото может только загрузивший его курьер или сотрудник")
	}
	if err := s.photoRepo.DeletePhoto(ctx, photo.ID); err != nil {
		return err
	}
	if err := s.fileStorage.Delete(photo.FilePath); err != nil {
		s.logger.Warn("Не удалось удалить фото с диска", zap.String("path", photo.FilePath), zap.Error(err))
	}
	return nil
}

func (s *AttachmentService) DownloadAllPhotos(ctx context.Context, orderID uint64) (string, ArchiveWriter, error) {
	_, order, err := s.accessibleOrder(ctx, orderID, authz.OrdersView)
	if err != nil {
		return "", nil, err
	}
	photos, err := s.photoRepo.GetByOrder(ctx, orderID)
	if err != nil {
		return "", nil, err
	}
	entries := make([]archiveEntry, 0, len(photos))
	for _, p := range photos {
		if s.fileStorage.Exists(p.FilePath) {
			name := fmt.Sprintf("photo_%d%s", p.ID, strings.ToLower(filepath.Ext(p.FilePath)))
			entries = append(entries, archiveEntry{Name: name, Path: p.FilePath})
		}
	}
	if len(entries) == 0 {
		return "", nil, apperrors.NewNotFoundError("У заказа нет фото")
	}
	return archiveName(order, "photos"), s.zipWriter(entries), nil
}

type archiveEntry struct {
	Name string
	Path string
}

// archiveName - "<Фамилия Имя Отчество>_<дд.мм.гггг>_<kind>.zip".
func archiveName(order *entities.Order, kind string) string {
	client := utils.SanitizeFileName(order.ClientFullName())
	if client == "" {
		client = fmt.Sprintf("order_%d", order.ID)
	}
	return fmt.Sprintf("%s_%s_%s.zip", client, time.Now().Format(utils.DisplayDate), kind)
}

// uniqueEntryName добавляет номер к повторяющимся именам внутри архива.
func uniqueEntryName(name string, seen map[string]int) string {
	seen[name]++
	if seen[name] == 1 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), seen[name]-1, ext)
}

func (s *AttachmentService) zipWriter(entries []archiveEntry) ArchiveWriter {
	return func(w io.Writer) error {
		zw := zip.NewWriter(w)
		seen := make(map[string]int)
		for _, e := range entries {
			if err := s.addToZip(zw, uniqueEntryName(e.Name, seen), e.Path); err != nil {
				s.logger.Warn("Файл пропущен при упаковке", zap.String("path", e.Path), zap.Error(err))
			}
		}
		return zw.Close()
	}
}

func (s *AttachmentService) addToZip(zw *zip.Writer, name, path string) error {
	src, err := s.fileStorage.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}
