package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	apperrors "delivery-system/pkg/errors"
)

const orderFileFields = `f.id, f.order_id, f.file_name, f.file_path, f.file_type, f.mime_type, f.file_size,
	f.uploaded_by, f.created_at, f.updated_at, u.name`

type OrderFileRepositoryInterface interface {
	GetByOrder(ctx context.Context, orderID uint64) ([]entities.OrderFile, error)
	FindFile(ctx context.Context, orderID, fileID uint64) (*entities.OrderFile, error)
	CreateFile(ctx context.Context, file *entities.OrderFile) (*entities.OrderFile, error)
	DeleteFile(ctx context.Context, id uint64) error
}

type OrderPhotoRepositoryInterface interface {
	GetByOrder(ctx context.Context, orderID uint64) ([]entities.OrderPhoto, error)
	FindPhoto(ctx context.Context, orderID, photoID uint64) (*entities.OrderPhoto, error)
	CreatePhoto(ctx context.Context, photo *entities.OrderPhoto) (*entities.OrderPhoto, error)
	DeletePhoto(ctx context.Context, id uint64) error
}

type OrderFileRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewOrderFileRepository(storage *pgxpool.Pool, logger *zap.Logger) OrderFileRepositoryInterface {
	return &OrderFileRepository{storage: storage, logger: logger}
}

func scanOrderFile(row pgx.Row) (*entities.OrderFile, error) {
	var f entities.OrderFile
	var uploaderName *string
	err := row.Scan(
		&f.ID, &f.OrderID, &f.FileName, &f.FilePath, &f.FileType, &f.MimeType, &f.FileSize,
		&f.UploadedBy, &f.CreatedAt, &f.UpdatedAt, &uploaderName,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	if uploaderName != nil {
		f.Uploader = &entities.UserShort{ID: f.UploadedBy, Name: *uploaderName}
	}
	return &f, nil
}

func (r *OrderFileRepository) GetByOrder(ctx context.Context, orderID uint64) ([]entities.OrderFile, error) {
	rows, err := r.storage.Query(ctx, `SELECT `+orderFileFields+`
		FROM order_files f LEFT JOIN users u ON u.id = f.uploaded_by
		WHERE f.order_id = $1 ORDER BY f.created_at DESC, f.id DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]entities.OrderFile, 0)
	for rows.Next() {
		f, err := scanOrderFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// FindFile ищет файл только среди файлов заказа orderID.
func (r *OrderFileRepository) FindFile(ctx context.Context, orderID, fileID uint64) (*entities.OrderFile, error) {
	return scanOrderFile(r.storage.QueryRow(ctx, `SELECT `+orderFileFields+`
		FROM order_files f LEFT JOIN users u ON u.id = f.uploaded_by
		WHERE f.id = $1 AND f.order_id = $2`, fileID, orderID))
}

func (r *OrderFileRepository) CreateFile(ctx context.Context, file *entities.OrderFile) (*entities.OrderFile, error) {
	var id uint64
	err := r.storage.QueryRow(ctx, `INSERT INTO order_files
		(order_id, file_name, file_path, file_type, mime_type, file_size, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		file.OrderID, file.FileName, file.FilePath, file.FileType, file.MimeType, file.FileSize, file.UploadedBy,
	).Scan(&id)
	if err != nil {
		r.logger.Error("ошибка сохранения файла заказа", zap.Uint64("order_id", file.OrderID), zap.Error(err))
		return nil, mapPgError(err)
	}
	return r.FindFile(ctx, file.OrderID, id)
}

func (r *OrderFileRepository) DeleteFile(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx, "DELETE FROM order_files WHERE id = $1", id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

type OrderPhotoRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewOrderPhotoRepository(storage *pgxpool.Pool, logger *zap.Logger) OrderPhotoRepositoryInterface {
	return &OrderPhotoRepository{storage: storage, logger: logger}
}

const orderPhotoFields = "id, order_id, file_path, uploaded_by, created_at"

func scanOrderPhoto(row pgx.Row) (*entities.OrderPhoto, error) {
	var p entities.OrderPhoto
	if err := row.Scan(&p.ID, &p.OrderID, &p.FilePath, &p.UploadedBy, &p.CreatedAt); err != nil {
		return nil, mapPgError(err)
	}
	return &p, nil
}

func (r *OrderPhotoRepository) GetByOrder(ctx context.Context, orderID uint64) ([]entities.OrderPhoto, error) {
	rows, err := r.storage.Query(ctx,
		"SELECT "+orderPhotoFields+" FROM order_photos WHERE order_id = $1 ORDER BY created_at DESC, id DESC", orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := make([]entities.OrderPhoto, 0)
	for rows.Next() {
		p, err := scanOrderPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, *p)
	}
	return photos, rows.Err()
}

func (r *OrderPhotoRepository) FindPhoto(ctx context.Context, orderID, photoID uint64) (*entities.OrderPhoto, error) {
	return scanOrderPhoto(r.storage.QueryRow(ctx,
		"SELECT "+orderPhotoFields+" FROM order_photos WHERE id = $1 AND order_id = $2", photoID, orderID))
}

func (r *OrderPhotoRepository) CreatePhoto(ctx context.Context, photo *entities.OrderPhoto) (*entities.OrderPhoto, error) {
	return scanOrderPhoto(r.storage.QueryRow(ctx,
		"INSERT INTO order_photos (order_id, file_path, uploaded_by) VALUES ($1, $2, $3) RETURNING "+orderPhotoFields,
		photo.OrderID, photo.FilePath, photo.UploadedBy))
}

func (r *OrderPhotoRepository) DeletePhoto(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx, "DELETE FROM order_photos WHERE id = $1", id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
