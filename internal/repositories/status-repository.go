package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	apperrors "delivery-system/pkg/errors"
)

const (
	statusTable  = "order_statuses"
	statusFields = "id, title, color, created_at, updated_at"
)

type OrderStatusRepositoryInterface interface {
	GetStatuses(ctx context.Context) ([]entities.OrderStatus, error)
	FindStatus(ctx context.Context, id uint64) (*entities.OrderStatus, error)
	CreateStatus(ctx context.Context, status *entities.OrderStatus) (*entities.OrderStatus, error)
	UpdateStatus(ctx context.Context, status *entities.OrderStatus) (*entities.OrderStatus, error)
	DeleteStatus(ctx context.Context, id uint64) error
}

type OrderStatusRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewOrderStatusRepository(storage *pgxpool.Pool, logger *zap.Logger) OrderStatusRepositoryInterface {
	return &OrderStatusRepository{storage: storage, logger: logger}
}

func scanStatus(row pgx.Row) (*entities.OrderStatus, error) {
	var s entities.OrderStatus
	var createdAt, updatedAt time.Time
	if err := row.Scan(&s.ID, &s.Title, &s.Color, &createdAt, &updatedAt); err != nil {
		return nil, mapPgError(err)
	}
	s.CreatedAt = &createdAt
	s.UpdatedAt = &updatedAt
	return &s, nil
}

// GetStatuses - справочник небольшой, отдаём целиком.
func (r *OrderStatusRepository) GetStatuses(ctx context.Context) ([]entities.OrderStatus, error) {
	rows, err := r.storage.Query(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY id", statusFields, statusTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make([]entities.OrderStatus, 0)
	for rows.Next() {
		s, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *s)
	}
	return statuses, rows.Err()
}

func (r *OrderStatusRepository) FindStatus(ctx context.Context, id uint64) (*entities.OrderStatus, error) {
	return scanStatus(r.storage.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", statusFields, statusTable), id))
}

func (r *OrderStatusRepository) CreateStatus(ctx context.Context, status *entities.OrderStatus) (*entities.OrderStatus, error) {
	query := fmt.Sprintf("INSERT INTO %s (title, color) VALUES ($1, $2) RETURNING %s", statusTable, statusFields)
	return scanStatus(r.storage.QueryRow(ctx, query, status.Title, status.Color))
}

func (r *OrderStatusRepository) UpdateStatus(ctx context.Context, status *entities.OrderStatus) (*entities.OrderStatus, error) {
	query := fmt.Sprintf("UPDATE %s SET title = $1, color = $2, updated_at = NOW() WHERE id = $3 RETURNING %s", statusTable, statusFields)
	return scanStatus(r.storage.QueryRow(ctx, query, status.Title, status.Color, status.ID))
}

func (r *OrderStatusRepository) DeleteStatus(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", statusTable), id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
