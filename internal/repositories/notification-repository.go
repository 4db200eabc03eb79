package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	"delivery-system/pkg/types"
)

type NotificationRepositoryInterface interface {
	CreateNotification(ctx context.Context, n *entities.Notification) error
	GetByUser(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Notification, uint64, error)
}

type NotificationRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewNotificationRepository(storage *pgxpool.Pool, logger *zap.Logger) NotificationRepositoryInterface {
	return &NotificationRepository{storage: storage, logger: logger}
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, n *entities.Notification) error {
	data := n.Data
	if len(data) == 0 {
		data = []byte("{}")
	}
	return r.storage.QueryRow(ctx,
		"INSERT INTO notifications (user_id, title, body, data) VALUES ($1, $2, $3, $4) RETURNING id, created_at",
		n.UserID, n.Title, n.Body, string(data),
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *NotificationRepository) GetByUser(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Notification, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE user_id = $1", userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Notification{}, 0, nil
	}

	limit := filter.Limit
	if !filter.WithPagination || limit <= 0 {
		limit = int(total)
	}
	rows, err := r.storage.Query(ctx, `SELECT id, user_id, title, body, data, is_read, created_at
		FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		userID, limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]entities.Notification, 0)
	for rows.Next() {
		var n entities.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Data, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, n)
	}
	return list, total, rows.Err()
}
