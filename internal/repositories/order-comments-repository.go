package repositories

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	apperrors "delivery-system/pkg/errors"
)

var commentSelectFields = []string{
	"oc.id", "oc.order_id", "oc.user_id", "oc.comment", "oc.is_completed", "oc.completed_at",
	"oc.created_at", "oc.updated_at",
	"u.name", "u.role",
	"o.order_number", "b.name",
}

// CommentWithAuthor - комментарий с ролью автора и данными заказа для ответа.
type CommentWithAuthor struct {
	entities.OrderComment
	AuthorRole  string
	OrderNumber *string
	BankName    *string
}

type OrderCommentRepositoryInterface interface {
	GetByOrder(ctx context.Context, orderID uint64) ([]CommentWithAuthor, error)
	GetByCourier(ctx context.Context, courierID uint64) ([]CommentWithAuthor, error)
	FindComment(ctx context.Context, id uint64) (*CommentWithAuthor, error)
	CreateComment(ctx context.Context, comment *entities.OrderComment) (uint64, error)
	UpdateComment(ctx context.Context, comment *entities.OrderComment) error
	DeleteComment(ctx context.Context, id uint64) error
}

type OrderCommentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewOrderCommentRepository(storage *pgxpool.Pool, logger *zap.Logger) OrderCommentRepositoryInterface {
	return &OrderCommentRepository{storage: storage, logger: logger}
}

func (r *OrderCommentRepository) selectBuilder() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(commentSelectFields...).
		From("order_comments AS oc").
		Join("users AS u ON u.id = oc.user_id").
		Join("orders AS o ON o.id = oc.order_id").
		LeftJoin("banks AS b ON b.id = o.bank_id")
}

func scanComment(row pgx.Row) (*CommentWithAuthor, error) {
	var c CommentWithAuthor
	var createdAt, updatedAt time.Time
	var authorName string

	err := row.Scan(
		&c.ID, &c.OrderID, &c.UserID, &c.Comment, &c.IsCompleted, &c.CompletedAt,
		&createdAt, &updatedAt,
		&authorName, &c.AuthorRole,
		&c.OrderNumber, &c.BankName,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	c.CreatedAt = &createdAt
	c.UpdatedAt = &updatedAt
	c.User = &entities.UserShort{ID: c.UserID, Name: authorName}
	return &c, nil
}

func (r *OrderCommentRepository) collect(ctx context.Context, builder sq.SelectBuilder) ([]CommentWithAuthor, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]CommentWithAuthor, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

func (r *OrderCommentRepository) GetByOrder(ctx context.Context, orderID uint64) ([]CommentWithAuthor, error) {
	return r.collect(ctx, r.selectBuilder().Where(sq.Eq{"oc.order_id": orderID}).OrderBy("oc.created_at DESC", "oc.id DESC"))
}

// GetByCourier - все комментарии к заказам курьера, новые первыми.
func (r *OrderCommentRepository) GetByCourier(ctx context.Context, courierID uint64) ([]CommentWithAuthor, error) {
	return r.collect(ctx, r.selectBuilder().Where(sq.Eq{"o.courier_id": courierID}).OrderBy("oc.created_at DESC", "oc.id DESC"))
}

func (r *OrderCommentRepository) FindComment(ctx context.Context, id uint64) (*CommentWithAuthor, error) {
	query, args, err := r.selectBuilder().Where(sq.Eq{"oc.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanComment(r.storage.QueryRow(ctx, query, args...))
}

func (r *OrderCommentRepository) CreateComment(ctx context.Context, comment *entities.OrderComment) (uint64, error) {
	var id uint64
	err := r.storage.QueryRow(ctx,
		"INSERT INTO order_comments (order_id, user_id, comment) VALUES ($1, $2, $3) RETURNING id",
		comment.OrderID, comment.UserID, comment.Comment,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return id, nil
}

func (r *OrderCommentRepository) UpdateComment(ctx context.Context, comment *entities.OrderComment) error {
	tag, err := r.storage.Exec(ctx,
		`UPDATE order_comments SET comment = $1, is_completed = $2, completed_at = $3, updated_at = NOW() WHERE id = $4`,
		comment.Comment, comment.IsCompleted, comment.CompletedAt, comment.ID,
	)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *OrderCommentRepository) DeleteComment(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx, "DELETE FROM order_comments WHERE id = $1", id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
