package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	db "delivery-system/internal/infrastructure/bd"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/types"
)

const userTable = "users"

var userSelectFields = []string{
	"u.id", "u.name", "u.email", "u.password", "u.phone", "u.role", "u.bank_id", "u.is_active", "u.note",
	"u.bank_access_key_hash", "u.bank_key_expires_at", "u.onesignal_player_id",
	"u.created_at", "u.updated_at",
	"b.name",
}

var userMap = map[string]string{
	"id":         "u.id",
	"name":       "u.name",
	"email":      "u.email",
	"role":       "u.role",
	"bank_id":    "u.bank_id",
	"is_active":  "u.is_active",
	"created_at": "u.created_at",
}

type UserRepositoryInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)
	FindUser(ctx context.Context, id uint64) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]entities.User, error)
	FindRecipients(ctx context.Context, roles []string, bankID *uint64) ([]entities.User, error)
	CreateUser(ctx context.Context, user *entities.User) (*entities.User, error)
	UpdateUser(ctx context.Context, user *entities.User) (*entities.User, error)
	UpdateUserFields(ctx context.Context, id uint64, fields map[string]interface{}) error
	DeleteUser(ctx context.Context, tx pgx.Tx, id uint64) error
	LockRole(ctx context.Context, tx pgx.Tx, role string) (uint64, error)
	SetBankAccessKey(ctx context.Context, id uint64, keyHash string, expiresAt time.Time) error
	SetPushToken(ctx context.Context, id uint64, playerID string) error
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func (r *UserRepository) selectBuilder() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(userSelectFields...).
		From("users AS u").
		LeftJoin("banks AS b ON b.id = u.bank_id")
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	var createdAt, updatedAt time.Time
	var bankName *string

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &u.Phone, &u.Role, &u.BankID, &u.IsActive, &u.Note,
		&u.BankAccessKeyHash, &u.BankKeyExpiresAt, &u.OneSignalPlayerID,
		&createdAt, &updatedAt,
		&bankName,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	u.CreatedAt = &createdAt
	u.UpdatedAt = &updatedAt
	if u.BankID != nil && bankName != nil {
		u.Bank = &entities.BankShort{ID: *u.BankID, Name: *bankName}
	}
	return &u, nil
}

func (r *UserRepository) collect(ctx context.Context, builder sq.SelectBuilder) ([]entities.User, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			return b.Where(sq.Or{
				sq.ILike{"u.name": pat},
				sq.ILike{"u.email": pat},
				sq.ILike{"u.phone": pat},
			})
		}
		return b
	}

	countBuilder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Select("COUNT(u.id)").From("users AS u")
	countBuilder = db.ApplyListParams(applySearch(countBuilder), db.CountFilter(filter), userMap)

	var total uint64
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.User{}, 0, nil
	}

	builder := db.ApplyListParams(applySearch(r.selectBuilder()), filter, userMap)
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("u.id DESC")
	}

	users, err := r.collect(ctx, builder)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	query, args, err := r.selectBuilder().Where(sq.Eq{"u.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanUser(r.storage.QueryRow(ctx, query, args...))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	query, args, err := r.selectBuilder().Where("LOWER(u.email) = LOWER(?)", email).ToSql()
	if err != nil {
		return nil, err
	}
	return scanUser(r.storage.QueryRow(ctx, query, args...))
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []uint64) ([]entities.User, error) {
	if len(ids) == 0 {
		return []entities.User{}, nil
	}
	return r.collect(ctx, r.selectBuilder().Where(sq.Eq{"u.id": ids}))
}

// FindRecipients - активные пользователи с одной из ролей; для роли bank только сотрудники bankID.
func (r *UserRepository) FindRecipients(ctx context.Context, roles []string, bankID *uint64) ([]entities.User, error) {
	cond := sq.Or{}
	for _, role := range roles {
		if role == "bank" {
			if bankID != nil {
				cond = append(cond, sq.Eq{"u.role": role, "u.bank_id": *bankID})
			}
			continue
		}
		cond = append(cond, sq.Eq{"u.role": role})
	}
	if len(cond) == 0 {
		return []entities.User{}, nil
	}
	return r.collect(ctx, r.selectBuilder().Where(sq.Eq{"u.is_active": true}).Where(cond).OrderBy("u.id"))
}

func (r *UserRepository) CreateUser(ctx context.Context, user *entities.User) (*entities.User, error) {
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert(userTable).
		Columns("name", "email", "password", "phone", "role", "bank_id", "is_active", "note").
		Values(user.Name, user.Email, user.Password, user.Phone, user.Role, user.BankID, user.IsActive, user.Note).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var id uint64
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		r.logger.Error("ошибка создания пользователя", zap.String("email", user.Email), zap.Error(err))
		return nil, mapPgError(err)
	}
	return r.FindUser(ctx, id)
}

// UpdateUser перезаписывает редактируемые поля; пароль меняется, только если Password не пустой.
func (r *UserRepository) UpdateUser(ctx context.Context, user *entities.User) (*entities.User, error) {
	fields := map[string]interface{}{
		"name":      user.Name,
		"email":     user.Email,
		"phone":     user.Phone,
		"role":      user.Role,
		"bank_id":   user.BankID,
		"is_active": user.IsActive,
		"note":      user.Note,
	}
	if user.Password != "" {
		fields["password"] = user.Password
	}
	if err := r.UpdateUserFields(ctx, user.ID, fields); err != nil {
		return nil, err
	}
	return r.FindUser(ctx, user.ID)
}

func (r *UserRepository) UpdateUserFields(ctx context.Context, id uint64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Update(userTable).
		SetMap(fields).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, tx pgx.Tx, id uint64) error {
	tag, err := pick(r.storage, tx).Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", userTable), id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// LockRole блокирует строки пользователей роли до конца транзакции и возвращает их число.
func (r *UserRepository) LockRole(ctx context.Context, tx pgx.Tx, role string) (uint64, error) {
	rows, err := pick(r.storage, tx).Query(ctx, fmt.Sprintf("SELECT id FROM %s WHERE role = $1 FOR UPDATE", userTable), role)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var count uint64
	for rows.Next() {
		count++
	}
	return count, rows.Err()
}

func (r *UserRepository) SetBankAccessKey(ctx context.Context, id uint64, keyHash string, expiresAt time.Time) error {
	return r.UpdateUserFields(ctx, id, map[string]interface{}{
		"bank_access_key_hash": keyHash,
		"bank_key_expires_at":  expiresAt,
	})
}

func (r *UserRepository) SetPushToken(ctx context.Context, id uint64, playerID string) error {
	return r.UpdateUserFields(ctx, id, map[string]interface{}{"onesignal_player_id": playerID})
}
