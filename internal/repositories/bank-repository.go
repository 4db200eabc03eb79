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

const (
	bankTable  = "banks"
	bankFields = "id, name, phone, email, order_prefix, created_at, updated_at"
)

var bankMap = map[string]string{
	"id":         "id",
	"name":       "name",
	"created_at": "created_at",
}

type BankRepositoryInterface interface {
	GetBanks(ctx context.Context, filter types.Filter) ([]entities.Bank, uint64, error)
	FindBank(ctx context.Context, id uint64) (*entities.Bank, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]entities.Bank, error)
	CreateBank(ctx context.Context, bank *entities.Bank) (*entities.Bank, error)
	UpdateBank(ctx context.Context, bank *entities.Bank) (*entities.Bank, error)
	DeleteBank(ctx context.Context, id uint64) error
}

type BankRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewBankRepository(storage *pgxpool.Pool, logger *zap.Logger) BankRepositoryInterface {
	return &BankRepository{storage: storage, logger: logger}
}

func scanBank(row pgx.Row) (*entities.Bank, error) {
	var b entities.Bank
	var createdAt, updatedAt time.Time
	if err := row.Scan(&b.ID, &b.Name, &b.Phone, &b.Email, &b.OrderPrefix, &createdAt, &updatedAt); err != nil {
		return nil, mapPgError(err)
	}
	b.CreatedAt = &createdAt
	b.UpdatedAt = &updatedAt
	return &b, nil
}

func (r *BankRepository) GetBanks(ctx context.Context, filter types.Filter) ([]entities.Bank, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			return b.Where(sq.Or{sq.ILike{"name": pat}, sq.ILike{"email": pat}, sq.ILike{"phone": pat}})
		}
		return b
	}

	countBuilder := db.ApplyListParams(applySearch(psql.Select("COUNT(id)").From(bankTable)), db.CountFilter(filter), bankMap)
	var total uint64
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Bank{}, 0, nil
	}

	builder := db.ApplyListParams(applySearch(psql.Select(bankFields).From(bankTable)), filter, bankMap)
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("id ASC")
	}
	banks, err := r.collect(ctx, builder)
	if err != nil {
		return nil, 0, err
	}
	return banks, total, nil
}

func (r *BankRepository) collect(ctx context.Context, builder sq.SelectBuilder) ([]entities.Bank, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	banks := make([]entities.Bank, 0)
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, err
		}
		banks = append(banks, *b)
	}
	return banks, rows.Err()
}

func (r *BankRepository) FindBank(ctx context.Context, id uint64) (*entities.Bank, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", bankFields, bankTable)
	return scanBank(r.storage.QueryRow(ctx, query, id))
}

func (r *BankRepository) FindByIDs(ctx context.Context, ids []uint64) ([]entities.Bank, error) {
	if len(ids) == 0 {
		return []entities.Bank{}, nil
	}
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(bankFields).From(bankTable).Where(sq.Eq{"id": ids}).OrderBy("id")
	return r.collect(ctx, builder)
}

func (r *BankRepository) CreateBank(ctx context.Context, bank *entities.Bank) (*entities.Bank, error) {
	query := fmt.Sprintf("INSERT INTO %s (name, phone, email, order_prefix) VALUES ($1, $2, $3, $4) RETURNING %s", bankTable, bankFields)
	return scanBank(r.storage.QueryRow(ctx, query, bank.Name, bank.Phone, bank.Email, bank.OrderPrefix))
}

func (r *BankRepository) UpdateBank(ctx context.Context, bank *entities.Bank) (*entities.Bank, error) {
	query := fmt.Sprintf(`UPDATE %s SET name = $1, phone = $2, email = $3, order_prefix = $4, updated_at = NOW()
		WHERE id = $5 RETURNING %s`, bankTable, bankFields)
	return scanBank(r.storage.QueryRow(ctx, query, bank.Name, bank.Phone, bank.Email, bank.OrderPrefix, bank.ID))
}

func (r *BankRepository) DeleteBank(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", bankTable), id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
