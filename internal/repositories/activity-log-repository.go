package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
)

var activityLogSelectFields = []string{
	"a.id", "a.log_name", "a.description", "a.subject_type", "a.subject_id", "a.event",
	"a.causer_id", "a.properties", "a.created_at", "u.name",
}

// таблицы субъектов журнала: по ним ищутся осиротевшие записи
var activitySubjectTables = map[string]string{
	constants.LogNameOrder:       "orders",
	constants.LogNameBank:        "banks",
	constants.LogNameOrderStatus: "order_statuses",
	constants.LogNameUser:        "users",
}

type ActivityLogRepositoryInterface interface {
	CreateEntry(ctx context.Context, tx pgx.Tx, entry *entities.ActivityLog) error
	GetBySubject(ctx context.Context, logName string, subjectID uint64) ([]entities.ActivityLog, error)
	GetBySubjects(ctx context.Context, logName string, subjectIDs []uint64) ([]entities.ActivityLog, error)
	FindOrphaned(ctx context.Context, logName string) ([]entities.ActivityLog, error)
	DeleteByIDs(ctx context.Context, ids []uint64) (int64, error)
}

type ActivityLogRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewActivityLogRepository(storage *pgxpool.Pool, logger *zap.Logger) ActivityLogRepositoryInterface {
	return &ActivityLogRepository{storage: storage, logger: logger}
}

func (r *ActivityLogRepository) selectBuilder() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(activityLogSelectFields...).
		From("activity_log AS a").
		LeftJoin("users AS u ON u.id = a.causer_id")
}

func (r *ActivityLogRepository) collect(ctx context.Context, builder sq.SelectBuilder) ([]entities.ActivityLog, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]entities.ActivityLog, 0)
	for rows.Next() {
		var l entities.ActivityLog
		err := rows.Scan(
			&l.ID, &l.LogName, &l.Description, &l.SubjectType, &l.SubjectID, &l.Event,
			&l.CauserID, &l.Properties, &l.CreatedAt, &l.CauserName,
		)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *ActivityLogRepository) CreateEntry(ctx context.Context, tx pgx.Tx, entry *entities.ActivityLog) error {
	properties := entry.Properties
	if len(properties) == 0 {
		properties = []byte("{}")
	}
	_, err := pick(r.storage, tx).Exec(ctx, `INSERT INTO activity_log
		(log_name, description, subject_type, subject_id, event, causer_id, properties)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.LogName, entry.Description, entry.SubjectType, entry.SubjectID, entry.Event, entry.CauserID, string(properties),
	)
	return mapPgError(err)
}

// GetBySubject - история одной записи, новые первыми.
func (r *ActivityLogRepository) GetBySubject(ctx context.Context, logName string, subjectID uint64) ([]entities.ActivityLog, error) {
	return r.collect(ctx, r.selectBuilder().
		Where(sq.Eq{"a.log_name": logName, "a.subject_id": subjectID}).
		OrderBy("a.created_at DESC", "a.id DESC"))
}

func (r *ActivityLogRepository) GetBySubjects(ctx context.Context, logName string, subjectIDs []uint64) ([]entities.ActivityLog, error) {
	if len(subjectIDs) == 0 {
		return []entities.ActivityLog{}, nil
	}
	return r.collect(ctx, r.selectBuilder().
		Where(sq.Eq{"a.log_name": logName, "a.subject_id": subjectIDs}).
		OrderBy("a.created_at DESC", "a.id DESC"))
}

// FindOrphaned - записи журнала, чей субъект уже удалён.
func (r *ActivityLogRepository) FindOrphaned(ctx context.Context, logName string) ([]entities.ActivityLog, error) {
	table, ok := activitySubjectTables[logName]
	if !ok {
		return nil, fmt.Errorf("неизвестный журнал: %s", logName)
	}
	return r.collect(ctx, r.selectBuilder().
		Where(sq.Eq{"a.log_name": logName}).
		Where(sq.NotEq{"a.subject_id": nil}).
		Where(fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s s WHERE s.id = a.subject_id)", table)).
		OrderBy("a.id"))
}

func (r *ActivityLogRepository) DeleteByIDs(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Delete("activity_log").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
