package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"delivery-system/pkg/constants"
	"delivery-system/pkg/types"
)

// StatsScope сужает статистику до банка и/или курьера.
type StatsScope struct {
	BankID    *uint64
	CourierID *uint64
}

// TimeWindow - ограничение по одной из дат заказа.
type TimeWindow struct {
	Column string
	From   time.Time
	To     time.Time
}

// CourierMonthlyRow - количество завершённых заказов курьера за месяц.
type CourierMonthlyRow struct {
	CourierID   uint64
	CourierName string
	Month       string
	Count       int64
}

var statsWindowColumns = map[string]string{
	"created_at":   "o.created_at",
	"delivered_at": "o.delivered_at",
	"delivery_at":  "o.delivery_at",
}

type StatisticsRepositoryInterface interface {
	MonthlyCompleted(ctx context.Context, scope StatsScope, window *TimeWindow, since time.Time) ([]types.MonthlyCount, error)
	MonthlyCompletedByCourier(ctx context.Context, scope StatsScope, window *TimeWindow, since time.Time) ([]CourierMonthlyRow, error)
	AllTimeCounts(ctx context.Context, scope StatsScope) (types.AllTimeCounts, error)
	PeriodCounts(ctx context.Context, scope StatsScope, window *TimeWindow) (types.PeriodCounts, error)
	CountCouriers(ctx context.Context) (int64, error)
	CountBanks(ctx context.Context) (int64, error)
}

type StatisticsRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewStatisticsRepository(storage *pgxpool.Pool, logger *zap.Logger) StatisticsRepositoryInterface {
	return &StatisticsRepository{storage: storage, logger: logger}
}

func applyStatsScope(b sq.SelectBuilder, scope StatsScope) sq.SelectBuilder {
	if scope.BankID != nil {
		b = b.Where(sq.Eq{"o.bank_id": *scope.BankID})
	}
	if scope.CourierID != nil {
		b = b.Where(sq.Eq{"o.courier_id": *scope.CourierID})
	}
	return b
}

func applyStatsWindow(b sq.SelectBuilder, window *TimeWindow) (sq.SelectBuilder, error) {
	if window == nil {
		return b, nil
	}
	column, ok := statsWindowColumns[window.Column]
	if !ok {
		return b, fmt.Errorf("недопустимая колонка периода: %s", window.Column)
	}
	return b.Where(sq.GtOrEq{column: window.From}).Where(sq.LtOrEq{column: window.To}), nil
}

func (r *StatisticsRepository) MonthlyCompleted(ctx context.Context, scope StatsScope, window *TimeWindow, since time.Time) ([]types.MonthlyCount, error) {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("to_char(o.created_at, 'YYYY-MM') AS month", "COUNT(*) AS count").
		From("orders AS o").
		Where(sq.Eq{"o.order_status_id": constants.OrderStatusCompleted}).
		Where(sq.GtOrEq{"o.created_at": since}).
		GroupBy("month").
		OrderBy("month")
	builder = applyStatsScope(builder, scope)
	builder, err := applyStatsWindow(builder, window)
	if err != nil {
		return nil, err
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]types.MonthlyCount, 0)
	for rows.Next() {
		var m types.MonthlyCount
		if err := rows.Scan(&m.Month, &m.Count); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *StatisticsRepository) MonthlyCompletedByCourier(ctx context.Context, scope StatsScope, window *TimeWindow, since time.Time) ([]CourierMonthlyRow, error) {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("u.id", "u.name", "to_char(o.created_at, 'YYYY-MM') AS month", "COUNT(*) AS count").
		From("orders AS o").
		Join("users AS u ON u.id = o.courier_id").
		Where(sq.Eq{"o.order_status_id": constants.OrderStatusCompleted}).
		Where(sq.Eq{"u.role": constants.RoleCourier}).
		Where(sq.GtOrEq{"o.created_at": since}).
		GroupBy("u.id", "u.name", "month").
		OrderBy("u.name", "u.id", "month")
	builder = applyStatsScope(builder, scope)
	builder, err := applyStatsWindow(builder, window)
	if err != nil {
		return nil, err
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]CourierMonthlyRow, 0)
	for rows.Next() {
		var row CourierMonthlyRow
		if err := rows.Scan(&row.CourierID, &row.CourierName, &row.Month, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// statusCountColumns - количество заказов в целом и по каждому статусу одним запросом.
func statusCountColumns() []string {
	return []string{
		"COUNT(*)",
		fmt.Sprintf("COUNT(*) FILTER (WHERE o.order_status_id = %d)", constants.OrderStatusNew),
		fmt.Sprintf("COUNT(*) FILTER (WHERE o.order_status_id = %d)", constants.OrderStatusInWork),
		fmt.Sprintf("COUNT(*) FILTER (WHERE o.order_status_id = %d)", constants.OrderStatusPendingVerification),
		fmt.Sprintf("COUNT(*) FILTER (WHERE o.order_status_id = %d)", constants.OrderStatusCompleted),
		fmt.Sprintf("COUNT(*) FILTER (WHERE o.order_status_id = %d)", constants.OrderStatusPostponed),
		fmt.Sprintf("COUNT(*) FILTER (WHERE o.order_status_id = %d)", constants.OrderStatusCancelled),
	}
}

func (r *StatisticsRepository) countByStatus(ctx context.Context, scope StatsScope, window *TimeWindow) (types.PeriodCounts, error) {
	var c types.PeriodCounts
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Select(statusCountColumns()...).From("orders AS o")
	builder = applyStatsScope(builder, scope)
	builder, err := applyStatsWindow(builder, window)
	if err != nil {
		return c, err
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return c, err
	}
	err = r.storage.QueryRow(ctx, query, args...).Scan(
		&c.Total, &c.New, &c.InWork, &c.PendingVerification, &c.Completed, &c.Postponed, &c.Cancelled,
	)
	return c, err
}

func (r *StatisticsRepository) AllTimeCounts(ctx context.Context, scope StatsScope) (types.AllTimeCounts, error) {
	c, err := r.countByStatus(ctx, scope, nil)
	if err != nil {
		return types.AllTimeCounts{}, err
	}
	return types.AllTimeCounts{
		Total:     c.Total,
		Completed: c.Completed,
		Pending:   c.New + c.InWork + c.PendingVerification,
		Cancelled: c.Cancelled,
		Postponed: c.Postponed,
	}, nil
}

func (r *StatisticsRepository) PeriodCounts(ctx context.Context, scope StatsScope, window *TimeWindow) (types.PeriodCounts, error) {
	return r.countByStatus(ctx, scope, window)
}

func (r *StatisticsRepository) CountCouriers(ctx context.Context) (int64, error) {
	var count int64
	err := r.storage.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE role = $1", constants.RoleCourier).Scan(&count)
	return count, err
}

func (r *StatisticsRepository) CountBanks(ctx context.Context) (int64, error) {
	var count int64
	err := r.storage.QueryRow(ctx, "SELECT COUNT(*) FROM banks").Scan(&count)
	return count, err
}
