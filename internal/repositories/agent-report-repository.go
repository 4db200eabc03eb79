package repositories

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	db "delivery-system/internal/infrastructure/bd"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/types"
	"delivery-system/pkg/utils"
)

var agentReportSelectFields = []string{
	"r.id", "r.period_from", "r.period_to", "r.delivery_cost", "r.status", "r.excel_file_path",
	"r.created_by", "r.notes", "r.created_at", "r.updated_at", "u.name",
}

var agentReportMap = map[string]string{
	"id":         "r.id",
	"status":     "r.status",
	"created_at": "r.created_at",
}

type AgentReportRepositoryInterface interface {
	GetReports(ctx context.Context, filter types.Filter) ([]entities.AgentReport, uint64, error)
	FindReport(ctx context.Context, id uint64) (*entities.AgentReport, error)
	CreateReport(ctx context.Context, tx pgx.Tx, report *entities.AgentReport) (uint64, error)
	UpdateReport(ctx context.Context, tx pgx.Tx, report *entities.AgentReport) error
	DeleteReport(ctx context.Context, id uint64) error
	SetExcelPath(ctx context.Context, id uint64, path string) error

	GetBankIDs(ctx context.Context, tx pgx.Tx, reportID uint64) ([]uint64, error)
	ReplaceBanks(ctx context.Context, tx pgx.Tx, reportID uint64, bankIDs []uint64) error
	ReplaceOrders(ctx context.Context, tx pgx.Tx, reportID uint64, lines []entities.AgentReportOrder) error

	CountOrdersInBanks(ctx context.Context, tx pgx.Tx, orderIDs, bankIDs []uint64) (int, error)
	CompletedOrdersForPeriod(ctx context.Context, bankIDs []uint64, from, to time.Time) ([]entities.Order, error)
}

type AgentReportRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewAgentReportRepository(storage *pgxpool.Pool, logger *zap.Logger) AgentReportRepositoryInterface {
	return &AgentReportRepository{storage: storage, logger: logger}
}

func scanAgentReport(row pgx.Row) (*entities.AgentReport, error) {
	var r entities.AgentReport
	var creatorName *string
	err := row.Scan(
		&r.ID, &r.PeriodFrom, &r.PeriodTo, &r.DeliveryCost, &r.Status, &r.ExcelFilePath,
		&r.CreatedBy, &r.Notes, &r.CreatedAt, &r.UpdatedAt, &creatorName,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	if creatorName != nil {
		r.Creator = &entities.UserShort{ID: r.CreatedBy, Name: *creatorName}
	}
	r.Banks = []entities.BankShort{}
	return &r, nil
}

func applyAgentReportConditions(b sq.SelectBuilder, filter types.Filter) sq.SelectBuilder {
	if bankIDs := utils.ParseUint64List(filter.Get("bank_id")); len(bankIDs) > 0 {
		sub, subArgs, err := sq.Select("agent_report_id").From("agent_report_bank").Where(sq.Eq{"bank_id": bankIDs}).ToSql()
		if err == nil {
			b = b.Where("r.id IN ("+sub+")", subArgs...)
		}
	}
	if raw := filter.Get("date_from"); raw != "" {
		if from, err := time.ParseInLocation(utils.DateLayout, raw, time.Local); err == nil {
			b = b.Where(sq.GtOrEq{"r.created_at": utils.StartOfDay(from)})
		}
	}
	if raw := filter.Get("date_to"); raw != "" {
		if to, err := time.ParseInLocation(utils.DateLayout, raw, time.Local); err == nil {
			b = b.Where(sq.LtOrEq{"r.created_at": utils.EndOfDay(to)})
		}
	}
	if raw := filter.Get("period_from"); raw != "" {
		b = b.Where(sq.GtOrEq{"r.period_from": raw})
	}
	if raw := filter.Get("period_to"); raw != "" {
		b = b.Where(sq.LtOrEq{"r.period_to": raw})
	}
	return b
}

func (r *AgentReportRepository) GetReports(ctx context.Context, filter types.Filter) ([]entities.AgentReport, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := applyAgentReportConditions(psql.Select("COUNT(r.id)").From("agent_reports AS r"), filter)
	countBuilder = db.ApplyListParams(countBuilder, db.CountFilter(filter), agentReportMap)

	var total uint64
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.AgentReport{}, 0, nil
	}

	builder := psql.Select(agentReportSelectFields...).
		From("agent_reports AS r").
		LeftJoin("users AS u ON u.id = r.created_by")
	builder = db.ApplyListParams(applyAgentReportConditions(builder, filter), filter, agentReportMap)
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("r.created_at DESC", "r.id DESC")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reports := make([]entities.AgentReport, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		report, err := scanAgentReport(rows)
		if err != nil {
			return nil, 0, err
		}
		index[report.ID] = len(reports)
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	ids := make([]uint64, 0, len(reports))
	for _, rep := range reports {
		ids = append(ids, rep.ID)
	}
	banks, err := r.banksByReports(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for reportID, list := range banks {
		reports[index[reportID]].Banks = list
	}
	return reports, total, nil
}

func (r *AgentReportRepository) banksByReports(ctx context.Context, reportIDs []uint64) (map[uint64][]entities.BankShort, error) {
	result := make(map[uint64][]entities.BankShort)
	if len(reportIDs) == 0 {
		return result, nil
	}
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("arb.agent_report_id", "b.id", "b.name").
		From("agent_report_bank AS arb").
		Join("banks AS b ON b.id = arb.bank_id").
		Where(sq.Eq{"arb.agent_report_id": reportIDs}).
		OrderBy("b.name").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var reportID uint64
		var bank entities.BankShort
		if err := rows.Scan(&reportID, &bank.ID, &bank.Name); err != nil {
			return nil, err
		}
		result[reportID] = append(result[reportID], bank)
	}
	return result, rows.Err()
}

// FindReport загружает отчёт вместе с банками и строками заказов.
func (r *AgentReportRepository) FindReport(ctx context.Context, id uint64) (*entities.AgentReport, error) {
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(agentReportSelectFields...).
		From("agent_reports AS r").
		LeftJoin("users AS u ON u.id = r.created_by").
		Where(sq.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	report, err := scanAgentReport(r.storage.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}

	banks, err := r.banksByReports(ctx, []uint64{id})
	if err != nil {
		return nil, err
	}
	if list, ok := banks[id]; ok {
		report.Banks = list
	}

	lines, err := r.reportLines(ctx, id)
	if err != nil {
		return nil, err
	}
	report.Orders = lines
	return report, nil
}

func (r *AgentReportRepository) reportLines(ctx context.Context, reportID uint64) ([]entities.AgentReportOrder, error) {
	fields := append([]string{"aro.id", "aro.agent_report_id", "aro.order_id", "aro.delivery_cost"}, orderSelectFields...)
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(fields...).
		From("agent_report_orders AS aro").
		Join("orders AS o ON o.id = aro.order_id").
		LeftJoin("banks AS b ON b.id = o.bank_id").
		LeftJoin("users AS c ON c.id = o.courier_id").
		LeftJoin("order_statuses AS s ON s.id = o.order_status_id").
		Where(sq.Eq{"aro.agent_report_id": reportID}).
		OrderBy("o.delivery_at", "aro.id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]entities.AgentReportOrder, 0)
	for rows.Next() {
		var line entities.AgentReportOrder
		var o entities.Order
		var createdAt, updatedAt time.Time
		var bankName, courierName, statusTitle, statusColor *string
		err := rows.Scan(
			&line.ID, &line.AgentReportID, &line.OrderID, &line.DeliveryCost,
			&o.ID, &o.BankID, &o.OrderNumber, &o.Product, &o.Name, &o.Surname, &o.Patronymic,
			&o.Phone, &o.Address, &o.DeliveryAt, &o.DeliveredAt, &o.CourierID, &o.OrderStatusID,
			&o.Note, &o.DeclinedReason, &o.CourierNote, &createdAt, &updatedAt,
			&bankName, &courierName, &statusTitle, &statusColor,
		)
		if err != nil {
			return nil, err
		}
		o.CreatedAt = &createdAt
		o.UpdatedAt = &updatedAt
		if bankName != nil {
			o.Bank = &entities.BankShort{ID: o.BankID, Name: *bankName}
		}
		if o.CourierID != nil && courierName != nil {
			o.Courier = &entities.UserShort{ID: *o.CourierID, Name: *courierName}
		}
		if statusTitle != nil {
			o.Status = &entities.OrderStatus{ID: o.OrderStatusID, Title: *statusTitle, Color: statusColor}
		}
		line.Order = &o
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *AgentReportRepository) CreateReport(ctx context.Context, tx pgx.Tx, report *entities.AgentReport) (uint64, error) {
	var id uint64
	err := pick(r.storage, tx).QueryRow(ctx, `INSERT INTO agent_reports
		(period_from, period_to, delivery_cost, status, created_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		report.PeriodFrom, report.PeriodTo, report.DeliveryCost, report.Status, report.CreatedBy, report.Notes,
	).Scan(&id)
	if err != nil {
		r.logger.Error("ошибка создания акт-отчёта", zap.Error(err))
		return 0, mapPgError(err)
	}
	return id, nil
}

func (r *AgentReportRepository) UpdateReport(ctx context.Context, tx pgx.Tx, report *entities.AgentReport) error {
	tag, err := pick(r.storage, tx).Exec(ctx, `UPDATE agent_reports
		SET period_from = $1, period_to = $2, delivery_cost = $3, status = $4, notes = $5, updated_at = NOW()
		WHERE id = $6`,
		report.PeriodFrom, report.PeriodTo, report.DeliveryCost, report.Status, report.Notes, report.ID,
	)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *AgentReportRepository) DeleteReport(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx, "DELETE FROM agent_reports WHERE id = $1", id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *AgentReportRepository) SetExcelPath(ctx context.Context, id uint64, path string) error {
	_, err := r.storage.Exec(ctx, "UPDATE agent_reports SET excel_file_path = $1, updated_at = NOW() WHERE id = $2", path, id)
	return err
}

func (r *AgentReportRepository) GetBankIDs(ctx context.Context, tx pgx.Tx, reportID uint64) ([]uint64, error) {
	rows, err := pick(r.storage, tx).Query(ctx,
		"SELECT bank_id FROM agent_report_bank WHERE agent_report_id = $1 ORDER BY bank_id", reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *AgentReportRepository) ReplaceBanks(ctx context.Context, tx pgx.Tx, reportID uint64, bankIDs []uint64) error {
	if _, err := tx.Exec(ctx, "DELETE FROM agent_report_bank WHERE agent_report_id = $1", reportID); err != nil {
		return err
	}
	if len(bankIDs) == 0 {
		return nil
	}
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert("agent_report_bank").Columns("agent_report_id", "bank_id")
	for _, bankID := range bankIDs {
		builder = builder.Values(reportID, bankID)
	}
	query, args, err := builder.Suffix("ON CONFLICT (agent_report_id, bank_id) DO NOTHING").ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, query, args...)
	return mapPgError(err)
}

func (r *AgentReportRepository) ReplaceOrders(ctx context.Context, tx pgx.Tx, reportID uint64, lines []entities.AgentReportOrder) error {
	if _, err := tx.Exec(ctx, "DELETE FROM agent_report_orders WHERE agent_report_id = $1", reportID); err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert("agent_report_orders").Columns("agent_report_id", "order_id", "delivery_cost")
	for _, line := range lines {
		builder = builder.Values(reportID, line.OrderID, line.DeliveryCost)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, query, args...)
	return mapPgError(err)
}

// CountOrdersInBanks - сколько заказов из orderIDs принадлежат банкам bankIDs.
func (r *AgentReportRepository) CountOrdersInBanks(ctx context.Context, tx pgx.Tx, orderIDs, bankIDs []uint64) (int, error) {
	if len(orderIDs) == 0 || len(bankIDs) == 0 {
		return 0, nil
	}
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("COUNT(*)").From(orderTable).
		Where(sq.Eq{"id": orderIDs}).
		Where(sq.Eq{"bank_id": bankIDs}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	err = pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

// CompletedOrdersForPeriod - завершённые заказы банков с датой доставки в [from, to].
func (r *AgentReportRepository) CompletedOrdersForPeriod(ctx context.Context, bankIDs []uint64, from, to time.Time) ([]entities.Order, error) {
	if len(bankIDs) == 0 {
		return []entities.Order{}, nil
	}
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(orderSelectFields...).
		From("orders AS o").
		LeftJoin("banks AS b ON b.id = o.bank_id").
		LeftJoin("users AS c ON c.id = o.courier_id").
		LeftJoin("order_statuses AS s ON s.id = o.order_status_id").
		Where(sq.Eq{"o.bank_id": bankIDs}).
		Where(sq.Eq{"o.order_status_id": constants.OrderStatusCompleted}).
		Where(sq.GtOrEq{"o.delivery_at": from}).
		Where(sq.LtOrEq{"o.delivery_at": to}).
		OrderBy("o.delivery_at", "o.id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]entities.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}
