package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	db "delivery-system/internal/infrastructure/bd"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/types"
	"delivery-system/pkg/utils"
)

const (
	orderTable = "orders"
	// поиск включается с этой длины строки
	orderSearchMinLength = 3
)

var orderSelectFields = []string{
	"o.id", "o.bank_id", "o.order_number", "o.product", "o.name", "o.surname", "o.patronymic",
	"o.phone", "o.address", "o.delivery_at", "o.delivered_at", "o.courier_id", "o.order_status_id",
	"o.note", "o.declined_reason", "o.courier_note", "o.created_at", "o.updated_at",
	"b.name", "c.name", "s.title", "s.color",
}

// колонки, доступные для фильтра через ApplyListParams и сортировки
var orderMap = map[string]string{
	"id":              "o.id",
	"bank_id":         "o.bank_id",
	"order_status_id": "o.order_status_id",
	"delivery_at":     "o.delivery_at",
	"delivered_at":    "o.delivered_at",
	"created_at":      "o.created_at",
	"order_number":    "o.order_number",
}

// колонки, которые можно менять через UpdateOrderFields
var orderWritableColumns = map[string]bool{
	"bank_id": true, "order_number": true, "product": true, "name": true, "surname": true,
	"patronymic": true, "phone": true, "address": true, "delivery_at": true, "delivered_at": true,
	"courier_id": true, "order_status_id": true, "note": true, "declined_reason": true, "courier_note": true,
}

// OrderScope ограничивает выборку заказами банка или курьера.
type OrderScope struct {
	BankID    *uint64
	CourierID *uint64
}

type OrderRepositoryInterface interface {
	GetOrders(ctx context.Context, filter types.Filter, scope OrderScope) ([]entities.Order, uint64, error)
	FindOrder(ctx context.Context, id uint64) (*entities.Order, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]entities.Order, error)
	CreateOrder(ctx context.Context, tx pgx.Tx, order *entities.Order) (uint64, error)
	UpdateOrderFields(ctx context.Context, tx pgx.Tx, ids []uint64, fields map[string]interface{}) (int64, error)
	DeleteOrders(ctx context.Context, tx pgx.Tx, ids []uint64) (int64, error)

	LockBankNumbering(ctx context.Context, tx pgx.Tx, bankID uint64) error
	CountNumberedByBank(ctx context.Context, tx pgx.Tx, bankID uint64) (int, error)
	OrderNumberExists(ctx context.Context, tx pgx.Tx, number string) (bool, error)
	FindUnnumbered(ctx context.Context) ([]entities.Order, error)
}

type OrderRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewOrderRepository(storage *pgxpool.Pool, logger *zap.Logger) OrderRepositoryInterface {
	return &OrderRepository{storage: storage, logger: logger}
}

func (r *OrderRepository) selectBuilder() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(orderSelectFields...).
		From("orders AS o").
		LeftJoin("banks AS b ON b.id = o.bank_id").
		LeftJoin("users AS c ON c.id = o.courier_id").
		LeftJoin("order_statuses AS s ON s.id = o.order_status_id")
}

func scanOrder(row pgx.Row) (*entities.Order, error) {
	var o entities.Order
	var createdAt, updatedAt time.Time
	var bankName, courierName, statusTitle, statusColor *string

	err := row.Scan(
		&o.ID, &o.BankID, &o.OrderNumber, &o.Product, &o.Name, &o.Surname, &o.Patronymic,
		&o.Phone, &o.Address, &o.DeliveryAt, &o.DeliveredAt, &o.CourierID, &o.OrderStatusID,
		&o.Note, &o.DeclinedReason, &o.CourierNote, &createdAt, &updatedAt,
		&bankName, &courierName, &statusTitle, &statusColor,
	)
	if err != nil {
		return nil, mapPgError(err)
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
	return &o, nil
}

func (r *OrderRepository) collect(ctx context.Context, builder sq.SelectBuilder) ([]entities.Order, error) {
	query, args, err := builder.ToSql()
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

// applyOrderConditions - область видимости, поиск и фильтры, которые не выражаются через orderMap.
func applyOrderConditions(b sq.SelectBuilder, filter types.Filter, scope OrderScope, now time.Time) sq.SelectBuilder {
	if scope.BankID != nil {
		b = b.Where(sq.Eq{"o.bank_id": *scope.BankID})
	}
	if scope.CourierID != nil {
		b = b.Where(sq.Eq{"o.courier_id": *scope.CourierID})
	}

	if search := strings.TrimSpace(filter.Search); len([]rune(search)) >= orderSearchMinLength {
		b = b.Where(orderSearchCondition(search))
	}

	switch courier := filter.Get("courier_id"); courier {
	case "":
	case "none":
		b = b.Where(sq.Eq{"o.courier_id": nil})
	default:
		b = b.Where(sq.Eq{"o.courier_id": utils.ParseUint64List(courier)})
	}

	if from, to, ok := deliveryWindow(filter.Get("delivery_at"), now); ok {
		b = b.Where(sq.GtOrEq{"o.delivery_at": from}).Where(sq.LtOrEq{"o.delivery_at": to})
	}

	if raw := filter.Get("date_from"); raw != "" {
		if from, err := time.ParseInLocation(utils.DateLayout, raw, time.Local); err == nil {
			b = b.Where(sq.GtOrEq{"o.delivery_at": utils.StartOfDay(from)})
		}
	}
	if raw := filter.Get("date_to"); raw != "" {
		if to, err := time.ParseInLocation(utils.DateLayout, raw, time.Local); err == nil {
			b = b.Where(sq.LtOrEq{"o.delivery_at": utils.EndOfDay(to)})
		}
	}
	return b
}

// orderSearchCondition - числовая строка ищется по id точным совпадением, текст по ILIKE.
func orderSearchCondition(search string) sq.Or {
	pat := "%" + search + "%"
	cond := sq.Or{
		sq.ILike{"o.order_number": pat},
		sq.ILike{"o.name": pat},
		sq.ILike{"o.surname": pat},
		sq.ILike{"o.phone": pat},
	}
	if id, err := strconv.ParseUint(search, 10, 64); err == nil {
		cond = append(sq.Or{sq.Eq{"o.id": id}}, cond...)
	}
	return cond
}

// deliveryWindow переводит значение фильтра delivery_at в границы периода.
func deliveryWindow(value string, now time.Time) (time.Time, time.Time, bool) {
	switch value {
	case "":
		return time.Time{}, time.Time{}, false
	case "today":
		return utils.StartOfDay(now), utils.EndOfDay(now), true
	case "yesterday":
		y := now.AddDate(0, 0, -1)
		return utils.StartOfDay(y), utils.EndOfDay(y), true
	case "this_week":
		start := utils.StartOfWeek(now)
		return start, utils.EndOfDay(start.AddDate(0, 0, 6)), true
	case "this_month":
		start := utils.StartOfMonth(now)
		return start, utils.EndOfDay(start.AddDate(0, 1, -1)), true
	}
	day, err := time.ParseInLocation(utils.DateLayout, value, now.Location())
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return utils.StartOfDay(day), utils.EndOfDay(day), true
}

// orderListMap - orderMap без полей, которые обрабатываются вручную.
func orderListMap() map[string]string {
	m := make(map[string]string, len(orderMap))
	for k, v := range orderMap {
		if k == "delivery_at" {
			continue
		}
		m[k] = v
	}
	return m
}

func (r *OrderRepository) GetOrders(ctx context.Context, filter types.Filter, scope OrderScope) ([]entities.Order, uint64, error) {
	now := time.Now()
	listMap := orderListMap()

	countBuilder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Select("COUNT(o.id)").From("orders AS o")
	countBuilder = applyOrderConditions(countBuilder, filter, scope, now)
	countBuilder = db.ApplyListParams(countBuilder, db.CountFilter(filter), listMap)

	var total uint64
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Order{}, 0, nil
	}

	sortFilter := filter
	if len(filter.Sort) == 0 {
		sortFilter.Sort = map[string]string{"id": "desc"}
	}
	builder := applyOrderConditions(r.selectBuilder(), filter, scope, now)
	builder = db.ApplyListParams(builder, sortFilter, listMap)
	if _, ok := filter.Sort["delivery_at"]; ok {
		builder = builder.OrderBy("o.delivery_at " + strings.ToUpper(filter.Sort["delivery_at"]))
	}

	orders, err := r.collect(ctx, builder)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *OrderRepository) FindOrder(ctx context.Context, id uint64) (*entities.Order, error) {
	query, args, err := r.selectBuilder().Where(sq.Eq{"o.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanOrder(r.storage.QueryRow(ctx, query, args...))
}

func (r *OrderRepository) FindByIDs(ctx context.Context, ids []uint64) ([]entities.Order, error) {
	if len(ids) == 0 {
		return []entities.Order{}, nil
	}
	return r.collect(ctx, r.selectBuilder().Where(sq.Eq{"o.id": ids}).OrderBy("o.id"))
}

func (r *OrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *entities.Order) (uint64, error) {
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert(orderTable).
		Columns("bank_id", "order_number", "product", "name", "surname", "patronymic", "phone", "address",
			"delivery_at", "delivered_at", "courier_id", "order_status_id", "note", "declined_reason").
		Values(order.BankID, order.OrderNumber, order.Product, order.Name, order.Surname, order.Patronymic,
			order.Phone, order.Address, order.DeliveryAt, order.DeliveredAt, order.CourierID, order.OrderStatusID,
			order.Note, order.DeclinedReason).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, err
	}

	var id uint64
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		r.logger.Error("ошибка создания заказа", zap.Uint64("bank_id", order.BankID), zap.Error(err))
		return 0, mapPgError(err)
	}
	return id, nil
}

// UpdateOrderFields применяет fields ко всем заказам из ids и возвращает число изменённых строк.
func (r *OrderRepository) UpdateOrderFields(ctx context.Context, tx pgx.Tx, ids []uint64, fields map[string]interface{}) (int64, error) {
	if len(ids) == 0 || len(fields) == 0 {
		return 0, nil
	}
	for column := range fields {
		if !orderWritableColumns[column] {
			return 0, fmt.Errorf("колонка %s не может быть изменена", column)
		}
	}

	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Update(orderTable).
		SetMap(fields).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := pick(r.storage, tx).Exec(ctx, query, args...)
	if err != nil {
		return 0, mapPgError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *OrderRepository) DeleteOrders(ctx context.Context, tx pgx.Tx, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Delete(orderTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := pick(r.storage, tx).Exec(ctx, query, args...)
	if err != nil {
		return 0, mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return 0, apperrors.ErrNotFound
	}
	return tag.RowsAffected(), nil
}

// LockBankNumbering сериализует выдачу номеров одного банка до конца транзакции.
func (r *OrderRepository) LockBankNumbering(ctx context.Context, tx pgx.Tx, bankID uint64) error {
	_, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", int64(bankID))
	return err
}

func (r *OrderRepository) CountNumberedByBank(ctx context.Context, tx pgx.Tx, bankID uint64) (int, error) {
	var count int
	err := pick(r.storage, tx).QueryRow(ctx,
		"SELECT COUNT(*) FROM orders WHERE bank_id = $1 AND order_number IS NOT NULL", bankID).Scan(&count)
	return count, err
}

func (r *OrderRepository) OrderNumberExists(ctx context.Context, tx pgx.Tx, number string) (bool, error) {
	var exists bool
	err := pick(r.storage, tx).QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM orders WHERE order_number = $1)", number).Scan(&exists)
	return exists, err
}

// FindUnnumbered - заказы без номера, сгруппированные по банку.
func (r *OrderRepository) FindUnnumbered(ctx context.Context) ([]entities.Order, error) {
	builder := r.selectBuilder().Where(sq.Eq{"o.order_number": nil}).OrderBy("o.bank_id", "o.id")
	return r.collect(ctx, builder)
}
