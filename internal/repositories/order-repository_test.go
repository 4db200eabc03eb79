package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/types"
	"delivery-system/pkg/utils"
)

func newTestOrder(bankID uint64, surname string, deliveryAt time.Time) *entities.Order {
	return &entities.Order{
		BankID:        bankID,
		Product:       "Кредитная карта",
		Name:          "Иван",
		Surname:       surname,
		Patronymic:    "Иванович",
		Phone:         "+79990001122",
		Address:       "ул. Ленина, 1",
		DeliveryAt:    deliveryAt,
		OrderStatusID: constants.OrderStatusNew,
	}
}

func listFilter(values map[string]interface{}) types.Filter {
	return types.Filter{
		Filter:         values,
		Sort:           map[string]string{},
		Limit:          50,
		Page:           1,
		WithPagination: true,
	}
}

func TestOrderRepository_Integration_CreateAndFind(t *testing.T) {
	pool := requireDB(t)
	cleanupTables(t, pool)
	s := seedData(t, pool)
	repo := NewOrderRepository(pool, zap.NewNop())
	ctx := context.Background()

	order := newTestOrder(s.bankID, "Петров", time.Now().Add(24*time.Hour))
	order.CourierID = &s.courierID
	id, err := repo.CreateOrder(ctx, nil, order)
	require.NoError(t, err)
	require.NotZero(t, id)

	found, err := repo.FindOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Петров", found.Surname)
	require.NotNil(t, found.Bank)
	assert.Equal(t, "Альфа Банк", found.Bank.Name)
	require.NotNil(t, found.Courier)
	assert.Equal(t, "Курьер", found.Courier.Name)
	require.NotNil(t, found.Status)
	assert.Equal(t, "Новые", found.Status.Title)

	_, err = repo.FindOrder(ctx, id+100)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderRepository_Integration_GetOrdersFilters(t *testing.T) {
	pool := requireDB(t)
	cleanupTables(t, pool)
	s := seedData(t, pool)
	repo := NewOrderRepository(pool, zap.NewNop())
	ctx := context.Background()

	today := time.Now()
	withCourier := newTestOrder(s.bankID, "Сидоров", today)
	withCourier.CourierID = &s.courierID
	_, err := repo.CreateOrder(ctx, nil, withCourier)
	require.NoError(t, err)
	_, err = repo.CreateOrder(ctx, nil, newTestOrder(s.bankID, "Кузнецов", today.AddDate(0, 0, -40)))
	require.NoError(t, err)
	_, err = repo.CreateOrder(ctx, nil, newTestOrder(s.otherBank, "Смирнов", today))
	require.NoError(t, err)

	t.Run("scope by bank", func(t *testing.T) {
		orders, total, err := repo.GetOrders(ctx, listFilter(map[string]interface{}{}), OrderScope{BankID: &s.bankID})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), total)
		assert.Len(t, orders, 2)
		assert.Greater(t, orders[0].ID, orders[1].ID, "сортировка по id desc")
	})

	t.Run("courier none", func(t *testing.T) {
		_, total, err := repo.GetOrders(ctx, listFilter(map[string]interface{}{"courier_id": "none"}), OrderScope{})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), total)
	})

	t.Run("delivery today", func(t *testing.T) {
		_, total, err := repo.GetOrders(ctx, listFilter(map[string]interface{}{"delivery_at": "today"}), OrderScope{})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), total)
	})

	t.Run("date range", func(t *testing.T) {
		from := today.AddDate(0, 0, -41).Format(utils.DateLayout)
		to := today.AddDate(0, 0, -39).Format(utils.DateLayout)
		orders, total, err := repo.GetOrders(ctx, listFilter(map[string]interface{}{"date_from": from, "date_to": to}), OrderScope{})
		require.NoError(t, err)
		require.Equal(t, uint64(1), total)
		assert.Equal(t, "Кузнецов", orders[0].Surname)
	})

	t.Run("search needs three chars", func(t *testing.T) {
		f := listFilter(map[string]interface{}{})
		f.Search = "Сид"
		_, total, err := repo.GetOrders(ctx, f, OrderScope{})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), total)

		f.Search = "Си"
		_, total, err = repo.GetOrders(ctx, f, OrderScope{})
		require.NoError(t, err)
		assert.Equal(t, uint64(3), total)
	})

	t.Run("bank filter", func(t *testing.T) {
		_, total, err := repo.GetOrders(ctx, listFilter(map[string]interface{}{"bank_id": "2"}), OrderScope{})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), total)
	})
}

func TestOrderRepository_Integration_UpdateAndDelete(t *testing.T) {
	pool := requireDB(t)
	cleanupTables(t, pool)
	s := seedData(t, pool)
	repo := NewOrderRepository(pool, zap.NewNop())
	ctx := context.Background()

	id1, err := repo.CreateOrder(ctx, nil, newTestOrder(s.bankID, "Один", time.Now()))
	require.NoError(t, err)
	id2, err := repo.CreateOrder(ctx, nil, newTestOrder(s.bankID, "Два", time.Now()))
	require.NoError(t, err)

	affected, err := repo.UpdateOrderFields(ctx, nil, []uint64{id1, id2}, map[string]interface{}{
		"order_status_id": constants.OrderStatusInWork,
		"courier_id":      s.courierID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	found, err := repo.FindOrder(ctx, id2)
	require.NoError(t, err)
	assert.Equal(t, constants.OrderStatusInWork, found.OrderStatusID)

	_, err = repo.UpdateOrderFields(ctx, nil, []uint64{id1}, map[string]interface{}{"created_at": time.Now()})
	assert.Error(t, err, "служебные колонки менять нельзя")

	_, err = repo.UpdateOrderFields(ctx, nil, []uint64{id1}, map[string]interface{}{"bank_id": 999})
	assert.ErrorIs(t, err, apperrors.ErrReference)

	deleted, err := repo.DeleteOrders(ctx, nil, []uint64{id1, id2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, err = repo.DeleteOrders(ctx, nil, []uint64{id1})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderRepository_Integration_Numbering(t *testing.T) {
	pool := requireDB(t)
	cleanupTables(t, pool)
	s := seedData(t, pool)
	repo := NewOrderRepository(pool, zap.NewNop())
	tm := NewTxManager(pool, zap.NewNop())
	ctx := context.Background()

	numbered := newTestOrder(s.bankID, "Первый", time.Now())
	numbered.OrderNumber = utils.ToPtr("AL00001")
	_, err := repo.CreateOrder(ctx, nil, numbered)
	require.NoError(t, err)
	_, err = repo.CreateOrder(ctx, nil, newTestOrder(s.bankID, "Второй", time.Now()))
	require.NoError(t, err)

	err = tm.RunInTransaction(ctx, func(tx pgx.Tx) error {
		require.NoError(t, repo.LockBankNumbering(ctx, tx, s.bankID))

		count, err := repo.CountNumberedByBank(ctx, tx, s.bankID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		exists, err := repo.OrderNumberExists(ctx, tx, "AL00001")
		require.NoError(t, err)
		assert.True(t, exists)
		return nil
	})
	require.NoError(t, err)

	unnumbered, err := repo.FindUnnumbered(ctx)
	require.NoError(t, err)
	require.Len(t, unnumbered, 1)
	assert.Equal(t, "Второй", unnumbered[0].Surname)

	duplicate := newTestOrder(s.bankID, "Третий", time.Now())
	duplicate.OrderNumber = utils.ToPtr("AL00001")
	_, err = repo.CreateOrder(ctx, nil, duplicate)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestOrderSearchCondition(t *testing.T) {
	query, args, err := orderSearchCondition("123").ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "o.id = ?")
	assert.NotContains(t, query, "CAST(")
	assert.Equal(t, uint64(123), args[0])

	query, args, err = orderSearchCondition("Петров").ToSql()
	require.NoError(t, err)
	assert.NotContains(t, query, "o.id")
	assert.Len(t, args, 4)
	assert.Equal(t, "%Петров%", args[0])
}
