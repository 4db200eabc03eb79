package repositories

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/utils"
)

func TestAgentReportRepository_Integration_Lifecycle(t *testing.T) {
	pool := requireDB(t)
	cleanupTables(t, pool)
	s := seedData(t, pool)
	ctx := context.Background()
	orders := NewOrderRepository(pool, zap.NewNop())
	repo := NewAgentReportRepository(pool, zap.NewNop())
	tm := NewTxManager(pool, zap.NewNop())

	deliveryAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	completed := newTestOrder(s.bankID, "Завершённый", deliveryAt)
	completed.OrderStatusID = constants.OrderStatusCompleted
	completedID, err := orders.CreateOrder(ctx, nil, completed)
	require.NoError(t, err)

	foreign := newTestOrder(s.otherBank, "Чужой", deliveryAt)
	foreign.OrderStatusID = constants.OrderStatusCompleted
	foreignID, err := orders.CreateOrder(ctx, nil, foreign)
	require.NoError(t, err)

	_, err = orders.CreateOrder(ctx, nil, newTestOrder(s.bankID, "Новый", deliveryAt))
	require.NoError(t, err)

	from, to, err := utils.ParseDayRange("2025-03-01", "2025-03-10")
	require.NoError(t, err)
	forPeriod, err := repo.CompletedOrdersForPeriod(ctx, []uint64{s.bankID}, from, to)
	require.NoError(t, err)
	require.Len(t, forPeriod, 1)
	assert.Equal(t, completedID, forPeriod[0].ID)

	count, err := repo.CountOrdersInBanks(ctx, nil, []uint64{completedID, foreignID}, []uint64{s.bankID})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var reportID uint64
	err = tm.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		reportID, err = repo.CreateReport(ctx, tx, &entities.AgentReport{
			PeriodFrom:   from,
			PeriodTo:     to,
			DeliveryCost: decimal.RequireFromString("150.50"),
			Status:       constants.ReportStatusFormed,
			CreatedBy:    s.adminID,
		})
		if err != nil {
			return err
		}
		if err := repo.ReplaceBanks(ctx, tx, reportID, []uint64{s.bankID}); err != nil {
			return err
		}
		return repo.ReplaceOrders(ctx, tx, reportID, []entities.AgentReportOrder{
			{OrderID: completedID, DeliveryCost: decimal.RequireFromString("150.50")},
		})
	})
	require.NoError(t, err)

	report, err := repo.FindReport(ctx, reportID)
	require.NoError(t, err)
	assert.True(t, report.DeliveryCost.Equal(decimal.RequireFromString("150.50")))
	require.Len(t, report.Banks, 1)
	assert.Equal(t, "Альфа Банк", report.Banks[0].Name)
	require.Len(t, report.Orders, 1)
	require.NotNil(t, report.Orders[0].Order)
	assert.Equal(t, "Завершённый", report.Orders[0].Order.Surname)
	require.NotNil(t, report.Creator)
	assert.Equal(t, "Админ", report.Creator.Name)

	list, total, err := repo.GetReports(ctx, listFilter(map[string]interface{}{"bank_id": "1"}))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Banks, 1)

	_, total, err = repo.GetReports(ctx, listFilter(map[string]interface{}{"status": constants.ReportStatusApproved}))
	require.NoError(t, err)
	assert.Zero(t, total)

	require.NoError(t, repo.DeleteReport(ctx, reportID))
	var lines int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM agent_report_orders").Scan(&lines))
	assert.Zero(t, lines, "строки удаляются каскадно")
}

func TestActivityLogRepository_Integration_Orphaned(t *testing.T) {
	pool := requireDB(t)
	cleanupTables(t, pool)
	s := seedData(t, pool)
	ctx := context.Background()
	orders := NewOrderRepository(pool, zap.NewNop())
	repo := NewActivityLogRepository(pool, zap.NewNop())

	liveID, err := orders.CreateOrder(ctx, nil, newTestOrder(s.bankID, "Живой", time.Now()))
	require.NoError(t, err)

	props, _ := json.Marshal(entities.ActivityProperties{Attributes: map[string]interface{}{"order_number": "AL00001"}})
	for _, subjectID := range []uint64{liveID, 9999} {
		id := subjectID
		require.NoError(t, repo.CreateEntry(ctx, nil, &entities.ActivityLog{
			LogName:     constants.LogNameOrder,
			Description: "Заказ был создан",
			SubjectID:   &id,
			Event:       utils.ToPtr(constants.ActivityCreated),
			CauserID:    &s.adminID,
			Properties:  props,
		}))
	}

	history, err := repo.GetBySubject(ctx, constants.LogNameOrder, liveID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].CauserName)
	assert.Equal(t, "Админ", *history[0].CauserName)

	orphaned, err := repo.FindOrphaned(ctx, constants.LogNameOrder)
	require.NoError(t, err)
	require.Len(t, orphaned, 1)
	assert.Equal(t, uint64(9999), *orphaned[0].SubjectID)

	deleted, err := repo.DeleteByIDs(ctx, []uint64{orphaned[0].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindOrphaned(ctx, "unknown")
	assert.Error(t, err)
}

func TestStatisticsRepository_Integration_Counts(t *testing.T) {
	pool := requireDB(t)
	cleanupTables(t, pool)
	s := seedData(t, pool)
	ctx := context.Background()
	orders := NewOrderRepository(pool, zap.NewNop())
	repo := NewStatisticsRepository(pool, zap.NewNop())

	for _, status := range []uint64{
		constants.OrderStatusNew, constants.OrderStatusInWork, constants.OrderStatusCompleted,
		constants.OrderStatusCompleted, constants.OrderStatusCancelled,
	} {
		o := newTestOrder(s.bankID, "Статус", time.Now())
		o.OrderStatusID = status
		o.CourierID = &s.courierID
		_, err := orders.CreateOrder(ctx, nil, o)
		require.NoError(t, err)
	}

	all, err := repo.AllTimeCounts(ctx, StatsScope{BankID: &s.bankID})
	require.NoError(t, err)
	assert.Equal(t, int64(5), all.Total)
	assert.Equal(t, int64(2), all.Completed)
	assert.Equal(t, int64(2), all.Pending)
	assert.Equal(t, int64(1), all.Cancelled)

	other, err := repo.AllTimeCounts(ctx, StatsScope{BankID: &s.otherBank})
	require.NoError(t, err)
	assert.Zero(t, other.Total)

	window := &TimeWindow{Column: "created_at", From: time.Now().Add(-time.Hour), To: time.Now().Add(time.Hour)}
	period, err := repo.PeriodCounts(ctx, StatsScope{CourierID: &s.courierID}, window)
	require.NoError(t, err)
	assert.Equal(t, int64(5), period.Total)
	assert.Equal(t, int64(1), period.InWork)

	monthly, err := repo.MonthlyCompleted(ctx, StatsScope{}, nil, time.Now().AddDate(-1, 0, 0))
	require.NoError(t, err)
	require.Len(t, monthly, 1)
	assert.Equal(t, time.Now().Format("2006-01"), monthly[0].Month)
	assert.Equal(t, int64(2), monthly[0].Count)

	byCourier, err := repo.MonthlyCompletedByCourier(ctx, StatsScope{}, nil, time.Now().AddDate(-1, 0, 0))
	require.NoError(t, err)
	require.Len(t, byCourier, 1)
	assert.Equal(t, "Курьер", byCourier[0].CourierName)

	_, err = repo.PeriodCounts(ctx, StatsScope{}, &TimeWindow{Column: "id; DROP TABLE orders"})
	assert.Error(t, err)

	couriers, err := repo.CountCouriers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), couriers)
}
