package services

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/types"
	"delivery-system/pkg/utils"
)

const (
	PeriodAll       = "all"
	PeriodCustom    = "custom"
	PeriodDay       = "day"
	PeriodWeek      = "week"
	PeriodMonth     = "month"
	PeriodYear      = "year"
	PeriodToday     = "today"
	PeriodThisWeek  = "this_week"
	PeriodThisMonth = "this_month"
	PeriodThisYear  = "this_year"

	monthlySeriesMonths  = 12
	dashboardFallbackAge = 30 * 24 * time.Hour
)

type StatisticsServiceInterface interface {
	OrderStatistics(ctx context.Context, filter dto.StatisticsFilterDTO) ([]types.MonthlyCount, error)
	CourierStatistics(ctx context.Context, filter dto.StatisticsFilterDTO) ([]types.CourierSeries, error)
	Dashboard(ctx context.Context, filter dto.StatisticsFilterDTO) (*types.DashboardStats, error)
	BankDashboard(ctx context.Context, filter dto.StatisticsFilterDTO) (*types.DashboardStats, error)
	CourierDashboard(ctx context.Context, filter dto.StatisticsFilterDTO) (*types.CourierDashboard, error)
}

type StatisticsService struct {
	*BaseService
	repo repositories.StatisticsRepositoryInterface
	now  func() time.Time
}

func NewStatisticsService(base *BaseService, repo repositories.StatisticsRepositoryInterface) StatisticsServiceInterface {
	return &StatisticsService{BaseService: base, repo: repo, now: time.Now}
}

// customWindow - окно [from 00:00:00, to 23:59:59] по колонке column; nil, если даты не заданы.
func customWindow(column string, filter dto.StatisticsFilterDTO) (*repositories.TimeWindow, error) {
	if filter.From == "" || filter.To == "" {
		return nil, nil
	}
	from, to, err := utils.ParseDayRange(filter.From, filter.To)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	return &repositories.TimeWindow{Column: column, From: from, To: to}, nil
}

// rollingWindow - "последние сутки/неделя/месяц/год" по created_at.
func rollingWindow(period string, now time.Time) *repositories.TimeWindow {
	var from time.Time
	switch period {
	case PeriodDay:
		from = now.AddDate(0, 0, -1)
	case PeriodWeek:
		from = now.AddDate(0, 0, -7)
	case PeriodMonth:
		from = now.AddDate(0, -1, 0)
	case PeriodYear:
		from = now.AddDate(-1, 0, 0)
	default:
		return nil
	}
	return &repositories.TimeWindow{Column: "created_at", From: from, To: now}
}

// calendarWindow - "сегодня/эта неделя/этот месяц/этот год" по created_at.
func calendarWindow(period string, now time.Time) *repositories.TimeWindow {
	var from time.Time
	switch period {
	case PeriodToday:
		from = utils.StartOfDay(now)
	case PeriodThisWeek:
		from = utils.StartOfWeek(now)
	case PeriodThisMonth:
		from = utils.StartOfMonth(now)
	case PeriodThisYear:
		from = utils.StartOfYear(now)
	default:
		return nil
	}
	return &repositories.TimeWindow{Column: "created_at", From: from, To: now}
}

func seriesWindow(filter dto.StatisticsFilterDTO, customColumn string, now time.Time) (*repositories.TimeWindow, error) {
	switch filter.Period {
	case "", PeriodAll:
		return nil, nil
	case PeriodCustom:
		return customWindow(customColumn, filter)
	}
	return rollingWindow(filter.Period, now), nil
}

// monthsSince - начало окна помесячного графика.
func monthsSince(now time.Time) time.Time {
	return now.AddDate(0, -monthlySeriesMonths, 0)
}

func (s *StatisticsService) OrderStatistics(ctx context.Context, filter dto.StatisticsFilterDTO) ([]types.MonthlyCount, error) {
	if _, err := s.Authorize(ctx, authz.StatisticsView, nil); err != nil {
		return nil, err
	}
	now := s.now()
	window, err := seriesWindow(filter, "delivered_at", now)
	if err != nil {
		return nil, err
	}
	scope := repositories.StatsScope{BankID: filter.BankID, CourierID: filter.CourierID}
	return s.repo.MonthlyCompleted(ctx, scope, window, monthsSince(now))
}

// CourierStatistics - помесячный график по каждому курьеру, включая курьеров без заказов.
func (s *StatisticsService) CourierStatistics(ctx context.Context, filter dto.StatisticsFilterDTO) ([]types.CourierSeries, error) {
	if _, err := s.Authorize(ctx, authz.StatisticsView, nil); err != nil {
		return nil, err
	}
	now := s.now()
	window, err := seriesWindow(filter, "created_at", now)
	if err != nil {
		return nil, err
	}
	scope := repositories.StatsScope{BankID: filter.BankID, CourierID: filter.CourierID}
	rows, err := s.repo.MonthlyCompletedByCourier(ctx, scope, window, monthsSince(now))
	if err != nil {
		return nil, err
	}
	couriers, err := s.userRepo.FindRecipients(ctx, []string{constants.RoleCourier}, nil)
	if err != nil {
		return nil, err
	}
	return buildCourierSeries(couriers, rows, filter.CourierID), nil
}

func buildCourierSeries(couriers []entities.User, rows []repositories.CourierMonthlyRow, only *uint64) []types.CourierSeries {
	index := make(map[uint64]int)
	result := make([]types.CourierSeries, 0, len(couriers))
	add := func(id uint64, name string) int {
		if i, ok := index[id]; ok {
			return i
		}
		index[id] = len(result)
		result = append(result, types.CourierSeries{Courier: types.CourierRef{ID: id, Name: name}, Data: []types.MonthlyCount{}})
		return index[id]
	}
	for _, c := range couriers {
		if only != nil && c.ID != *only {
			continue
		}
		add(c.ID, c.Name)
	}
	for _, r := range rows {
		i := add(r.CourierID, r.CourierName)
		result[i].Data = append(result[i].Data, types.MonthlyCount{Month: r.Month, Count: r.Count})
	}
	for i := range result {
		sort.Slice(result[i].Data, func(a, b int) bool { return result[i].Data[a].Month < result[i].Data[b].Month })
	}
	return result
}

func (s *StatisticsService) Dashboard(ctx context.Context, filter dto.StatisticsFilterDTO) (*types.DashboardStats, error) {
	if _, err := s.Authorize(ctx, authz.StatisticsView, nil); err != nil {
		return nil, err
	}
	return s.dashboard(ctx, repositories.StatsScope{BankID: filter.BankID, CourierID: filter.CourierID}, filter)
}

// BankDashboard - сводка, принудительно ограниченная банком пользователя.
func (s *StatisticsService) BankDashboard(ctx context.Context, filter dto.StatisticsFilterDTO) (*types.DashboardStats, error) {
	actor, err := s.Authorize(ctx, authz.StatisticsBank, nil)
	if err != nil {
		return nil, err
	}
	if actor.BankID == nil {
		return nil, apperrors.NewForbiddenError("Пользователь не привязан к банку")
	}
	return s.dashboard(ctx, repositories.StatsScope{BankID: actor.BankID, CourierID: filter.CourierID}, filter)
}

func dashboardWindow(filter dto.StatisticsFilterDTO, now time.Time) (*repositories.TimeWindow, error) {
	switch filter.Period {
	case "", PeriodAll:
		return &repositories.TimeWindow{Column: "created_at", From: now.Add(-dashboardFallbackAge), To: now}, nil
	case PeriodCustom:
		return customWindow("created_at", filter)
	}
	return calendarWindow(filter.Period, now), nil
}

func (s *StatisticsService) dashboard(ctx context.Context, scope repositories.StatsScope, filter dto.StatisticsFilterDTO) (*types.DashboardStats, error) {
	window, err := dashboardWindow(filter, s.now())
	if err != nil {
		return nil, err
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		errs     []error
		allTime  types.AllTimeCounts
		period   types.PeriodCounts
		couriers int64
		banks    int64
	)
	addTask := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}

	addTask(func() (err error) { allTime, err = s.repo.AllTimeCounts(ctx, scope); return })
	addTask(func() (err error) { period, err = s.repo.PeriodCounts(ctx, scope, window); return })
	addTask(func() (err error) { couriers, err = s.repo.CountCouriers(ctx); return })
	addTask(func() (err error) { banks, err = s.repo.CountBanks(ctx); return })
	wg.Wait()

	if len(errs) > 0 {
		s.logger.Error("Ошибка загрузки статистики дашборда", zap.Error(errs[0]))
		return nil, errs[0]
	}

	return &types.DashboardStats{
		TotalOrders:         allTime.Total,
		CompletedOrders:     allTime.Completed,
		PendingOrders:       allTime.Pending,
		CancelledOrders:     allTime.Cancelled,
		TotalCouriers:       couriers,
		TotalBanks:          banks,
		PeriodOrders:        period.Total,
		PeriodCompleted:     period.Completed,
		PeriodCancelled:     period.Cancelled,
		PostponedOrders:     period.Postponed,
		PendingVerification: period.PendingVerification,
		InWorkOrders:        period.InWork,
	}, nil
}

// CourierDashboard - статистика мобильного приложения; период по умолчанию "today".
func (s *StatisticsService) CourierDashboard(ctx context.Context, filter dto.StatisticsFilterDTO) (*types.CourierDashboard, error) {
	actor, err := s.Authorize(ctx, authz.StatisticsCourier, nil)
	if err != nil {
		return nil, err
	}
	if filter.Period == "" {
		filter.Period = PeriodToday
	}

	var window *repositories.TimeWindow
	switch filter.Period {
	case PeriodAll:
	case PeriodCustom:
		if window, err = customWindow("created_at", filter); err != nil {
			return nil, err
		}
	default:
		window = calendarWindow(filter.Period, s.now())
	}

	scope := repositories.StatsScope{CourierID: &actor.ID}
	allTime, err := s.repo.AllTimeCounts(ctx, scope)
	if err != nil {
		return nil, err
	}
	period, err := s.repo.PeriodCounts(ctx, scope, window)
	if err != nil {
		return nil, err
	}

	res := &types.CourierDashboard{
		TotalOrders:               allTime.Total,
		CompletedOrders:           allTime.Completed,
		PendingOrders:             allTime.Pending,
		CancelledOrders:           allTime.Cancelled,
		PostponedOrders:           allTime.Postponed,
		PeriodOrders:              period.Total,
		PeriodCompleted:           period.Completed,
		PeriodCancelled:           period.Cancelled,
		PeriodPostponed:           period.Postponed,
		PeriodPendingVerification: period.PendingVerification,
		PeriodInWork:              period.InWork,
		CompletionRate:            completionRate(period),
		StatusStats: types.CourierStatusStats{
			New:                 period.New,
			InWork:              period.InWork,
			PendingVerification: period.PendingVerification,
			Completed:           period.Completed,
			Postponed:           period.Postponed,
			Cancelled:           period.Cancelled,
		},
		Courier: types.CourierInfo{ID: actor.ID, Name: actor.Name, Email: actor.Email},
		Period:  filter.Period,
	}
	if filter.From != "" {
		res.PeriodFrom = utils.ToPtr(filter.From)
	}
	if filter.To != "" {
		res.PeriodTo = utils.ToPtr(filter.To)
	}
	return res, nil
}

// completionRate - доля завершённых среди неотменённых заказов периода, в процентах.
func completionRate(p types.PeriodCounts) int64 {
	active := p.Total - p.Cancelled
	if active <= 0 {
		return 0
	}
	return int64(math.Round(float64(p.Completed) / float64(active) * 100))
}
