package types

// MonthlyCount - точка графика "заказы по месяцам".
type MonthlyCount struct {
	Month string `json:"month" db:"month"`
	Count int64  `json:"count" db:"count"`
}

type CourierRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type CourierSeries struct {
	Courier CourierRef     `json:"courier"`
	Data    []MonthlyCount `json:"data"`
}

// DashboardStats - сводка для админки и кабинета банка.
type DashboardStats struct {
	TotalOrders         int64 `json:"total_orders"`
	CompletedOrders     int64 `json:"completed_orders"`
	PendingOrders       int64 `json:"pending_orders"`
	CancelledOrders     int64 `json:"cancelled_orders"`
	TotalCouriers       int64 `json:"total_couriers"`
	TotalBanks          int64 `json:"total_banks"`
	PeriodOrders        int64 `json:"period_orders"`
	PeriodCompleted     int64 `json:"period_completed"`
	PeriodCancelled     int64 `json:"period_cancelled"`
	PostponedOrders     int64 `json:"postponed_orders"`
	PendingVerification int64 `json:"pending_verification"`
	InWorkOrders        int64 `json:"in_work_orders"`
}

// PeriodCounts - разбивка заказов периода по статусам.
type PeriodCounts struct {
	Total               int64
	New                 int64
	InWork              int64
	PendingVerification int64
	Completed           int64
	Postponed           int64
	Cancelled           int64
}

// AllTimeCounts - счётчики без ограничения по периоду.
type AllTimeCounts struct {
	Total     int64
	Completed int64
	Pending   int64
	Cancelled int64
	Postponed int64
}

type CourierStatusStats struct {
	New                 int64 `json:"new"`
	InWork              int64 `json:"in_work"`
	PendingVerification int64 `json:"pending_verification"`
	Completed           int64 `json:"completed"`
	Postponed           int64 `json:"postponed"`
	Cancelled           int64 `json:"cancelled"`
}

type CourierInfo struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CourierDashboard struct {
	TotalOrders     int64 `json:"total_orders"`
	CompletedOrders int64 `json:"completed_orders"`
	PendingOrders   int64 `json:"pending_orders"`
	CancelledOrders int64 `json:"cancelled_orders"`
	PostponedOrders int64 `json:"postponed_orders"`

	PeriodOrders              int64 `json:"period_orders"`
	PeriodCompleted           int64 `json:"period_completed"`
	PeriodCancelled           int64 `json:"period_cancelled"`
	PeriodPostponed           int64 `json:"period_postponed"`
	PeriodPendingVerification int64 `json:"period_pending_verification"`
	PeriodInWork              int64 `json:"period_in_work"`

	CompletionRate int64              `json:"completion_rate"`
	StatusStats    CourierStatusStats `json:"status_stats"`
	Courier        CourierInfo        `json:"courier"`

	Period     string  `json:"period"`
	PeriodFrom *string `json:"period_from"`
	PeriodTo   *string `json:"period_to"`
}
