package constants

// --- СТАТУСЫ ЗАКАЗОВ (id совпадают с сидером order_statuses) ---
const (
	OrderStatusNew                 uint64 = 1 // Новые
	OrderStatusInWork              uint64 = 2 // Принято в работу
	OrderStatusPendingVerification uint64 = 3 // Ждёт проверку
	OrderStatusCompleted           uint64 = 4 // Завершено
	OrderStatusPostponed           uint64 = 5 // Перенос
	OrderStatusCancelled           uint64 = 6 // Отменено
)

// Системные статусы нельзя удалить
const MaxProtectedStatusID uint64 = 6

// Статусы, которые считаются "в процессе" на дашборде
var PendingStatuses = []uint64{OrderStatusNew, OrderStatusInWork, OrderStatusPendingVerification}

// Статусы, которые курьер может выставить сам из мобильного приложения
var CourierAllowedStatuses = []uint64{
	OrderStatusInWork,
	OrderStatusPendingVerification,
	OrderStatusPostponed,
	OrderStatusCancelled,
}

func IsProtectedStatus(id uint64) bool {
	return id >= 1 && id <= MaxProtectedStatusID
}

// RequiresDeclinedReason - перенос и отмена требуют причину
func RequiresDeclinedReason(statusID uint64) bool {
	return statusID == OrderStatusPostponed || statusID == OrderStatusCancelled
}

func IsCourierAllowedStatus(statusID uint64) bool {
	for _, s := range CourierAllowedStatuses {
		if s == statusID {
			return true
		}
	}
	return false
}
