package authz

import "delivery-system/pkg/constants"

// --- ПЕРМИШЕНЫ ---

const (
	// Заказы
	OrdersCreate       = "orders:create"
	OrdersView         = "orders:view"
	OrdersUpdate       = "orders:update"
	OrdersDelete       = "orders:delete"
	OrdersImport       = "orders:import"
	OrdersCourierWork  = "orders:courier_work"
	OrdersActivityView = "orders:activity:view"

	// Вложения
	CommentsManage = "comments:manage"
	FilesUpload    = "files:upload"
	FilesDelete    = "files:delete"
	PhotosUpload   = "photos:upload"
	PhotosDelete   = "photos:delete"

	// Справочники и администрирование
	UsersManage        = "users:manage"
	UsersBankKey       = "users:bank_key"
	BanksManage        = "banks:manage"
	StatusesView       = "statuses:view"
	StatusesManage     = "statuses:manage"
	ActivityLogsView   = "activity_logs:view"
	AgentReportsManage = "agent_reports:manage"

	// Статистика
	StatisticsView    = "statistics:view"
	StatisticsBank    = "statistics:bank"
	StatisticsCourier = "statistics:courier"

	// Модификаторы области
	ScopeAll  = "scope:all"
	ScopeBank = "scope:bank"
	ScopeOwn  = "scope:own"
)

// rolePermissions - набор прав каждой роли.
var rolePermissions = map[string][]string{
	constants.RoleAdmin: {
		ScopeAll,
		OrdersCreate, OrdersView, OrdersUpdate, OrdersDelete, OrdersImport, OrdersActivityView,
		CommentsManage, FilesUpload, FilesDelete, PhotosDelete,
		UsersManage, UsersBankKey, BanksManage, StatusesView, StatusesManage,
		ActivityLogsView, AgentReportsManage, StatisticsView,
	},
	constants.RoleManager: {
		ScopeAll,
		OrdersCreate, OrdersView, OrdersUpdate, OrdersDelete,
		CommentsManage, FilesUpload, FilesDelete, PhotosDelete,
		UsersManage, BanksManage, StatusesView, StatusesManage, StatisticsView,
	},
	constants.RoleBank: {
		ScopeBank,
		OrdersCreate, OrdersView, OrdersUpdate, OrdersImport,
		FilesUpload, FilesDelete, StatusesView, StatisticsBank,
	},
	constants.RoleCourier: {
		ScopeOwn,
		OrdersView, OrdersUpdate, OrdersCourierWork,
		PhotosUpload, PhotosDelete, StatusesView, StatisticsCourier,
	},
}

// PermissionsForRole возвращает права роли в виде множества.
func PermissionsForRole(role string) map[string]bool {
	perms := make(map[string]bool)
	for _, p := range rolePermissions[role] {
		perms[p] = true
	}
	return perms
}
