// pkg/constants/constants.go
package constants

//============== РОЛИ ==============

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCourier = "courier"
	RoleBank    = "bank"
)

var AllRoles = []string{RoleAdmin, RoleManager, RoleCourier, RoleBank}

var RoleLabels = map[string]string{
	RoleAdmin:   "Админ",
	RoleManager: "Менеджер",
	RoleCourier: "Курьер",
	RoleBank:    "Банк",
}

// IsStaff - админ или менеджер, видят всё
func IsStaff(role string) bool {
	return role == RoleAdmin || role == RoleManager
}

//============== АКТ-ОТЧЁТЫ ==============

const (
	ReportStatusFormed      = "formed"
	ReportStatusUnderReview = "under_review"
	ReportStatusApproved    = "approved"
	ReportStatusRejected    = "rejected"
)

var ReportStatuses = []string{
	ReportStatusFormed,
	ReportStatusUnderReview,
	ReportStatusApproved,
	ReportStatusRejected,
}

//============== ТИПЫ ФАЙЛОВ ==============

const (
	FileTypeImage        = "image"
	FileTypePDF          = "pdf"
	FileTypeDocument     = "document"
	FileTypeSpreadsheet  = "spreadsheet"
	FileTypePresentation = "presentation"
	FileTypeArchive      = "archive"
)

//============== ЖУРНАЛ ДЕЙСТВИЙ ==============

const (
	LogNameOrder       = "order"
	LogNameBank        = "bank"
	LogNameOrderStatus = "order_status"
	LogNameUser        = "user"
)

const (
	ActivityCreated = "created"
	ActivityUpdated = "updated"
	ActivityDeleted = "deleted"
)

//============== CACHE KEYS ==============

// Префиксы для ключей в Redis/кеше.
const (
	// login_attempts:<userID> -> счётчик неудачных попыток
	CacheKeyLoginAttempts = "login_attempts:%d"
	// lockout:<userID> -> "locked"
	CacheKeyLockout = "lockout:%d"
	// revoked_token:<jti> -> "1" до истечения токена
	CacheKeyRevokedToken = "revoked_token:%s"
	// activity_logs_<log_name>_<md5(ids)>
	CacheKeyActivityBatch = "activity_logs_%s_%s"
)
