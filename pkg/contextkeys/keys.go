package contextkeys

type contextKey string

const (
	UserIDKey   contextKey = "UserID"
	UserRoleKey contextKey = "UserRole"
	TokenIDKey  contextKey = "TokenID"
	TokenExpKey contextKey = "TokenExp"
)
