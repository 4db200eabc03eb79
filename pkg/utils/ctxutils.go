package utils

import (
	"context"
	"time"

	"delivery-system/pkg/contextkeys"
	apperrors "delivery-system/pkg/errors"
)

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok || userID == 0 {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return userID, nil
}

func GetUserRoleFromCtx(ctx context.Context) (string, error) {
	role, ok := ctx.Value(contextkeys.UserRoleKey).(string)
	if !ok || role == "" {
		return "", apperrors.ErrUnauthorized
	}
	return role, nil
}

// GetTokenFromCtx возвращает jti и время истечения текущего access-токена.
func GetTokenFromCtx(ctx context.Context) (string, time.Time, error) {
	jti, ok := ctx.Value(contextkeys.TokenIDKey).(string)
	if !ok || jti == "" {
		return "", time.Time{}, apperrors.ErrUnauthorized
	}
	exp, _ := ctx.Value(contextkeys.TokenExpKey).(time.Time)
	return jti, exp, nil
}
