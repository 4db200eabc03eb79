package services

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/utils"
)

// BaseService - общее для сервисов: текущий пользователь, проверка прав и кеш.
type BaseService struct {
	userRepo   repositories.UserRepositoryInterface
	cache      repositories.CacheRepositoryInterface
	gatekeeper *authz.Gatekeeper
	logger     *zap.Logger
}

func NewBaseService(
	userRepo repositories.UserRepositoryInterface,
	cache repositories.CacheRepositoryInterface,
	gatekeeper *authz.Gatekeeper,
	logger *zap.Logger,
) *BaseService {
	return &BaseService{userRepo: userRepo, cache: cache, gatekeeper: gatekeeper, logger: logger}
}

// CurrentActor загружает пользователя из токена запроса.
func (s *BaseService) CurrentActor(ctx context.Context) (*entities.User, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		s.logger.Error("Пользователь не авторизован", zap.Error(err))
		return nil, apperrors.ErrUnauthorized
	}
	actor, err := s.userRepo.FindUser(ctx, userID)
	if err != nil {
		s.logger.Warn("Пользователь из токена не найден", zap.Uint64("userID", userID), zap.Error(err))
		return nil, apperrors.ErrUnauthorized
	}
	if !actor.IsActive {
		return nil, apperrors.NewHttpError(http.StatusForbidden, "Аккаунт деактивирован", apperrors.ErrForbidden, nil)
	}
	return actor, nil
}

// Authorize возвращает актёра, если у него есть право permission на target.
func (s *BaseService) Authorize(ctx context.Context, permission string, target interface{}) (*entities.User, error) {
	actor, err := s.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.Can(actor, permission, target) {
		s.logger.Warn("Отказано в доступе",
			zap.Uint64("userID", actor.ID),
			zap.String("role", actor.Role),
			zap.String("permission", permission),
		)
		return actor, apperrors.ErrForbidden
	}
	return actor, nil
}

// CacheGet получает данные из кэша
func (s *BaseService) CacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		if !repositories.IsCacheMiss(err) {
			s.logger.Warn("Ошибка чтения кэша", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(cached), dest); err != nil {
		return false
	}
	s.logger.Debug("Данные получены из кэша", zap.String("key", key))
	return true
}

// CacheSet сохраняет данные в кэш
func (s *BaseService) CacheSet(ctx context.Context, key string, data interface{}, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	serialized, err := json.Marshal(data)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, serialized, ttl); err != nil {
		s.logger.Warn("Ошибка записи в кэш", zap.String("key", key), zap.Error(err))
	}
}
