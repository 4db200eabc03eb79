package services

import (
	"context"

	"go.uber.org/zap"

	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/constants"
)

// MaintenanceServiceInterface - служебные операции для консоли и планировщика.
type MaintenanceServiceInterface interface {
	FindOrphanedOrderLogs(ctx context.Context) ([]entities.ActivityLog, error)
	DeleteActivityLogs(ctx context.Context, logs []entities.ActivityLog) (int64, error)
	CleanupOrphanedOrderLogs(ctx context.Context) (int64, error)
	GenerateOrderNumbers(ctx context.Context) (int, error)
}

type MaintenanceService struct {
	activityRepo repositories.ActivityLogRepositoryInterface
	numberer     *OrderNumberer
	logger       *zap.Logger
}

func NewMaintenanceService(
	activityRepo repositories.ActivityLogRepositoryInterface,
	numberer *OrderNumberer,
	logger *zap.Logger,
) MaintenanceServiceInterface {
	return &MaintenanceService{activityRepo: activityRepo, numberer: numberer, logger: logger}
}

// FindOrphanedOrderLogs - записи журнала заказов, которые уже удалены.
func (s *MaintenanceService) FindOrphanedOrderLogs(ctx context.Context) ([]entities.ActivityLog, error) {
	return s.activityRepo.FindOrphaned(ctx, constants.LogNameOrder)
}

func (s *MaintenanceService) DeleteActivityLogs(ctx context.Context, logs []entities.ActivityLog) (int64, error) {
	ids := make([]uint64, 0, len(logs))
	for _, l := range logs {
		ids = append(ids, l.ID)
	}
	return s.activityRepo.DeleteByIDs(ctx, ids)
}

// CleanupOrphanedOrderLogs удаляет осиротевшие записи без подтверждения.
func (s *MaintenanceService) CleanupOrphanedOrderLogs(ctx context.Context) (int64, error) {
	logs, err := s.FindOrphanedOrderLogs(ctx)
	if err != nil {
		return 0, err
	}
	if len(logs) == 0 {
		s.logger.Info("Осиротевших записей активности не найдено")
		return 0, nil
	}
	deleted, err := s.DeleteActivityLogs(ctx, logs)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Осиротевшие записи активности удалены", zap.Int64("deleted", deleted))
	return deleted, nil
}

// GenerateOrderNumbers нумерует заказы без номера.
func (s *MaintenanceService) GenerateOrderNumbers(ctx context.Context) (int, error) {
	count, err := s.numberer.GenerateMissing(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Номера заказов сгенерированы", zap.Int("count", count))
	return count, nil
}
