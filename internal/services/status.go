package services

import (
	"context"

	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
)

type OrderStatusServiceInterface interface {
	GetStatuses(ctx context.Context) ([]dto.OrderStatusResponseDTO, error)
	FindStatus(ctx context.Context, id uint64) (*dto.OrderStatusResponseDTO, error)
	CreateStatus(ctx context.Context, payload dto.OrderStatusDTO) (*dto.OrderStatusResponseDTO, error)
	UpdateStatus(ctx context.Context, id uint64, payload dto.OrderStatusDTO) (*dto.OrderStatusResponseDTO, error)
	DeleteStatus(ctx context.Context, id uint64) error
}

type OrderStatusService struct {
	*BaseService
	statusRepo  repositories.OrderStatusRepositoryInterface
	activityLog ActivityLogServiceInterface
}

func NewOrderStatusService(
	base *BaseService,
	statusRepo repositories.OrderStatusRepositoryInterface,
	activityLog ActivityLogServiceInterface,
) OrderStatusServiceInterface {
	return &OrderStatusService{BaseService: base, statusRepo: statusRepo, activityLog: activityLog}
}

func statusToResponse(st *entities.OrderStatus) dto.OrderStatusResponseDTO {
	return dto.OrderStatusResponseDTO{
		ID:        st.ID,
		Title:     st.Title,
		Color:     st.Color,
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
}

func (s *OrderStatusService) GetStatuses(ctx context.Context) ([]dto.OrderStatusResponseDTO, error) {
	if _, err := s.Authorize(ctx, authz.StatusesView, nil); err != nil {
		return nil, err
	}
	statuses, err := s.statusRepo.GetStatuses(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.OrderStatusResponseDTO, 0, len(statuses))
	for i := range statuses {
		result = append(result, statusToResponse(&statuses[i]))
	}
	return result, nil
}

func (s *OrderStatusService) FindStatus(ctx context.Context, id uint64) (*dto.OrderStatusResponseDTO, error) {
	if _, err := s.Authorize(ctx, authz.StatusesView, nil); err != nil {
		return nil, err
	}
	st, err := s.statusRepo.FindStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	res := statusToResponse(st)
	return &res, nil
}

func (s *OrderStatusService) CreateStatus(ctx context.Context, payload dto.OrderStatusDTO) (*dto.OrderStatusResponseDTO, error) {
	if _, err := s.Authorize(ctx, authz.StatusesManage, nil); err != nil {
		return nil, err
	}
	st, err := s.statusRepo.CreateStatus(ctx, &entities.OrderStatus{Title: payload.Title, Color: payload.Color})
	if err != nil {
		return nil, err
	}
	if err := s.activityLog.RecordCreated(ctx, nil, constants.LogNameOrderStatus, st.ID, statusActivityAttributes(st)); err != nil {
		s.logger.Warn("Статус создан без записи в журнале", zap.Uint64("statusID", st.ID))
	}
	res := statusToResponse(st)
	return &res, nil
}

func (s *OrderStatusService) UpdateStatus(ctx context.Context, id uint64, payload dto.OrderStatusDTO) (*dto.OrderStatusResponseDTO, error) {
	if _, err := s.Authorize(ctx, authz.StatusesManage, nil); err != nil {
		return nil, err
	}
	current, err := s.statusRepo.FindStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	old := statusActivityAttributes(current)
	current.Title = payload.Title
	current.Color = payload.Color

	updated, err := s.statusRepo.UpdateStatus(ctx, current)
	if err != nil {
		return nil, err
	}
	if err := s.activityLog.RecordUpdated(ctx, nil, constants.LogNameOrderStatus, id, old, statusActivityAttributes(updated)); err != nil {
		s.logger.Warn("Изменение статуса не попало в журнал", zap.Uint64("statusID", id))
	}
	res := statusToResponse(updated)
	return &res, nil
}

// DeleteStatus - системные статусы 1-6 удалить нельзя.
func (s *OrderStatusService) DeleteStatus(ctx context.Context, id uint64) error {
	if _, err := s.Authorize(ctx, authz.StatusesManage, nil); err != nil {
		return err
	}
	if constants.IsProtectedStatus(id) {
		return apperrors.NewForbiddenError("Нельзя удалить системный статус")
	}
	st, err := s.statusRepo.FindStatus(ctx, id)
	if err != nil {
		return err
	}
	if err := s.statusRepo.DeleteStatus(ctx, id); err != nil {
		return err
	}
	if err := s.activityLog.RecordDeleted(ctx, nil, constants.LogNameOrderStatus, id, statusActivityAttributes(st)); err != nil {
		s.logger.Warn("Удаление статуса не попало в журнал", zap.Uint64("statusID", id))
	}
	return nil
}
