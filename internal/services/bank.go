package services

import (
	"context"

	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/types"
)

type BankServiceInterface interface {
	GetBanks(ctx context.Context, filter types.Filter) ([]dto.BankResponseDTO, uint64, error)
	FindBank(ctx context.Context, id uint64) (*dto.BankResponseDTO, error)
	CreateBank(ctx context.Context, payload dto.BankDTO) (*dto.BankResponseDTO, error)
	UpdateBank(ctx context.Context, id uint64, payload dto.BankDTO) (*dto.BankResponseDTO, error)
	DeleteBank(ctx context.Context, id uint64) error
}

type BankService struct {
	*BaseService
	bankRepo    repositories.BankRepositoryInterface
	activityLog ActivityLogServiceInterface
}

func NewBankService(
	base *BaseService,
	bankRepo repositories.BankRepositoryInterface,
	activityLog ActivityLogServiceInterface,
) BankServiceInterface {
	return &BankService{BaseService: base, bankRepo: bankRepo, activityLog: activityLog}
}

func bankToResponse(b *entities.Bank) dto.BankResponseDTO {
	return dto.BankResponseDTO{
		ID:          b.ID,
		Name:        b.Name,
		Phone:       b.Phone,
		Email:       b.Email,
		OrderPrefix: b.OrderPrefix,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func (s *BankService) GetBanks(ctx context.Context, filter types.Filter) ([]dto.BankResponseDTO, uint64, error) {
	if _, err := s.Authorize(ctx, authz.BanksManage, nil); err != nil {
		return nil, 0, err
	}
	banks, total, err := s.bankRepo.GetBanks(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.BankResponseDTO, 0, len(banks))
	for i := range banks {
		result = append(result, bankToResponse(&banks[i]))
	}
	return result, total, nil
}

func (s *BankService) FindBank(ctx context.Context, id uint64) (*dto.BankResponseDTO, error) {
	if _, err := s.Authorize(ctx, authz.BanksManage, nil); err != nil {
		return nil, err
	}
	bank, err := s.bankRepo.FindBank(ctx, id)
	if err != nil {
		return nil, err
	}
	res := bankToResponse(bank)
	return &res, nil
}

func (s *BankService) CreateBank(ctx context.Context, payload dto.BankDTO) (*dto.BankResponseDTO, error) {
	actor, err := s.Authorize(ctx, authz.BanksManage, nil)
	if err != nil {
		return nil, err
	}
	bank, err := s.bankRepo.CreateBank(ctx, &entities.Bank{
		Name:        payload.Name,
		Phone:       payload.Phone,
		Email:       payload.Email,
		OrderPrefix: payload.OrderPrefix,
	})
	if err != nil {
		return nil, err
	}
	if err := s.activityLog.RecordCreated(ctx, nil, constants.LogNameBank, bank.ID, bankActivityAttributes(bank)); err != nil {
		s.logger.Warn("Банк создан без записи в журнале", zap.Uint64("bankID", bank.ID))
	}
	s.logger.Info("Банк создан", zap.Uint64("bankID", bank.ID), zap.Uint64("actorID", actor.ID))
	res := bankToResponse(bank)
	return &res, nil
}

func (s *BankService) UpdateBank(ctx context.Context, id uint64, payload dto.BankDTO) (*dto.BankResponseDTO, error) {
	if _, err := s.Authorize(ctx, authz.BanksManage, nil); err != nil {
		return nil, err
	}
	current, err := s.bankRepo.FindBank(ctx, id)
	if err != nil {
		return nil, err
	}
	old := bankActivityAttributes(current)

	current.Name = payload.Name
	current.Phone = payload.Phone
	current.Email = payload.Email
	current.OrderPrefix = payload.OrderPrefix
	updated, err := s.bankRepo.UpdateBank(ctx, current)
	if err != nil {
		return nil, err
	}
	if err := s.activityLog.RecordUpdated(ctx, nil, constants.LogNameBank, id, old, bankActivityAttributes(updated)); err != nil {
		s.logger.Warn("Изменение банка не попало в журнал", zap.Uint64("bankID", id))
	}
	res := bankToResponse(updated)
	return &res, nil
}

func (s *BankService) DeleteBank(ctx context.Context, id uint64) error {
	actor, err := s.Authorize(ctx, authz.BanksManage, nil)
	if err != nil {
		return err
	}
	bank, err := s.bankRepo.FindBank(ctx, id)
	if err != nil {
		return err
	}
	if err := s.bankRepo.DeleteBank(ctx, id); err != nil {
		return err
	}
	if err := s.activityLog.RecordDeleted(ctx, nil, constants.LogNameBank, id, bankActivityAttributes(bank)); err != nil {
		s.logger.Warn("Удаление банка не попало в журнал", zap.Uint64("bankID", id))
	}
	s.logger.Info("Банк удалён", zap.Uint64("bankID", id), zap.Uint64("actorID", actor.ID))
	return nil
}
