package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/types"
	"delivery-system/pkg/utils"
)

type UserServiceInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserResponseDTO, uint64, error)
	FindUser(ctx context.Context, id uint64) (*dto.UserResponseDTO, error)
	CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserResponseDTO, error)
	UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*dto.UserResponseDTO, error)
	DeleteUser(ctx context.Context, id uint64) error
	RegenerateBankKey(ctx context.Context, id uint64) (*dto.BankKeyResponseDTO, error)

	GetProfile(ctx context.Context) (*dto.ProfileResponseDTO, error)
	UpdateProfile(ctx context.Context, payload dto.UpdateProfileDTO) (*dto.ProfileResponseDTO, error)
}

type UserService struct {
	*BaseService
	txManager   repositories.TxManagerInterface
	bankRepo    repositories.BankRepositoryInterface
	activityLog ActivityLogServiceInterface
	bankKeyTTL  time.Duration
}

func NewUserService(
	base *BaseService,
	txManager repositories.TxManagerInterface,
	bankRepo repositories.BankRepositoryInterface,
	activityLog ActivityLogServiceInterface,
	bankKeyTTL time.Duration,
) UserServiceInterface {
	return &UserService{
		BaseService: base,
		txManager:   txManager,
		bankRepo:    bankRepo,
		activityLog: activityLog,
		bankKeyTTL:  bankKeyTTL,
	}
}

func userToResponse(u *entities.User) dto.UserResponseDTO {
	res := dto.UserResponseDTO{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Phone:            u.Phone,
		Role:             u.Role,
		BankID:           u.BankID,
		IsActive:         u.IsActive,
		Note:             u.Note,
		BankKeyExpiresAt: u.BankKeyExpiresAt,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
	if u.Bank != nil {
		res.Bank = &dto.ShortBankDTO{ID: u.Bank.ID, Name: u.Bank.Name}
	}
	return res
}

func profileToResponse(u *entities.User) *dto.ProfileResponseDTO {
	return &dto.ProfileResponseDTO{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		IsActive: u.IsActive,
		Note:     u.Note,
	}
}

func (s *UserService) authorizeManage(ctx context.Context) (*entities.User, error) {
	return s.Authorize(ctx, authz.UsersManage, nil)
}

func (s *UserService) GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserResponseDTO, uint64, error) {
	if _, err := s.authorizeManage(ctx); err != nil {
		return nil, 0, err
	}
	if err := utils.ValidateNumericFilters(filter, "id", "bank_id"); err != nil {
		return nil, 0, err
	}
	users, total, err := s.userRepo.GetUsers(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.UserResponseDTO, 0, len(users))
	for i := range users {
		result = append(result, userToResponse(&users[i]))
	}
	return result, total, nil
}

func (s *UserService) FindUser(ctx context.Context, id uint64) (*dto.UserResponseDTO, error) {
	if _, err := s.authorizeManage(ctx); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	res := userToResponse(user)
	return &res, nil
}

// validateUserRefs - уникальность email и существование банка.
func (s *UserService) validateUserRefs(ctx context.Context, email string, bankID *uint64, selfID uint64) error {
	fieldErrors := map[string][]string{}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != selfID:
		fieldErrors["email"] = []string{"Такой email уже используется"}
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		return err
	}

	if bankID != nil {
		if _, err := s.bankRepo.FindBank(ctx, *bankID); err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			fieldErrors["bank_id"] = []string{"Выбранный банк не существует"}
		}
	}

	for _, field := range []string{"email", "bank_id"} {
		if msgs, ok := fieldErrors[field]; ok {
			return apperrors.NewValidationError(msgs[0], map[string]interface{}{"errors": fieldErrors})
		}
	}
	return nil
}

func (s *UserService) CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserResponseDTO, error) {
	actor, err := s.authorizeManage(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role == constants.RoleManager && payload.Role == constants.RoleAdmin {
		return nil, apperrors.NewForbiddenError("Менеджер не может создавать админов")
	}
	if err := s.validateUserRefs(ctx, payload.Email, payload.BankID, 0); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}

	isActive := true
	if payload.IsActive != nil {
		isActive = *payload.IsActive
	}

	created, err := s.userRepo.CreateUser(ctx, &entities.User{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: hashed,
		Phone:    payload.Phone,
		Role:     payload.Role,
		BankID:   payload.BankID,
		IsActive: isActive,
		Note:     payload.Note,
	})
	if err != nil {
		return nil, err
	}

	if err := s.activityLog.RecordCreated(ctx, nil, constants.LogNameUser, created.ID, userActivityAttributes(created)); err != nil {
		s.logger.Warn("Пользователь создан без записи в журнале", zap.Uint64("userID", created.ID))
	}
	s.logger.Info("Пользователь создан", zap.Uint64("userID", created.ID), zap.Uint64("actorID", actor.ID))

	res := userToResponse(created)
	return &res, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*dto.UserResponseDTO, error) {
	actor, err := s.authorizeManage(ctx)
	if err != nil {
		return nil, err
	}
	current, err := s.userRepo.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == constants.RoleManager && (payload.Role == constants.RoleAdmin || current.Role == constants.RoleAdmin) {
		return nil, apperrors.NewForbiddenError("Менеджер не может изменять админов")
	}
	if err := s.validateUserRefs(ctx, payload.Email, payload.BankID, id); err != nil {
		return nil, err
	}

	old := userActivityAttributes(current)
	updated := *current
	updated.Name = payload.Name
	updated.Email = payload.Email
	updated.Phone = payload.Phone
	updated.Role = payload.Role
	updated.BankID = payload.BankID
	updated.Note = payload.Note
	updated.Password = ""
	if payload.IsActive != nil {
		updated.IsActive = *payload.IsActive
	}
	if payload.Password != nil && *payload.Password != "" {
		hashed, err := utils.HashPassword(*payload.Password)
		if err != nil {
			return nil, err
		}
		updated.Password = hashed
	}

	saved, err := s.userRepo.UpdateUser(ctx, &updated)
	if err != nil {
		return nil, err
	}
	if err := s.activityLog.RecordUpdated(ctx, nil, constants.LogNameUser, id, old, userActivityAttributes(saved)); err != nil {
		s.logger.Warn("Изменение пользователя не попало в журнал", zap.Uint64("userID", id))
	}

	res := userToResponse(saved)
	return &res, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	actor, err := s.authorizeManage(ctx)
	if err != nil {
		return err
	}
	user, err := s.userRepo.FindUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == constants.RoleAdmin && actor.Role != constants.RoleAdmin {
		return apperrors.NewForbiddenError("Менеджер не может удалять админов")
	}

	// подсчёт и удаление идут под блокировкой строк админов
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if user.Role == constants.RoleAdmin {
			admins, err := s.userRepo.LockRole(ctx, tx, constants.RoleAdmin)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return apperrors.NewBadRequestError("Нельзя удалить последнего администратора")
			}
		}
		if err := s.userRepo.DeleteUser(ctx, tx, id); err != nil {
			return err
		}
		return s.activityLog.RecordDeleted(ctx, tx, constants.LogNameUser, id, userActivityAttributes(user))
	})
	if err != nil {
		return err
	}
	s.logger.Info("Пользователь удалён", zap.Uint64("userID", id), zap.Uint64("actorID", actor.ID))
	return nil
}

// RegenerateBankKey выдаёт новый ключ доступа банковскому пользователю.
// В базе хранится только bcrypt-хеш, открытый ключ возвращается один раз.
func (s *UserService) RegenerateBankKey(ctx context.Context, id uint64) (*dto.BankKeyResponseDTO, error) {
	actor, err := s.Authorize(ctx, authz.UsersBankKey, nil)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role != constants.RoleBank {
		return nil, apperrors.NewValidationError("Ключ доступа выдаётся только банковским пользователям", nil)
	}

	key := utils.GenerateAccessKey()
	hash, err := utils.HashPassword(key)
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(s.bankKeyTTL)
	if err := s.userRepo.SetBankAccessKey(ctx, id, hash, expiresAt); err != nil {
		return nil, err
	}
	s.logger.Info("Выдан новый ключ доступа банка", zap.Uint64("userID", id), zap.Uint64("actorID", actor.ID))
	return &dto.BankKeyResponseDTO{BankAccessKey: key, ExpiresAt: expiresAt}, nil
}

func (s *UserService) currentCourier(ctx context.Context) (*entities.User, error) {
	actor, err := s.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role != constants.RoleCourier {
		return nil, apperrors.NewHttpError(http.StatusForbidden, "Доступ разрешен только для курьеров", apperrors.ErrForbidden, nil)
	}
	return actor, nil
}

func (s *UserService) GetProfile(ctx context.Context) (*dto.ProfileResponseDTO, error) {
	courier, err := s.currentCourier(ctx)
	if err != nil {
		return nil, err
	}
	return profileToResponse(courier), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, payload dto.UpdateProfileDTO) (*dto.ProfileResponseDTO, error) {
	courier, err := s.currentCourier(ctx)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if payload.Name.Valid {
		fields["name"] = payload.Name.String
	}
	if payload.Phone.Valid {
		fields["phone"] = nullableString(payload.Phone)
	}
	if payload.Note.Valid {
		fields["note"] = nullableString(payload.Note)
	}
	if len(fields) == 0 {
		return profileToResponse(courier), nil
	}

	old := userActivityAttributes(courier)
	if err := s.userRepo.UpdateUserFields(ctx, courier.ID, fields); err != nil {
		return nil, err
	}
	updated, err := s.userRepo.FindUser(ctx, courier.ID)
	if err != nil {
		return nil, err
	}
	if err := s.activityLog.RecordUpdated(ctx, nil, constants.LogNameUser, courier.ID, old, userActivityAttributes(updated)); err != nil {
		s.logger.Warn("Изменение профиля не попало в журнал", zap.Uint64("userID", courier.ID))
	}
	return profileToResponse(updated), nil
}

// nullableString - пустая строка из PATCH сохраняется как NULL.
func nullableString(v null.String) *string {
	if !v.Valid || v.String == "" {
		return nil
	}
	return &v.String
}
