package services

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/onesignal"
	"delivery-system/pkg/types"
)

// PushNotification - push-уведомление одному пользователю.
type PushNotification struct {
	Title string
	Body  string
	Data  map[string]interface{}
	// Store - сохранить уведомление в ленту пользователя.
	Store bool
}

type NotificationServiceInterface interface {
	SendPush(ctx context.Context, userID uint64, push PushNotification) error
	GetMyNotifications(ctx context.Context, filter types.Filter) ([]dto.NotificationResponseDTO, uint64, error)
}

type NotificationService struct {
	*BaseService
	notificationRepo repositories.NotificationRepositoryInterface
	push             onesignal.ServiceInterface
}

func NewNotificationService(
	base *BaseService,
	notificationRepo repositories.NotificationRepositoryInterface,
	push onesignal.ServiceInterface,
) NotificationServiceInterface {
	return &NotificationService{
		BaseService:      base,
		notificationRepo: notificationRepo,
		push:             push,
	}
}

// SendPush отправляет push на устройство пользователя. Уведомление пишется в ленту
// даже если у пользователя нет player id или OneSignal выключен.
func (s *NotificationService) SendPush(ctx context.Context, userID uint64, push PushNotification) error {
	user, err := s.userRepo.FindUser(ctx, userID)
	if err != nil {
		return err
	}

	if push.Store {
		data, err := json.Marshal(push.Data)
		if err != nil {
			return err
		}
		if push.Data == nil {
			data = []byte("{}")
		}
		n := &entities.Notification{UserID: userID, Title: push.Title, Body: push.Body, Data: data}
		if err := s.notificationRepo.CreateNotification(ctx, n); err != nil {
			s.logger.Error("Не удалось сохранить уведомление", zap.Uint64("userID", userID), zap.Error(err))
			return err
		}
	}

	if user.OneSignalPlayerID == nil || *user.OneSignalPlayerID == "" {
		s.logger.Debug("У пользователя нет OneSignal player id, push пропущен", zap.Uint64("userID", userID))
		return nil
	}
	if s.push == nil || !s.push.Enabled() {
		return nil
	}

	err = s.push.Send(ctx, onesignal.Message{
		PlayerIDs: []string{*user.OneSignalPlayerID},
		Heading:   push.Title,
		Content:   push.Body,
		Data:      push.Data,
	})
	if err != nil && !errors.Is(err, onesignal.ErrNotConfigured) {
		s.logger.Warn("Push не отправлен", zap.Uint64("userID", userID), zap.Error(err))
		return err
	}
	return nil
}

// GetMyNotifications - лента уведомлений текущего пользователя, новые первыми.
func (s *NotificationService) GetMyNotifications(ctx context.Context, filter types.Filter) ([]dto.NotificationResponseDTO, uint64, error) {
	actor, err := s.CurrentActor(ctx)
	if err != nil {
		return nil, 0, err
	}
	list, total, err := s.notificationRepo.GetByUser(ctx, actor.ID, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.NotificationResponseDTO, 0, len(list))
	for _, n := range list {
		data := n.Data
		if len(data) == 0 {
			data = json.RawMessage("{}")
		}
		result = append(result, dto.NotificationResponseDTO{
			ID:        n.ID,
			Title:     n.Title,
			Body:      n.Body,
			Data:      data,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return result, total, nil
}
