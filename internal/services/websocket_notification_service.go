package services

import (
	"go.uber.org/zap"

	"delivery-system/pkg/constants"
	"delivery-system/pkg/websocket"
)

type WebSocketNotificationServiceInterface interface {
	SendNotification(userID uint64, payload interface{}, messageType string) error
	// NotifyStaff рассылает сообщение админам и менеджерам, а также сотрудникам банка bankID.
	NotifyStaff(payload interface{}, messageType string, bankID *uint64) int
}

type WebSocketNotificationService struct {
	hub    *websocket.Hub
	logger *zap.Logger
}

func NewWebSocketNotificationService(hub *websocket.Hub, logger *zap.Logger) WebSocketNotificationServiceInterface {
	return &WebSocketNotificationService{hub: hub, logger: logger}
}

func (s *WebSocketNotificationService) SendNotification(userID uint64, payload interface{}, messageType string) error {
	err := s.hub.SendMessageToUser(userID, payload, messageType)
	if err != nil {
		s.logger.Debug("Пользователь не в сети, WS-сообщение не доставлено",
			zap.Uint64("userID", userID), zap.String("type", messageType))
	}
	return err
}

func (s *WebSocketNotificationService) NotifyStaff(payload interface{}, messageType string, bankID *uint64) int {
	sent, err := s.hub.SendToRoles(payload, messageType, nil, constants.RoleAdmin, constants.RoleManager)
	if err != nil {
		s.logger.Error("Не удалось разослать WS-сообщение", zap.String("type", messageType), zap.Error(err))
		return 0
	}
	if bankID != nil {
		toBank, err := s.hub.SendToRoles(payload, messageType, bankID, constants.RoleBank)
		if err != nil {
			s.logger.Error("Не удалось разослать WS-сообщение банку", zap.String("type", messageType), zap.Error(err))
		}
		sent += toBank
	}
	return sent
}
