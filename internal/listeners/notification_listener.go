package listeners

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"delivery-system/internal/entities"
	"delivery-system/internal/events"
	"delivery-system/internal/repositories"
	"delivery-system/internal/services"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/eventbus"
	"delivery-system/pkg/websocket"
)

type NotificationListener struct {
	notificationService   services.NotificationServiceInterface
	wsNotificationService services.WebSocketNotificationServiceInterface
	userRepo              repositories.UserRepositoryInterface
	statusRepo            repositories.OrderStatusRepositoryInterface
	logger                *zap.Logger
	now                   func() time.Time
}

func NewNotificationListener(
	notificationService services.NotificationServiceInterface,
	wsNotificationService services.WebSocketNotificationServiceInterface,
	userRepo repositories.UserRepositoryInterface,
	statusRepo repositories.OrderStatusRepositoryInterface,
	logger *zap.Logger,
) *NotificationListener {
	return &NotificationListener{
		notificationService:   notificationService,
		wsNotificationService: wsNotificationService,
		userRepo:              userRepo,
		statusRepo:            statusRepo,
		logger:                logger,
		now:                   time.Now,
	}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.OrderCreated, l.handleOrderCreated)
	bus.Subscribe(events.OrderCourierAssigned, l.handleCourierAssigned)
	bus.Subscribe(events.OrderStatusChanged, l.handleStatusChanged)
	l.logger.Info("NotificationListener подписан на события заказов")
}

func orderNumber(order *entities.Order) string {
	if order.OrderNumber != nil && *order.OrderNumber != "" {
		return *order.OrderNumber
	}
	return fmt.Sprintf("#%d", order.ID)
}

func (l *NotificationListener) handleOrderCreated(_ context.Context, event eventbus.Event) error {
	e, ok := event.(events.OrderCreatedEvent)
	if !ok || e.Order == nil {
		return fmt.Errorf("неожиданный тип события %T", event)
	}
	bankID := e.Order.BankID
	l.wsNotificationService.NotifyStaff(map[string]interface{}{
		"order_id":     e.Order.ID,
		"order_number": e.Order.OrderNumber,
		"bank_id":      e.Order.BankID,
	}, websocket.MessageOrderCreated, &bankID)
	return nil
}

// handleCourierAssigned - курьеру приходит push "Новый заказ", запись остаётся в его ленте.
func (l *NotificationListener) handleCourierAssigned(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.OrderCourierAssignedEvent)
	if !ok || e.Order == nil {
		return fmt.Errorf("неожиданный тип события %T", event)
	}

	body := fmt.Sprintf("Вам назначен заказ %s: %s, %s", orderNumber(e.Order), e.Order.Product, e.Order.Address)
	err := l.notificationService.SendPush(ctx, e.CourierID, services.PushNotification{
		Title: "Новый заказ",
		Body:  body,
		Data: map[string]interface{}{
			"type":     events.OrderCourierAssigned,
			"order_id": e.Order.ID,
		},
		Store: true,
	})
	if err != nil {
		return fmt.Errorf("push курьеру %d: %w", e.CourierID, err)
	}
	l.logger.Info("Курьер уведомлён о назначении",
		zap.Uint64("orderID", e.Order.ID),
		zap.Uint64("courierID", e.CourierID),
	)
	return nil
}

// handleStatusChanged рассылает смену статуса по WS и уведомляет курьера,
// если статус поменял не он сам.
func (l *NotificationListener) handleStatusChanged(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.OrderStatusChangedEvent)
	if !ok || e.Order == nil {
		return fmt.Errorf("неожиданный тип события %T", event)
	}

	statusTitle := ""
	if e.Order.Status != nil && e.Order.Status.ID == e.NewStatusID {
		statusTitle = e.Order.Status.Title
	} else if status, err := l.statusRepo.FindStatus(ctx, e.NewStatusID); err == nil {
		statusTitle = status.Title
	}

	actorName := ""
	if actor, err := l.userRepo.FindUser(ctx, e.ActorID); err == nil {
		actorName = actor.Name
	} else {
		l.logger.Warn("Автор смены статуса не найден", zap.Uint64("userID", e.ActorID), zap.Error(err))
	}

	payload := websocket.OrderStatusChangedPayload{
		OrderID:       e.Order.ID,
		OrderNumber:   e.Order.OrderNumber,
		BankID:        e.Order.BankID,
		OldStatusID:   e.OldStatusID,
		NewStatusID:   e.NewStatusID,
		NewStatus:     statusTitle,
		ChangedByID:   e.ActorID,
		ChangedByName: actorName,
		ChangedAt:     l.now(),
	}
	bankID := e.Order.BankID
	sent := l.wsNotificationService.NotifyStaff(payload, websocket.MessageOrderStatusChanged, &bankID)
	l.logger.Debug("Смена статуса разослана по WS",
		zap.Uint64("orderID", e.Order.ID),
		zap.Int("clients", sent),
	)

	if e.Order.CourierID == nil || e.ActorRole == constants.RoleCourier || *e.Order.CourierID == e.ActorID {
		return nil
	}
	err := l.notificationService.SendPush(ctx, *e.Order.CourierID, services.PushNotification{
		Title: "Статус заказа изменён",
		Body:  fmt.Sprintf("Заказ %s: %s", orderNumber(e.Order), statusTitle),
		Data: map[string]interface{}{
			"type":      events.OrderStatusChanged,
			"order_id":  e.Order.ID,
			"status_id": e.NewStatusID,
		},
	})
	if err != nil {
		return fmt.Errorf("push курьеру %d: %w", *e.Order.CourierID, err)
	}
	return nil
}
