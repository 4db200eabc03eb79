package listeners

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/events"
	"delivery-system/internal/repositories"
	"delivery-system/internal/services"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/eventbus"
	"delivery-system/pkg/types"
	"delivery-system/pkg/websocket"
)

type sentPush struct {
	UserID uint64
	Push   services.PushNotification
}

type fakeNotifications struct {
	mu     sync.Mutex
	pushes []sentPush
}

func (f *fakeNotifications) SendPush(_ context.Context, userID uint64, push services.PushNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, sentPush{UserID: userID, Push: push})
	return nil
}

func (f *fakeNotifications) GetMyNotifications(context.Context, types.Filter) ([]dto.NotificationResponseDTO, uint64, error) {
	return nil, 0, nil
}

type staffMessage struct {
	Payload interface{}
	Type    string
	BankID  *uint64
}

type fakeWS struct {
	mu       sync.Mutex
	messages []staffMessage
}

func (f *fakeWS) SendNotification(uint64, interface{}, string) error { return nil }

func (f *fakeWS) NotifyStaff(payload interface{}, messageType string, bankID *uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, staffMessage{Payload: payload, Type: messageType, BankID: bankID})
	return 1
}

// stubUsers отвечает только на FindUser; остальные методы не вызываются.
type stubUsers struct {
	repositories.UserRepositoryInterface
	users map[uint64]*entities.User
}

func (s *stubUsers) FindUser(_ context.Context, id uint64) (*entities.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrNotFound
}

type stubStatuses struct {
	repositories.OrderStatusRepositoryInterface
}

func (stubStatuses) FindStatus(_ context.Context, id uint64) (*entities.OrderStatus, error) {
	titles := map[uint64]string{4: "Завершено", 6: "Отменено"}
	if t, ok := titles[id]; ok {
		return &entities.OrderStatus{ID: id, Title: t}, nil
	}
	return nil, apperrors.ErrNotFound
}

func newTestListener() (*NotificationListener, *fakeNotifications, *fakeWS) {
	notifications := &fakeNotifications{}
	ws := &fakeWS{}
	users := &stubUsers{users: map[uint64]*entities.User{
		1: {ID: 1, Name: "Менеджер Али", Role: constants.RoleManager},
		5: {ID: 5, Name: "Курьер Саид", Role: constants.RoleCourier},
	}}
	l := NewNotificationListener(notifications, ws, users, stubStatuses{}, zap.NewNop())
	fixed := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	return l, notifications, ws
}

func testOrder() *entities.Order {
	number := "AL00001"
	courierID := uint64(5)
	return &entities.Order{ID: 9, BankID: 7, OrderNumber: &number, CourierID: &courierID, Product: "Карта", Address: "ул. Рудаки, 1"}
}

func TestNotificationListener_StatusChangedByManager(t *testing.T) {
	l, notifications, ws := newTestListener()

	err := l.handleStatusChanged(context.Background(), events.OrderStatusChangedEvent{
		Order:       testOrder(),
		OldStatusID: 2,
		NewStatusID: 4,
		ActorID:     1,
		ActorRole:   constants.RoleManager,
	})
	require.NoError(t, err)

	require.Len(t, ws.messages, 1)
	msg := ws.messages[0]
	assert.Equal(t, websocket.MessageOrderStatusChanged, msg.Type)
	require.NotNil(t, msg.BankID)
	assert.Equal(t, uint64(7), *msg.BankID)
	payload, ok := msg.Payload.(websocket.OrderStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, "Завершено", payload.NewStatus)
	assert.Equal(t, "Менеджер Али", payload.ChangedByName)
	assert.Equal(t, uint64(2), payload.OldStatusID)

	require.Len(t, notifications.pushes, 1)
	assert.Equal(t, uint64(5), notifications.pushes[0].UserID)
	assert.Equal(t, "Статус заказа изменён", notifications.pushes[0].Push.Title)
	assert.Contains(t, notifications.pushes[0].Push.Body, "AL00001")
	assert.False(t, notifications.pushes[0].Push.Store)
}

func TestNotificationListener_StatusChangedByCourierNoPush(t *testing.T) {
	l, notifications, ws := newTestListener()

	err := l.handleStatusChanged(context.Background(), events.OrderStatusChangedEvent{
		Order:       testOrder(),
		OldStatusID: 2,
		NewStatusID: 6,
		ActorID:     5,
		ActorRole:   constants.RoleCourier,
	})
	require.NoError(t, err)
	assert.Len(t, ws.messages, 1)
	assert.Empty(t, notifications.pushes)
}

func TestNotificationListener_CourierAssignedStoresPush(t *testing.T) {
	l, notifications, _ := newTestListener()

	err := l.handleCourierAssigned(context.Background(), events.OrderCourierAssignedEvent{Order: testOrder(), CourierID: 5, ActorID: 1})
	require.NoError(t, err)

	require.Len(t, notifications.pushes, 1)
	push := notifications.pushes[0].Push
	assert.Equal(t, "Новый заказ", push.Title)
	assert.True(t, push.Store)
	assert.Equal(t, uint64(9), push.Data["order_id"])
}

func TestNotificationListener_WrongEventType(t *testing.T) {
	l, _, _ := newTestListener()
	err := l.handleCourierAssigned(context.Background(), events.OrderCreatedEvent{Order: testOrder()})
	assert.Error(t, err)
}

func TestNotificationListener_RegisteredOnBus(t *testing.T) {
	l, _, ws := newTestListener()
	bus := eventbus.New(zap.NewNop())
	l.Register(bus)

	bus.Publish(context.Background(), events.OrderCreatedEvent{Order: testOrder(), ActorID: 1})
	bus.Wait()

	ws.mu.Lock()
	defer ws.mu.Unlock()
	require.Len(t, ws.messages, 1)
	assert.Equal(t, websocket.MessageOrderCreated, ws.messages[0].Type)
}
