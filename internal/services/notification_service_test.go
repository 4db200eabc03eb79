package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	"delivery-system/pkg/onesignal"
	"delivery-system/pkg/types"
)

type mockNotificationRepo struct{ mock.Mock }

func (m *mockNotificationRepo) CreateNotification(ctx context.Context, n *entities.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockNotificationRepo) GetByUser(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Notification, uint64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]entities.Notification), args.Get(1).(uint64), args.Error(2)
}

type fakePush struct {
	enabled bool
	err     error
	sent    []onesignal.Message
}

func (p *fakePush) Enabled() bool { return p.enabled }

func (p *fakePush) Send(_ context.Context, msg onesignal.Message) error {
	p.sent = append(p.sent, msg)
	return p.err
}

func TestNotificationService_SendPush(t *testing.T) {
	playerID := "player-1"
	withDevice := &entities.User{ID: 5, Role: "courier", IsActive: true, OneSignalPlayerID: &playerID}
	noDevice := &entities.User{ID: 6, Role: "courier", IsActive: true}

	t.Run("сохраняет и отправляет", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("FindUser", mock.Anything, uint64(5)).Return(withDevice, nil)
		repo := new(mockNotificationRepo)
		repo.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n *entities.Notification) bool {
			var data map[string]interface{}
			return json.Unmarshal(n.Data, &data) == nil && n.UserID == 5 && n.Title == "Новый заказ" && data["order_id"] == float64(9)
		})).Return(nil).Once()
		push := &fakePush{enabled: true}
		svc := NewNotificationService(newTestBase(users), repo, push)

		err := svc.SendPush(context.Background(), 5, PushNotification{
			Title: "Новый заказ",
			Body:  "Вам назначен заказ",
			Data:  map[string]interface{}{"order_id": uint64(9)},
			Store: true,
		})
		require.NoError(t, err)
		require.Len(t, push.sent, 1)
		assert.Equal(t, []string{"player-1"}, push.sent[0].PlayerIDs)
		repo.AssertExpectations(t)
	})

	t.Run("без устройства только лента", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("FindUser", mock.Anything, uint64(6)).Return(noDevice, nil)
		repo := new(mockNotificationRepo)
		repo.On("CreateNotification", mock.Anything, mock.Anything).Return(nil).Once()
		push := &fakePush{enabled: true}
		svc := NewNotificationService(newTestBase(users), repo, push)

		require.NoError(t, svc.SendPush(context.Background(), 6, PushNotification{Title: "t", Store: true}))
		assert.Empty(t, push.sent)
		repo.AssertExpectations(t)
	})

	t.Run("OneSignal выключен", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("FindUser", mock.Anything, uint64(5)).Return(withDevice, nil)
		repo := new(mockNotificationRepo)
		push := &fakePush{enabled: false}
		svc := NewNotificationService(newTestBase(users), repo, push)

		require.NoError(t, svc.SendPush(context.Background(), 5, PushNotification{Title: "t"}))
		assert.Empty(t, push.sent)
		repo.AssertNotCalled(t, "CreateNotification", mock.Anything, mock.Anything)
	})

	t.Run("ошибка отправки возвращается", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("FindUser", mock.Anything, uint64(5)).Return(withDevice, nil)
		push := &fakePush{enabled: true, err: errors.New("503")}
		svc := NewNotificationService(newTestBase(users), new(mockNotificationRepo), push)

		assert.Error(t, svc.SendPush(context.Background(), 5, PushNotification{Title: "t"}))
	})
}

func TestNotificationService_GetMyNotifications(t *testing.T) {
	users := new(mockUserRepo)
	users.On("FindUser", mock.Anything, courierUser.ID).Return(courierUser, nil)
	repo := new(mockNotificationRepo)
	filter := types.Filter{Limit: 20, Page: 1, WithPagination: true}
	repo.On("GetByUser", mock.Anything, courierUser.ID, filter).Return([]entities.Notification{
		{ID: 2, UserID: courierUser.ID, Title: "Новый заказ"},
		{ID: 1, UserID: courierUser.ID, Title: "Статус", Data: json.RawMessage(`{"order_id":3}`)},
	}, uint64(2), nil)
	svc := NewNotificationService(newTestBase(users), repo, nil)

	list, total, err := svc.GetMyNotifications(actorCtx(courierUser), filter)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	require.Len(t, list, 2)
	assert.JSONEq(t, `{}`, string(list[0].Data))
	assert.JSONEq(t, `{"order_id":3}`, string(list[1].Data))
}

func TestMaintenanceService_CleanupOrphanedOrderLogs(t *testing.T) {
	repo := new(mockActivityLogRepo)
	repo.On("FindOrphaned", mock.Anything, "order").Return([]entities.ActivityLog{{ID: 3}, {ID: 8}}, nil).Once()
	repo.On("DeleteByIDs", mock.Anything, []uint64{3, 8}).Return(int64(2), nil).Once()
	svc := NewMaintenanceService(repo, nil, zap.NewNop())

	deleted, err := svc.CleanupOrphanedOrderLogs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	repo.AssertExpectations(t)
}

func TestMaintenanceService_CleanupNothingToDelete(t *testing.T) {
	repo := new(mockActivityLogRepo)
	repo.On("FindOrphaned", mock.Anything, "order").Return([]entities.ActivityLog{}, nil).Once()
	svc := NewMaintenanceService(repo, nil, zap.NewNop())

	deleted, err := svc.CleanupOrphanedOrderLogs(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
	repo.AssertNotCalled(t, "DeleteByIDs", mock.Anything, mock.Anything)
}
