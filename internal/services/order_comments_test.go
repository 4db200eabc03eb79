package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	apperrors "delivery-system/pkg/errors"
)

type mockCommentRepo struct{ mock.Mock }

func (m *mockCommentRepo) GetByOrder(ctx context.Context, orderID uint64) ([]repositories.CommentWithAuthor, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]repositories.CommentWithAuthor), args.Error(1)
}

func (m *mockCommentRepo) GetByCourier(ctx context.Context, courierID uint64) ([]repositories.CommentWithAuthor, error) {
	args := m.Called(ctx, courierID)
	return args.Get(0).([]repositories.CommentWithAuthor), args.Error(1)
}

func (m *mockCommentRepo) FindComment(ctx context.Context, id uint64) (*repositories.CommentWithAuthor, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*repositories.CommentWithAuthor), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCommentRepo) CreateComment(ctx context.Context, comment *entities.OrderComment) (uint64, error) {
	args := m.Called(ctx, comment)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockCommentRepo) UpdateComment(ctx context.Context, comment *entities.OrderComment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *mockCommentRepo) DeleteComment(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

func newCommentFixture(actors ...*entities.User) (*mockOrderRepo, *mockCommentRepo, OrderCommentServiceInterface) {
	users := new(mockUserRepo)
	for _, a := range actors {
		users.On("FindUser", mock.Anything, a.ID).Return(a, nil)
	}
	orders := new(mockOrderRepo)
	comments := new(mockCommentRepo)
	return orders, comments, NewOrderCommentService(newTestBase(users), orders, comments)
}

func courierOrderEntity() *entities.Order {
	return &entities.Order{ID: 3, BankID: 7, CourierID: uptr(courierUser.ID)}
}

func TestOrderCommentService_CourierCreatesOnOwnOrder(t *testing.T) {
	orders, comments, svc := newCommentFixture(courierUser)
	orders.On("FindOrder", mock.Anything, uint64(3)).Return(courierOrderEntity(), nil)
	comments.On("CreateComment", mock.Anything, mock.MatchedBy(func(c *entities.OrderComment) bool {
		return c.OrderID == 3 && c.UserID == courierUser.ID && c.Comment == "Клиент не отвечает"
	})).Return(uint64(11), nil)
	comments.On("FindComment", mock.Anything, uint64(11)).Return(&repositories.CommentWithAuthor{
		OrderComment: entities.OrderComment{ID: 11, OrderID: 3, UserID: courierUser.ID, Comment: "Клиент не отвечает"},
		AuthorRole:   "courier",
	}, nil)

	res, err := svc.CreateComment(actorCtx(courierUser), 3, dto.CreateCommentDTO{Comment: "Клиент не отвечает"})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), res.ID)
	assert.Equal(t, "courier", res.User.Role)
}

func TestOrderCommentService_ForeignOrderForbidden(t *testing.T) {
	orders, _, svc := newCommentFixture(courierUser)
	orders.On("FindOrder", mock.Anything, uint64(4)).Return(&entities.Order{ID: 4, BankID: 7, CourierID: uptr(99)}, nil)

	_, err := svc.GetComments(actorCtx(courierUser), 4)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestOrderCommentService_UpdateComment(t *testing.T) {
	authored := func() *repositories.CommentWithAuthor {
		return &repositories.CommentWithAuthor{OrderComment: entities.OrderComment{ID: 11, OrderID: 3, UserID: adminUser.ID, Comment: "Позвонить"}}
	}

	t.Run("курьер не правит чужой комментарий", func(t *testing.T) {
		orders, comments, svc := newCommentFixture(courierUser)
		orders.On("FindOrder", mock.Anything, uint64(3)).Return(courierOrderEntity(), nil)
		comments.On("FindComment", mock.Anything, uint64(11)).Return(authored(), nil)

		_, err := svc.UpdateComment(actorCtx(courierUser), 3, 11, dto.UpdateCommentDTO{Comment: null.StringFrom("x")})
		requireHTTPCode(t, err, http.StatusForbidden)
	})

	t.Run("комментарий другого заказа", func(t *testing.T) {
		orders, comments, svc := newCommentFixture(adminUser)
		orders.On("FindOrder", mock.Anything, uint64(5)).Return(&entities.Order{ID: 5}, nil)
		comments.On("FindComment", mock.Anything, uint64(11)).Return(authored(), nil)

		err := svc.DeleteComment(actorCtx(adminUser), 5, 11)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("отметка выполнения ставит дату", func(t *testing.T) {
		orders, comments, svc := newCommentFixture(adminUser)
		orders.On("FindOrder", mock.Anything, uint64(3)).Return(courierOrderEntity(), nil)
		comments.On("FindComment", mock.Anything, uint64(11)).Return(authored(), nil)
		comments.On("UpdateComment", mock.Anything, mock.MatchedBy(func(c *entities.OrderComment) bool {
			return c.IsCompleted && c.CompletedAt != nil && c.Comment == "Позвонить"
		})).Return(nil).Once()

		_, err := svc.UpdateComment(actorCtx(adminUser), 3, 11, dto.UpdateCommentDTO{IsCompleted: null.BoolFrom(true)})
		require.NoError(t, err)
		comments.AssertExpectations(t)
	})

	t.Run("пустой текст", func(t *testing.T) {
		orders, comments, svc := newCommentFixture(adminUser)
		orders.On("FindOrder", mock.Anything, uint64(3)).Return(courierOrderEntity(), nil)
		comments.On("FindComment", mock.Anything, uint64(11)).Return(authored(), nil)

		_, err := svc.UpdateComment(actorCtx(adminUser), 3, 11, dto.UpdateCommentDTO{Comment: null.StringFrom("")})
		requireHTTPCode(t, err, http.StatusUnprocessableEntity)
	})
}

func TestOrderCommentService_CourierComments(t *testing.T) {
	_, comments, svc := newCommentFixture(courierUser, adminUser)
	comments.On("GetByCourier", mock.Anything, courierUser.ID).Return([]repositories.CommentWithAuthor{
		{OrderComment: entities.OrderComment{ID: 1, OrderID: 3, IsCompleted: true}},
		{OrderComment: entities.OrderComment{ID: 2, OrderID: 3}},
		{OrderComment: entities.OrderComment{ID: 3, OrderID: 4}},
	}, nil)

	res, err := svc.CourierComments(actorCtx(courierUser))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Uncompleted)

	_, err = svc.CourierComments(actorCtx(adminUser))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
