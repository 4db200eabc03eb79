package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/utils"
)

type OrderCommentServiceInterface interface {
	GetComments(ctx context.Context, orderID uint64) ([]dto.CommentResponseDTO, error)
	CreateComment(ctx context.Context, orderID uint64, payload dto.CreateCommentDTO) (*dto.CommentResponseDTO, error)
	UpdateComment(ctx context.Context, orderID, commentID uint64, payload dto.UpdateCommentDTO) (*dto.CommentResponseDTO, error)
	DeleteComment(ctx context.Context, orderID, commentID uint64) error
	CourierComments(ctx context.Context) (*dto.CourierCommentsDTO, error)
}

type OrderCommentService struct {
	*BaseService
	orderRepo   repositories.OrderRepositoryInterface
	commentRepo repositories.OrderCommentRepositoryInterface
}

func NewOrderCommentService(
	base *BaseService,
	orderRepo repositories.OrderRepositoryInterface,
	commentRepo repositories.OrderCommentRepositoryInterface,
) OrderCommentServiceInterface {
	return &OrderCommentService{BaseService: base, orderRepo: orderRepo, commentRepo: commentRepo}
}

func commentToResponse(c *repositories.CommentWithAuthor) dto.CommentResponseDTO {
	res := dto.CommentResponseDTO{
		ID:          c.ID,
		OrderID:     c.OrderID,
		UserID:      c.UserID,
		Comment:     c.Comment,
		IsCompleted: c.IsCompleted,
		CompletedAt: c.CompletedAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		User:        dto.ShortUserWithRoleDTO{ID: c.UserID, Role: c.AuthorRole},
	}
	if c.User != nil {
		res.User.Name = c.User.Name
	}
	if c.OrderNumber != nil || c.BankName != nil {
		res.Order = &dto.CommentOrderDTO{
			ID:          c.OrderID,
			OrderNumber: c.OrderNumber,
			BankName:    utils.SafeDeref(c.BankName),
		}
	}
	return res
}

// orderForComments - заказ, к комментариям которого у актёра есть доступ.
func (s *OrderCommentService) orderForComments(ctx context.Context, orderID uint64) (*entities.User, *entities.Order, error) {
	actor, err := s.CurrentActor(ctx)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.orderRepo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if !s.gatekeeper.CanViewOrder(actor, order) {
		return nil, nil, apperrors.ErrForbidden
	}
	return actor, order, nil
}

// commentOfOrder загружает комментарий и проверяет, что он принадлежит заказу.
func (s *OrderCommentService) commentOfOrder(ctx context.Context, actor *entities.User, orderID, commentID uint64) (*repositories.CommentWithAuthor, error) {
	comment, err := s.commentRepo.FindComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.OrderID != orderID {
		return nil, apperrors.ErrNotFound
	}
	if !s.gatekeeper.Can(actor, authz.CommentsManage, &comment.OrderComment) {
		return nil, apperrors.NewForbiddenError("Редактировать комментарий может только автор")
	}
	return comment, nil
}

func (s *OrderCommentService) GetComments(ctx context.Context, orderID uint64) ([]dto.CommentResponseDTO, error) {
	if _, _, err := s.orderForComments(ctx, orderID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.CommentResponseDTO, 0, len(comments))
	for i := range comments {
		result = append(result, commentToResponse(&comments[i]))
	}
	return result, nil
}

func (s *OrderCommentService) CreateComment(ctx context.Context, orderID uint64, payload dto.CreateCommentDTO) (*dto.CommentResponseDTO, error) {
	actor, _, err := s.orderForComments(ctx, orderID)
	if err != nil {
		return nil, err
	}
	id, err := s.commentRepo.CreateComment(ctx, &entities.OrderComment{
		OrderID: orderID,
		UserID:  actor.ID,
		Comment: payload.Comment,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Добавлен комментарий к заказу", zap.Uint64("orderID", orderID), zap.Uint64("userID", actor.ID))
	return s.reload(ctx, id)
}

// UpdateComment - отметка выполнения ставит completed_at, снятие отметки очищает его.
func (s *OrderCommentService) UpdateComment(ctx context.Context, orderID, commentID uint64, payload dto.UpdateCommentDTO) (*dto.CommentResponseDTO, error) {
	actor, _, err := s.orderForComments(ctx, orderID)
	if err != nil {
		return nil, err
	}
	comment, err := s.commentOfOrder(ctx, actor, orderID, commentID)
	if err != nil {
		return nil, err
	}

	updated := comment.OrderComment
	if payload.Comment.Valid {
		if payload.Comment.String == "" {
			return nil, fieldError("comment", "Поле comment обязательно для заполнения")
		}
		updated.Comment = payload.Comment.String
	}
	if payload.IsCompleted.Valid && payload.IsCompleted.Bool != updated.IsCompleted {
		updated.IsCompleted = payload.IsCompleted.Bool
		if updated.IsCompleted {
			updated.CompletedAt = utils.ToPtr(time.Now())
		} else {
			updated.CompletedAt = nil
		}
	}
	if err := s.commentRepo.UpdateComment(ctx, &updated); err != nil {
		return nil, err
	}
	return s.reload(ctx, commentID)
}

func (s *OrderCommentService) DeleteComment(ctx context.Context, orderID, commentID uint64) error {
	actor, _, err := s.orderForComments(ctx, orderID)
	if err != nil {
		return err
	}
	if _, err := s.commentOfOrder(ctx, actor, orderID, commentID); err != nil {
		return err
	}
	if err := s.commentRepo.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	s.logger.Info("Комментарий удалён", zap.Uint64("commentID", commentID), zap.Uint64("userID", actor.ID))
	return nil
}

// CourierComments - все комментарии на заказах курьера со счётчиком невыполненных.
func (s *OrderCommentService) CourierComments(ctx context.Context) (*dto.CourierCommentsDTO, error) {
	actor, err := s.Authorize(ctx, authz.OrdersCourierWork, nil)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.GetByCourier(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	res := &dto.CourierCommentsDTO{Comments: make([]dto.CommentResponseDTO, 0, len(comments))}
	for i := range comments {
		res.Comments = append(res.Comments, commentToResponse(&comments[i]))
		if !comments[i].IsCompleted {
			res.Uncompleted++
		}
	}
	res.Total = len(comments)
	return res, nil
}

func (s *OrderCommentService) reload(ctx context.Context, id uint64) (*dto.CommentResponseDTO, error) {
	comment, err := s.commentRepo.FindComment(ctx, id)
	if err != nil {
		return nil, err
	}
	res := commentToResponse(comment)
	return &res, nil
}
