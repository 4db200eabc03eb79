package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/events"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/eventbus"
	"delivery-system/pkg/types"
	"delivery-system/pkg/utils"
)

// EventPublisher - то, что нужно сервисам от шины событий.
type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

type OrderServiceInterface interface {
	GetOrders(ctx context.Context, filter types.Filter) ([]dto.OrderResponseDTO, uint64, error)
	FindOrder(ctx context.Context, id uint64) (*dto.OrderResponseDTO, error)
	CreateOrder(ctx context.Context, payload dto.CreateOrderDTO) (*dto.OrderResponseDTO, error)
	UpdateOrder(ctx context.Context, id uint64, payload dto.UpdateOrderDTO) (*dto.OrderResponseDTO, error)
	ChangeStatus(ctx context.Context, id uint64, payload dto.ChangeOrderStatusDTO) (*dto.OrderResponseDTO, error)
	DeleteOrder(ctx context.Context, id uint64) error
	BulkDelete(ctx context.Context, ids []uint64) ([]uint64, error)
	BulkUpdate(ctx context.Context, payload dto.BulkUpdateOrdersDTO) ([]uint64, error)

	CourierOrders(ctx context.Context, filter types.Filter) ([]dto.OrderResponseDTO, uint64, error)
	CourierOrder(ctx context.Context, id uint64) (*dto.OrderResponseDTO, error)
	CourierChangeStatus(ctx context.Context, id uint64, payload dto.ChangeOrderStatusDTO) (*dto.OrderResponseDTO, error)
	SetCourierNote(ctx context.Context, id uint64, note *string) (*dto.OrderResponseDTO, error)
}

type OrderService struct {
	*BaseService
	txManager   repositories.TxManagerInterface
	orderRepo   repositories.OrderRepositoryInterface
	bankRepo    repositories.BankRepositoryInterface
	statusRepo  repositories.OrderStatusRepositoryInterface
	numberer    *OrderNumberer
	activityLog ActivityLogServiceInterface
	bus         EventPublisher
}

func NewOrderService(
	base *BaseService,
	txManager repositories.TxManagerInterface,
	orderRepo repositories.OrderRepositoryInterface,
	bankRepo repositories.BankRepositoryInterface,
	statusRepo repositories.OrderStatusRepositoryInterface,
	numberer *OrderNumberer,
	activityLog ActivityLogServiceInterface,
	bus EventPublisher,
) OrderServiceInterface {
	return &OrderService{
		BaseService: base,
		txManager:   txManager,
		orderRepo:   orderRepo,
		bankRepo:    bankRepo,
		statusRepo:  statusRepo,
		numberer:    numberer,
		activityLog: activityLog,
		bus:         bus,
	}
}

func orderToResponse(o *entities.Order) dto.OrderResponseDTO {
	res := dto.OrderResponseDTO{
		ID:             o.ID,
		BankID:         o.BankID,
		OrderNumber:    o.OrderNumber,
		Product:        o.Product,
		Name:           o.Name,
		Surname:        o.Surname,
		Patronymic:     o.Patronymic,
		Phone:          o.Phone,
		Address:        o.Address,
		DeliveryAt:     o.DeliveryAt,
		DeliveredAt:    o.DeliveredAt,
		CourierID:      o.CourierID,
		OrderStatusID:  o.OrderStatusID,
		Note:           o.Note,
		DeclinedReason: o.DeclinedReason,
		CourierNote:    o.CourierNote,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if o.Bank != nil {
		res.Bank = &dto.ShortBankDTO{ID: o.Bank.ID, Name: o.Bank.Name}
	}
	if o.Courier != nil {
		res.Courier = &dto.ShortUserDTO{ID: o.Courier.ID, Name: o.Courier.Name}
	}
	if o.Status != nil {
		res.Status = &dto.ShortStatusDTO{ID: o.Status.ID, Title: o.Status.Title, Color: o.Status.Color}
	}
	return res
}

func ordersToResponse(orders []entities.Order) []dto.OrderResponseDTO {
	result := make([]dto.OrderResponseDTO, 0, len(orders))
	for i := range orders {
		result = append(result, orderToResponse(&orders[i]))
	}
	return result
}

func fieldError(field, message string) error {
	return apperrors.NewValidationError(message, map[string]interface{}{
		"errors": map[string][]string{field: {message}},
	})
}

// statusChange - входные данные перехода статуса.
type statusChange struct {
	StatusID       uint64
	DeclinedReason *string
	DeliveryAt     *string
}

// validateStatusChange - перенос и отмена требуют причину, перенос ещё и новую дату.
func validateStatusChange(c statusChange) error {
	if !constants.RequiresDeclinedReason(c.StatusID) {
		return nil
	}
	if c.DeclinedReason == nil || *c.DeclinedReason == "" {
		return apperrors.NewValidationError("Причина отмены обязательна для выбранного статуса", nil)
	}
	if c.StatusID == constants.OrderStatusPostponed && (c.DeliveryAt == nil || *c.DeliveryAt == "") {
		return apperrors.NewValidationError("Новая дата обязательна для переноса", nil)
	}
	return nil
}

// statusFields - поля, которые меняются вместе со статусом заказа.
func statusFields(order *entities.Order, c statusChange, deliveredStatus uint64, now time.Time) (map[string]interface{}, error) {
	fields := map[string]interface{}{"order_status_id": c.StatusID}
	if constants.RequiresDeclinedReason(c.StatusID) && c.DeclinedReason != nil {
		fields["declined_reason"] = *c.DeclinedReason
	}
	if c.StatusID == constants.OrderStatusPostponed && c.DeliveryAt != nil {
		at, err := utils.ParseFlexibleDate(*c.DeliveryAt)
		if err != nil {
			return nil, fieldError("delivery_at", "Неверный формат даты доставки")
		}
		fields["delivery_at"] = at
	}
	if c.StatusID == deliveredStatus && order.DeliveredAt == nil {
		fields["delivered_at"] = now
	}
	return fields, nil
}

// applyFields переносит изменённые колонки на копию заказа для журнала и событий.
func applyFields(order entities.Order, fields map[string]interface{}) *entities.Order {
	for k, v := range fields {
		switch k {
		case "order_status_id":
			order.OrderStatusID = v.(uint64)
		case "declined_reason":
			order.DeclinedReason = utils.ToPtr(v.(string))
		case "delivery_at":
			order.DeliveryAt = v.(time.Time)
		case "delivered_at":
			if t, ok := v.(time.Time); ok {
				order.DeliveredAt = &t
			} else if t, ok := v.(*time.Time); ok {
				order.DeliveredAt = t
			}
		case "courier_id":
			if id, ok := v.(uint64); ok {
				order.CourierID = &id
			} else if id, ok := v.(*uint64); ok {
				order.CourierID = id
			}
		case "bank_id":
			order.BankID = v.(uint64)
		case "note":
			order.Note = nullableValue(v)
		case "courier_note":
			order.CourierNote = nullableValue(v)
		}
	}
	return &order
}

func nullableValue(v interface{}) *string {
	switch s := v.(type) {
	case string:
		return &s
	case *string:
		return s
	}
	return nil
}

func (s *OrderService) findStatus(ctx context.Context, id uint64) error {
	if _, err := s.statusRepo.FindStatus(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fieldError("order_status_id", "Выбранный статус не существует")
		}
		return err
	}
	return nil
}

func (s *OrderService) findBank(ctx context.Context, id uint64) (*entities.Bank, error) {
	bank, err := s.bankRepo.FindBank(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fieldError("bank_id", "Выбранный банк не существует")
		}
		return nil, err
	}
	return bank, nil
}

func (s *OrderService) checkCourier(ctx context.Context, id *uint64) error {
	if id == nil {
		return nil
	}
	courier, err := s.userRepo.FindUser(ctx, *id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fieldError("courier_id", "Выбранный курьер не существует")
		}
		return err
	}
	if courier.Role != constants.RoleCourier {
		return fieldError("courier_id", "Выбранный пользователь не является курьером")
	}
	return nil
}

// loadOrder загружает заказ и проверяет право permission на него.
func (s *OrderService) loadOrder(ctx context.Context, id uint64, permission string) (*entities.User, *entities.Order, error) {
	actor, err := s.CurrentActor(ctx)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.orderRepo.FindOrder(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !s.gatekeeper.Can(actor, permission, order) {
		s.logger.Warn("Нет доступа к заказу",
			zap.Uint64("orderID", id),
			zap.Uint64("userID", actor.ID),
			zap.String("permission", permission),
		)
		return nil, nil, apperrors.ErrForbidden
	}
	return actor, order, nil
}

func (s *OrderService) reload(ctx context.Context, id uint64) (*dto.OrderResponseDTO, error) {
	order, err := s.orderRepo.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	res := orderToResponse(order)
	return &res, nil
}

// publishChanges - события о смене курьера и статуса после коммита.
func (s *OrderService) publishChanges(ctx context.Context, before, after *entities.Order, actor *entities.User) {
	if s.bus == nil {
		return
	}
	if after.CourierID != nil && (before.CourierID == nil || *before.CourierID != *after.CourierID) {
		s.bus.Publish(ctx, events.OrderCourierAssignedEvent{Order: after, CourierID: *after.CourierID, ActorID: actor.ID})
	}
	if before.OrderStatusID != after.OrderStatusID {
		s.bus.Publish(ctx, events.OrderStatusChangedEvent{
			Order:       after,
			OldStatusID: before.OrderStatusID,
			NewStatusID: after.OrderStatusID,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
		})
	}
}

func (s *OrderService) GetOrders(ctx context.Context, filter types.Filter) ([]dto.OrderResponseDTO, uint64, error) {
	actor, err := s.Authorize(ctx, authz.OrdersView, nil)
	if err != nil {
		return nil, 0, err
	}
	numeric := []string{"id", "bank_id", "order_status_id"}
	if filter.Get("courier_id") != "none" {
		numeric = append(numeric, "courier_id")
	}
	if err := utils.ValidateNumericFilters(filter, numeric...); err != nil {
		return nil, 0, err
	}
	bankID, courierID := s.gatekeeper.OrderScopeFor(actor)
	orders, total, err := s.orderRepo.GetOrders(ctx, filter, repositories.OrderScope{BankID: bankID, CourierID: courierID})
	if err != nil {
		return nil, 0, err
	}
	return ordersToResponse(orders), total, nil
}

func (s *OrderService) FindOrder(ctx context.Context, id uint64) (*dto.OrderResponseDTO, error) {
	_, order, err := s.loadOrder(ctx, id, authz.OrdersView)
	if err != nil {
		return nil, err
	}
	res := orderToResponse(order)
	return &res, nil
}

// CreateOrder - новый заказ всегда в статусе "Новые"; банк-пользователь создаёт только для своего банка.
func (s *OrderService) CreateOrder(ctx context.Context, payload dto.CreateOrderDTO) (*dto.OrderResponseDTO, error) {
	actor, err := s.Authorize(ctx, authz.OrdersCreate, nil)
	if err != nil {
		return nil, err
	}

	bankID := payload.BankID
	if actor.Role == constants.RoleBank {
		if actor.BankID == nil {
			return nil, fieldError("bank_id", "Пользователь не привязан к банку")
		}
		bankID = *actor.BankID
	}
	if bankID == 0 {
		return nil, fieldError("bank_id", "Поле bank_id обязательно для заполнения")
	}
	bank, err := s.findBank(ctx, bankID)
	if err != nil {
		return nil, err
	}
	if err := s.checkCourier(ctx, payload.CourierID); err != nil {
		return nil, err
	}
	deliveryAt, err := utils.ParseFlexibleDate(payload.DeliveryAt)
	if err != nil {
		return nil, fieldError("delivery_at", "Неверный формат даты доставки")
	}

	order := &entities.Order{
		BankID:         bankID,
		Product:        payload.Product,
		Name:           payload.Name,
		Surname:        payload.Surname,
		Patronymic:     payload.Patronymic,
		Phone:          payload.Phone,
		Address:        payload.Address,
		DeliveryAt:     deliveryAt,
		CourierID:      payload.CourierID,
		OrderStatusID:  constants.OrderStatusNew,
		Note:           payload.Note,
		DeclinedReason: payload.DeclinedReason,
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		number, err := s.numberer.Next(ctx, tx, bank)
		if err != nil {
			return err
		}
		order.OrderNumber = &number
		id, err := s.orderRepo.CreateOrder(ctx, tx, order)
		if err != nil {
			return err
		}
		order.ID = id
		return s.activityLog.RecordCreated(ctx, tx, constants.LogNameOrder, id, orderActivityAttributes(order))
	})
	if err != nil {
		return nil, err
	}

	created, err := s.orderRepo.FindOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Заказ создан",
		zap.Uint64("orderID", created.ID),
		zap.String("orderNumber", utils.SafeDeref(created.OrderNumber)),
		zap.Uint64("actorID", actor.ID),
	)
	if s.bus != nil {
		s.bus.Publish(ctx, events.OrderCreatedEvent{Order: created, ActorID: actor.ID})
		if created.CourierID != nil {
			s.bus.Publish(ctx, events.OrderCourierAssignedEvent{Order: created, CourierID: *created.CourierID, ActorID: actor.ID})
		}
	}
	res := orderToResponse(created)
	return &res, nil
}

// UpdateOrder - PUT, заменяет все редактируемые поля.
func (s *OrderService) UpdateOrder(ctx context.Context, id uint64, payload dto.UpdateOrderDTO) (*dto.OrderResponseDTO, error) {
	actor, order, err := s.loadOrder(ctx, id, authz.OrdersUpdate)
	if err != nil {
		return nil, err
	}

	change := statusChange{StatusID: payload.OrderStatusID, DeclinedReason: payload.DeclinedReason, DeliveryAt: &payload.DeliveryAt}
	if err := validateStatusChange(change); err != nil {
		return nil, err
	}
	if err := s.findStatus(ctx, payload.OrderStatusID); err != nil {
		return nil, err
	}

	bankID := payload.BankID
	if actor.Role == constants.RoleBank {
		bankID = order.BankID
	}
	if bankID != order.BankID {
		if _, err := s.findBank(ctx, bankID); err != nil {
			return nil, err
		}
	}
	if err := s.checkCourier(ctx, payload.CourierID); err != nil {
		return nil, err
	}

	deliveryAt, err := utils.ParseFlexibleDate(payload.DeliveryAt)
	if err != nil {
		return nil, fieldError("delivery_at", "Неверный формат даты доставки")
	}
	deliveredAt := order.DeliveredAt
	if payload.DeliveredAt != nil {
		if *payload.DeliveredAt == "" {
			deliveredAt = nil
		} else {
			t, err := utils.ParseFlexibleDate(*payload.DeliveredAt)
			if err != nil {
				return nil, fieldError("delivered_at", "Неверный формат даты вручения")
			}
			deliveredAt = &t
		}
	}
	if payload.OrderStatusID == constants.OrderStatusCompleted && deliveredAt == nil {
		deliveredAt = utils.ToPtr(time.Now())
	}

	updated := *order
	updated.BankID = bankID
	updated.Product = payload.Product
	updated.Name = payload.Name
	updated.Surname = payload.Surname
	updated.Patronymic = payload.Patronymic
	updated.Phone = payload.Phone
	updated.Address = payload.Address
	updated.DeliveryAt = deliveryAt
	updated.DeliveredAt = deliveredAt
	updated.CourierID = payload.CourierID
	updated.OrderStatusID = payload.OrderStatusID
	updated.Note = payload.Note
	updated.DeclinedReason = payload.DeclinedReason

	fields := map[string]interface{}{
		"bank_id":         updated.BankID,
		"product":         updated.Product,
		"name":            updated.Name,
		"surname":         updated.Surname,
		"patronymic":      updated.Patronymic,
		"phone":           updated.Phone,
		"address":         updated.Address,
		"delivery_at":     updated.DeliveryAt,
		"delivered_at":    updated.DeliveredAt,
		"courier_id":      updated.CourierID,
		"order_status_id": updated.OrderStatusID,
		"note":            updated.Note,
		"declined_reason": updated.DeclinedReason,
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.orderRepo.UpdateOrderFields(ctx, tx, []uint64{id}, fields); err != nil {
			return err
		}
		return s.activityLog.RecordUpdated(ctx, tx, constants.LogNameOrder, id,
			orderActivityAttributes(order), orderActivityAttributes(&updated))
	})
	if err != nil {
		return nil, err
	}

	res, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishChanges(ctx, order, &updated, actor)
	return res, nil
}

func (s *OrderService) ChangeStatus(ctx context.Context, id uint64, payload dto.ChangeOrderStatusDTO) (*dto.OrderResponseDTO, error) {
	actor, order, err := s.loadOrder(ctx, id, authz.OrdersUpdate)
	if err != nil {
		return nil, err
	}
	return s.changeStatus(ctx, actor, order, payload, constants.OrderStatusCompleted)
}

// changeStatus - общий путь смены статуса; deliveredStatus - статус, который ставит дату вручения.
func (s *OrderService) changeStatus(
	ctx context.Context,
	actor *entities.User,
	order *entities.Order,
	payload dto.ChangeOrderStatusDTO,
	deliveredStatus uint64,
) (*dto.OrderResponseDTO, error) {
	change := statusChange{StatusID: payload.OrderStatusID, DeclinedReason: payload.DeclinedReason, DeliveryAt: payload.DeliveryAt}
	if err := validateStatusChange(change); err != nil {
		return nil, err
	}
	if err := s.findStatus(ctx, payload.OrderStatusID); err != nil {
		return nil, err
	}
	fields, err := statusFields(order, change, deliveredStatus, time.Now())
	if err != nil {
		return nil, err
	}
	updated := applyFields(*order, fields)

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.orderRepo.UpdateOrderFields(ctx, tx, []uint64{order.ID}, fields); err != nil {
			return err
		}
		return s.activityLog.RecordUpdated(ctx, tx, constants.LogNameOrder, order.ID,
			orderActivityAttributes(order), orderActivityAttributes(updated))
	})
	if err != nil {
		return nil, err
	}

	res, err := s.reload(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Статус заказа изменён",
		zap.Uint64("orderID", order.ID),
		zap.Uint64("from", order.OrderStatusID),
		zap.Uint64("to", payload.OrderStatusID),
		zap.Uint64("actorID", actor.ID),
	)
	s.publishChanges(ctx, order, updated, actor)
	return res, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, id uint64) error {
	actor, order, err := s.loadOrder(ctx, id, authz.OrdersDelete)
	if err != nil {
		return err
	}
	return s.deleteOrders(ctx, actor, []entities.Order{*order})
}

func (s *OrderService) BulkDelete(ctx context.Context, ids []uint64) ([]uint64, error) {
	actor, err := s.Authorize(ctx, authz.OrdersDelete, nil)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, apperrors.NewValidationError("Ничего не выбрано", nil)
	}
	orders, err := s.orderRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperrors.ErrNotFound
	}
	if err := s.deleteOrders(ctx, actor, orders); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *OrderService) deleteOrders(ctx context.Context, actor *entities.User, orders []entities.Order) error {
	ids := make([]uint64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.orderRepo.DeleteOrders(ctx, tx, ids); err != nil {
			return err
		}
		for i := range orders {
			if err := s.activityLog.RecordDeleted(ctx, tx, constants.LogNameOrder, orders[i].ID, orderActivityAttributes(&orders[i])); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("Заказы удалены", zap.Uint64s("orderIDs", ids), zap.Uint64("actorID", actor.ID))
	return nil
}

// BulkUpdate применяет переданные поля к каждому заказу; заказы вне области актёра дают 403.
func (s *OrderService) BulkUpdate(ctx context.Context, payload dto.BulkUpdateOrdersDTO) ([]uint64, error) {
	actor, err := s.Authorize(ctx, authz.OrdersUpdate, nil)
	if err != nil {
		return nil, err
	}
	if len(payload.IDs) == 0 || !payload.HasFields() {
		return nil, apperrors.NewValidationError("Ничего не выбрано", nil)
	}

	base := map[string]interface{}{}
	var change *statusChange
	if payload.OrderStatusID.Valid {
		c := statusChange{
			StatusID:       payload.OrderStatusID.Uint64,
			DeclinedReason: payload.DeclinedReason.Ptr(),
			DeliveryAt:     payload.DeliveryAt.Ptr(),
		}
		if err := validateStatusChange(c); err != nil {
			return nil, err
		}
		if err := s.findStatus(ctx, c.StatusID); err != nil {
			return nil, err
		}
		change = &c
	}
	if payload.CourierID.Valid {
		courierID := payload.CourierID.Uint64
		if err := s.checkCourier(ctx, &courierID); err != nil {
			return nil, err
		}
		base["courier_id"] = courierID
	}
	if payload.BankID.Valid {
		if actor.Role == constants.RoleBank {
			return nil, apperrors.NewForbiddenError("Банк не может переносить заказы в другой банк")
		}
		if _, err := s.findBank(ctx, payload.BankID.Uint64); err != nil {
			return nil, err
		}
		base["bank_id"] = payload.BankID.Uint64
	}
	if payload.DeliveryAt.Valid {
		at, err := utils.ParseFlexibleDate(payload.DeliveryAt.String)
		if err != nil {
			return nil, fieldError("delivery_at", "Неверный формат даты доставки")
		}
		base["delivery_at"] = at
	}
	if payload.DeclinedReason.Valid {
		base["declined_reason"] = payload.DeclinedReason.String
	}
	if payload.Note.Valid {
		base["note"] = nullableString(payload.Note)
	}

	orders, err := s.orderRepo.FindByIDs(ctx, payload.IDs)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperrors.ErrNotFound
	}
	for i := range orders {
		if !s.gatekeeper.Can(actor, authz.OrdersUpdate, &orders[i]) {
			return nil, apperrors.ErrForbidden
		}
	}

	now := time.Now()
	updatedOrders := make([]*entities.Order, len(orders))
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		for i := range orders {
			fields := make(map[string]interface{}, len(base)+3)
			for k, v := range base {
				fields[k] = v
			}
			if change != nil {
				sf, err := statusFields(&orders[i], *change, constants.OrderStatusCompleted, now)
				if err != nil {
					return err
				}
				for k, v := range sf {
					fields[k] = v
				}
			}
			if _, err := s.orderRepo.UpdateOrderFields(ctx, tx, []uint64{orders[i].ID}, fields); err != nil {
				return err
			}
			updatedOrders[i] = applyFields(orders[i], fields)
			if err := s.activityLog.RecordUpdated(ctx, tx, constants.LogNameOrder, orders[i].ID,
				orderActivityAttributes(&orders[i]), orderActivityAttributes(updatedOrders[i])); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range orders {
		s.publishChanges(ctx, &orders[i], updatedOrders[i], actor)
	}
	return payload.IDs, nil
}

// --- мобильное приложение курьера ---

func (s *OrderService) currentCourier(ctx context.Context) (*entities.User, error) {
	actor, err := s.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.Can(actor, authz.OrdersCourierWork, nil) {
		return nil, apperrors.NewHttpError(http.StatusForbidden, "Доступ разрешен только для курьеров", apperrors.ErrForbidden, nil)
	}
	return actor, nil
}

func (s *OrderService) courierOrder(ctx context.Context, id uint64) (*entities.User, *entities.Order, error) {
	courier, err := s.currentCourier(ctx)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.orderRepo.FindOrder(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if order.CourierID == nil || *order.CourierID != courier.ID {
		return nil, nil, apperrors.NewForbiddenError("Заказ назначен другому курьеру")
	}
	return courier, order, nil
}

func (s *OrderService) CourierOrders(ctx context.Context, filter types.Filter) ([]dto.OrderResponseDTO, uint64, error) {
	courier, err := s.currentCourier(ctx)
	if err != nil {
		return nil, 0, err
	}
	delete(filter.Filter, "courier_id")
	if err := utils.ValidateNumericFilters(filter, "id", "bank_id", "order_status_id"); err != nil {
		return nil, 0, err
	}
	orders, total, err := s.orderRepo.GetOrders(ctx, filter, repositories.OrderScope{CourierID: &courier.ID})
	if err != nil {
		return nil, 0, err
	}
	return ordersToResponse(orders), total, nil
}

func (s *OrderService) CourierOrder(ctx context.Context, id uint64) (*dto.OrderResponseDTO, error) {
	_, order, err := s.courierOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	res := orderToResponse(order)
	return &res, nil
}

// CourierChangeStatus - курьер ставит только 2, 3, 5 или 6; статус 3 фиксирует дату вручения.
func (s *OrderService) CourierChangeStatus(ctx context.Context, id uint64, payload dto.ChangeOrderStatusDTO) (*dto.OrderResponseDTO, error) {
	courier, order, err := s.courierOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !constants.IsCourierAllowedStatus(payload.OrderStatusID) {
		return nil, fieldError("order_status_id", "Курьер не может установить этот статус")
	}
	return s.changeStatus(ctx, courier, order, payload, constants.OrderStatusPendingVerification)
}

// SetCourierNote сохраняет заметку курьера; nil удаляет её.
func (s *OrderService) SetCourierNote(ctx context.Context, id uint64, note *string) (*dto.OrderResponseDTO, error) {
	courier, order, err := s.courierOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.orderRepo.UpdateOrderFields(ctx, nil, []uint64{id}, map[string]interface{}{"courier_note": note}); err != nil {
		return nil, err
	}
	s.logger.Info("Заметка курьера обновлена", zap.Uint64("orderID", order.ID), zap.Uint64("courierID", courier.ID))
	return s.reload(ctx, id)
}
