package events

import (
	"delivery-system/internal/entities"
)

const (
	OrderCreated         = "order.created"
	OrderCourierAssigned = "order.courier.assigned"
	OrderStatusChanged   = "order.status.changed"
)

// OrderCreatedEvent - заказ создан (вручную или импортом).
type OrderCreatedEvent struct {
	Order   *entities.Order
	ActorID uint64
}

func (e OrderCreatedEvent) Name() string {
	return OrderCreated
}

// OrderCourierAssignedEvent - на заказ назначен новый курьер.
type OrderCourierAssignedEvent struct {
	Order     *entities.Order
	CourierID uint64
	ActorID   uint64
}

func (e OrderCourierAssignedEvent) Name() string {
	return OrderCourierAssigned
}

// OrderStatusChangedEvent - у заказа сменился статус.
type OrderStatusChangedEvent struct {
	Order       *entities.Order
	OldStatusID uint64
	NewStatusID uint64
	ActorID     uint64
	ActorRole   string
}

func (e OrderStatusChangedEvent) Name() string {
	return OrderStatusChanged
}
