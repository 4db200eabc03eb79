package authz

import (
	"delivery-system/internal/entities"
)

// Gatekeeper - единая точка проверки прав для сервисов.
type Gatekeeper struct{}

func NewGatekeeper() *Gatekeeper {
	return &Gatekeeper{}
}

// Can проверяет право permission у actor, с учётом цели target (может быть nil).
func (g *Gatekeeper) Can(actor *entities.User, permission string, target interface{}) bool {
	if actor == nil {
		return false
	}
	return CanDo(permission, Context{
		Actor:       actor,
		Permissions: PermissionsForRole(actor.Role),
		Target:      target,
	})
}

// CanViewOrder - просмотр и работа с вложениями заказа.
func (g *Gatekeeper) CanViewOrder(actor *entities.User, order *entities.Order) bool {
	return g.Can(actor, OrdersView, order)
}

// OrderScopeFor возвращает ограничения списка заказов для роли актёра.
func (g *Gatekeeper) OrderScopeFor(actor *entities.User) (bankID *uint64, courierID *uint64) {
	perms := PermissionsForRole(actor.Role)
	switch {
	case perms[ScopeAll]:
		return nil, nil
	case perms[ScopeBank]:
		if actor.BankID == nil {
			// банк без привязки не видит ничего
			none := uint64(0)
			return &none, nil
		}
		return actor.BankID, nil
	default:
		id := actor.ID
		return nil, &id
	}
}
