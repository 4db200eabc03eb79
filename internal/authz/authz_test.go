package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/utils"
)

func TestGatekeeper_OrderAccess(t *testing.T) {
	g := NewGatekeeper()
	bankID := uint64(7)
	courierID := uint64(3)
	order := &entities.Order{ID: 1, BankID: bankID, CourierID: &courierID}

	admin := &entities.User{ID: 1, Role: constants.RoleAdmin}
	manager := &entities.User{ID: 2, Role: constants.RoleManager}
	courier := &entities.User{ID: courierID, Role: constants.RoleCourier}
	otherCourier := &entities.User{ID: 4, Role: constants.RoleCourier}
	bank := &entities.User{ID: 5, Role: constants.RoleBank, BankID: &bankID}
	otherBank := &entities.User{ID: 6, Role: constants.RoleBank, BankID: utils.ToPtr(uint64(8))}

	assert.True(t, g.CanViewOrder(admin, order))
	assert.True(t, g.CanViewOrder(manager, order))
	assert.True(t, g.CanViewOrder(courier, order))
	assert.False(t, g.CanViewOrder(otherCourier, order))
	assert.True(t, g.CanViewOrder(bank, order))
	assert.False(t, g.CanViewOrder(otherBank, order))

	assert.True(t, g.Can(manager, OrdersDelete, order))
	assert.False(t, g.Can(bank, OrdersDelete, order))
	assert.False(t, g.Can(courier, OrdersCreate, nil))
	assert.True(t, g.Can(bank, OrdersCreate, nil))

	assert.True(t, g.Can(bank, OrdersImport, nil))
	assert.True(t, g.Can(admin, OrdersImport, nil))
	assert.False(t, g.Can(manager, OrdersImport, nil))

	assert.False(t, g.Can(nil, OrdersView, order))
}

func TestGatekeeper_Attachments(t *testing.T) {
	g := NewGatekeeper()
	admin := &entities.User{ID: 1, Role: constants.RoleAdmin}
	manager := &entities.User{ID: 2, Role: constants.RoleManager}
	courier := &entities.User{ID: 3, Role: constants.RoleCourier}

	file := &entities.OrderFile{ID: 10, UploadedBy: manager.ID}
	assert.True(t, g.Can(manager, FilesDelete, file), "загрузивший удаляет свой файл")
	assert.True(t, g.Can(admin, FilesDelete, file))
	assert.False(t, g.Can(&entities.User{ID: 9, Role: constants.RoleManager}, FilesDelete, file))
	assert.False(t, g.Can(courier, FilesDelete, &entities.OrderFile{UploadedBy: courier.ID}), "курьер не удаляет файлы")
	assert.False(t, g.Can(courier, FilesUpload, nil))

	photo := &entities.OrderPhoto{ID: 1, UploadedBy: &courier.ID}
	assert.True(t, g.Can(courier, PhotosDelete, photo))
	assert.True(t, g.Can(manager, PhotosDelete, photo))
	assert.False(t, g.Can(&entities.User{ID: 11, Role: constants.RoleCourier}, PhotosDelete, photo))

	comment := &entities.OrderComment{ID: 1, UserID: courier.ID}
	assert.True(t, g.Can(courier, CommentsManage, comment), "автор управляет своим комментарием")
	assert.True(t, g.Can(manager, CommentsManage, comment))
	assert.False(t, g.Can(&entities.User{ID: 12, Role: constants.RoleBank}, CommentsManage, comment))
}

func TestGatekeeper_OrderScopeFor(t *testing.T) {
	g := NewGatekeeper()
	bankID := uint64(5)

	b, c := g.OrderScopeFor(&entities.User{ID: 1, Role: constants.RoleManager})
	assert.Nil(t, b)
	assert.Nil(t, c)

	b, c = g.OrderScopeFor(&entities.User{ID: 2, Role: constants.RoleBank, BankID: &bankID})
	assert.Equal(t, bankID, *b)
	assert.Nil(t, c)

	b, _ = g.OrderScopeFor(&entities.User{ID: 3, Role: constants.RoleBank})
	assert.Equal(t, uint64(0), *b)

	b, c = g.OrderScopeFor(&entities.User{ID: 4, Role: constants.RoleCourier})
	assert.Nil(t, b)
	assert.Equal(t, uint64(4), *c)
}
