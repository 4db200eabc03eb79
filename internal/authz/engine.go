package authz

import (
	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
)

type Context struct {
	Actor             *entities.User
	Permissions       map[string]bool
	Target            interface{}
	CurrentPermission string
}

func (c *Context) HasPermission(permission string) bool {
	if c.Permissions == nil {
		return false
	}
	return c.Permissions[permission]
}

// ownsOrder - заказ в области видимости актёра: свой банк или назначен на курьера.
func ownsOrder(ctx Context, target *entities.Order) bool {
	actor := ctx.Actor
	if ctx.HasPermission(ScopeAll) {
		return true
	}
	if ctx.HasPermission(ScopeBank) && actor.BankID != nil && *actor.BankID == target.BankID {
		return true
	}
	if ctx.HasPermission(ScopeOwn) && target.CourierID != nil && *target.CourierID == actor.ID {
		return true
	}
	return false
}

// canDeleteFile - удалить файл может загрузивший его или администратор.
func canDeleteFile(ctx Context, target *entities.OrderFile) bool {
	return ctx.Actor.Role == constants.RoleAdmin || target.UploadedBy == ctx.Actor.ID
}

// canDeletePhoto - фото удаляет загрузивший курьер или сотрудник.
func canDeletePhoto(ctx Context, target *entities.OrderPhoto) bool {
	if ctx.HasPermission(ScopeAll) {
		return true
	}
	return target.UploadedBy != nil && *target.UploadedBy == ctx.Actor.ID
}

// canManageComment - правка текста и удаление: автор или сотрудник.
func canManageComment(ctx Context, target *entities.OrderComment) bool {
	return ctx.HasPermission(CommentsManage) || target.UserID == ctx.Actor.ID
}

func CanDo(permission string, ctx Context) bool {
	ctx.CurrentPermission = permission

	// комментарий автора проверяется по авторству, а не по набору прав роли
	if comment, ok := ctx.Target.(*entities.OrderComment); ok && permission == CommentsManage {
		return canManageComment(ctx, comment)
	}

	if !ctx.HasPermission(permission) {
		return false
	}

	if ctx.Target == nil {
		return true
	}

	switch target := ctx.Target.(type) {
	case *entities.Order:
		return ownsOrder(ctx, target)
	case *entities.OrderFile:
		return canDeleteFile(ctx, target)
	case *entities.OrderPhoto:
		return canDeletePhoto(ctx, target)
	}

	return true
}
