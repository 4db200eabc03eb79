package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
)

var managerUser = &entities.User{ID: 2, Name: "Менеджер", Role: constants.RoleManager, IsActive: true}

type userFixture struct {
	users    *mockUserRepo
	banks    *mockBankRepo
	tx       *fakeTxManager
	activity *recordingActivityLog
	service  UserServiceInterface
}

func newUserFixture(actor *entities.User) *userFixture {
	f := &userFixture{
		users:    new(mockUserRepo),
		banks:    new(mockBankRepo),
		tx:       &fakeTxManager{},
		activity: &recordingActivityLog{},
	}
	f.users.On("FindUser", mock.Anything, actor.ID).Return(actor, nil)
	f.service = NewUserService(newTestBase(f.users), f.tx, f.banks, f.activity, 24*time.Hour)
	return f
}

func TestUserService_DeleteUser_LastAdminIsKept(t *testing.T) {
	f := newUserFixture(adminUser)
	target := &entities.User{ID: 3, Name: "Второй", Role: constants.RoleAdmin}
	f.users.On("FindUser", mock.Anything, uint64(3)).Return(target, nil)
	f.users.On("LockRole", mock.Anything, mock.Anything, constants.RoleAdmin).Return(uint64(1), nil)

	err := f.service.DeleteUser(actorCtx(adminUser), 3)

	requireHTTPCode(t, err, http.StatusBadRequest)
	assert.Equal(t, 1, f.tx.calls)
	f.users.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.activity.records)
}

func TestUserService_DeleteUser_AdminWithPeers(t *testing.T) {
	f := newUserFixture(adminUser)
	target := &entities.User{ID: 3, Name: "Второй", Role: constants.RoleAdmin}
	f.users.On("FindUser", mock.Anything, uint64(3)).Return(target, nil)
	f.users.On("LockRole", mock.Anything, mock.Anything, constants.RoleAdmin).Return(uint64(2), nil)
	f.users.On("DeleteUser", mock.Anything, mock.Anything, uint64(3)).Return(nil)

	require.NoError(t, f.service.DeleteUser(actorCtx(adminUser), 3))

	f.users.AssertExpectations(t)
	require.Len(t, f.activity.records, 1)
	assert.Equal(t, "deleted", f.activity.records[0].Kind)
	assert.Equal(t, uint64(3), f.activity.records[0].SubjectID)
}

func TestUserService_DeleteUser_CourierSkipsAdminLock(t *testing.T) {
	f := newUserFixture(managerUser)
	f.users.On("FindUser", mock.Anything, courierUser.ID).Return(courierUser, nil)
	f.users.On("DeleteUser", mock.Anything, mock.Anything, courierUser.ID).Return(nil)

	require.NoError(t, f.service.DeleteUser(actorCtx(managerUser), courierUser.ID))

	f.users.AssertNotCalled(t, "LockRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_ManagerCannotTouchAdmins(t *testing.T) {
	t.Run("создание", func(t *testing.T) {
		f := newUserFixture(managerUser)
		_, err := f.service.CreateUser(actorCtx(managerUser), dto.CreateUserDTO{
			Name: "Новый", Email: "new@test.tj", Password: "secret123", Role: constants.RoleAdmin,
		})
		requireHTTPCode(t, err, http.StatusForbidden)
		f.users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("изменение", func(t *testing.T) {
		f := newUserFixture(managerUser)
		f.users.On("FindUser", mock.Anything, adminUser.ID).Return(adminUser, nil)
		_, err := f.service.UpdateUser(actorCtx(managerUser), adminUser.ID, dto.UpdateUserDTO{
			Name: "Админ", Email: "admin@test.tj", Role: constants.RoleManager,
		})
		requireHTTPCode(t, err, http.StatusForbidden)
		f.users.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	})

	t.Run("повышение до админа", func(t *testing.T) {
		f := newUserFixture(managerUser)
		f.users.On("FindUser", mock.Anything, courierUser.ID).Return(courierUser, nil)
		_, err := f.service.UpdateUser(actorCtx(managerUser), courierUser.ID, dto.UpdateUserDTO{
			Name: "Курьер", Email: "c@test.tj", Role: constants.RoleAdmin,
		})
		requireHTTPCode(t, err, http.StatusForbidden)
	})

	t.Run("удаление", func(t *testing.T) {
		f := newUserFixture(managerUser)
		f.users.On("FindUser", mock.Anything, adminUser.ID).Return(adminUser, nil)
		err := f.service.DeleteUser(actorCtx(managerUser), adminUser.ID)
		requireHTTPCode(t, err, http.StatusForbidden)
		assert.Zero(t, f.tx.calls)
	})
}

func TestUserService_RegenerateBankKey(t *testing.T) {
	f := newUserFixture(adminUser)
	f.users.On("FindUser", mock.Anything, bankUser.ID).Return(bankUser, nil)

	var storedHash string
	var storedExpiry time.Time
	f.users.On("SetBankAccessKey", mock.Anything, bankUser.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			storedHash = args.String(2)
			storedExpiry = args.Get(3).(time.Time)
		}).
		Return(nil)

	before := time.Now()
	res, err := f.service.RegenerateBankKey(actorCtx(adminUser), bankUser.ID)
	require.NoError(t, err)

	require.NotEmpty(t, res.BankAccessKey)
	assert.NotEqual(t, res.BankAccessKey, storedHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(res.BankAccessKey)))
	assert.Equal(t, res.ExpiresAt, storedExpiry)
	assert.WithinDuration(t, before.Add(24*time.Hour), storedExpiry, 5*time.Second)
}

func TestUserService_RegenerateBankKey_OnlyBankUsers(t *testing.T) {
	f := newUserFixture(adminUser)
	f.users.On("FindUser", mock.Anything, courierUser.ID).Return(courierUser, nil)

	_, err := f.service.RegenerateBankKey(actorCtx(adminUser), courierUser.ID)

	requireHTTPCode(t, err, http.StatusUnprocessableEntity)
	f.users.AssertNotCalled(t, "SetBankAccessKey", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
