package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/contextkeys"
	"delivery-system/pkg/eventbus"
	"delivery-system/pkg/types"
)

// --- пользователи ---

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]entities.User), args.Get(1).(uint64), args.Error(2)
}

func (m *mockUserRepo) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*entities.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*entities.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) FindByIDs(ctx context.Context, ids []uint64) ([]entities.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]entities.User), args.Error(1)
}

func (m *mockUserRepo) FindRecipients(ctx context.Context, roles []string, bankID *uint64) ([]entities.User, error) {
	args := m.Called(ctx, roles, bankID)
	return args.Get(0).([]entities.User), args.Error(1)
}

func (m *mockUserRepo) CreateUser(ctx context.Context, user *entities.User) (*entities.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockUserRepo) UpdateUser(ctx context.Context, user *entities.User) (*entities.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockUserRepo) UpdateUserFields(ctx context.Context, id uint64, fields map[string]interface{}) error {
	return m.Called(ctx, id, fields).Error(0)
}

func (m *mockUserRepo) DeleteUser(ctx context.Context, tx pgx.Tx, id uint64) error {
	return m.Called(ctx, tx, id).Error(0)
}

func (m *mockUserRepo) LockRole(ctx context.Context, tx pgx.Tx, role string) (uint64, error) {
	args := m.Called(ctx, tx, role)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockUserRepo) SetBankAccessKey(ctx context.Context, id uint64, keyHash string, expiresAt time.Time) error {
	return m.Called(ctx, id, keyHash, expiresAt).Error(0)
}

func (m *mockUserRepo) SetPushToken(ctx context.Context, id uint64, playerID string) error {
	return m.Called(ctx, id, playerID).Error(0)
}

// --- кеш ---

// memoryCache - кеш в памяти вместо Redis.
type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
	ints map[string]int64
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}, ints: map[string]int64{}}
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	case string:
		c.data[key] = v
	default:
		c.data[key] = "1"
	}
	return nil
}

func (c *memoryCache) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = fmt.Sprint(value)
	return true, nil
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", repositories.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		delete(c.ints, k)
	}
	return nil
}

func (c *memoryCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ints[key]++
	return c.ints[key], nil
}

func (c *memoryCache) Expire(_ context.Context, _ string, _ time.Duration) (bool, error) {
	return true, nil
}

// --- транзакции ---

type fakeTxManager struct{ calls int }

func (f *fakeTxManager) RunInTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	return fn(nil)
}

// --- заказы, банки, статусы ---

type mockOrderRepo struct{ mock.Mock }

func (m *mockOrderRepo) GetOrders(ctx context.Context, filter types.Filter, scope repositories.OrderScope) ([]entities.Order, uint64, error) {
	args := m.Called(ctx, filter, scope)
	return args.Get(0).([]entities.Order), args.Get(1).(uint64), args.Error(2)
}

func (m *mockOrderRepo) FindOrder(ctx context.Context, id uint64) (*entities.Order, error) {
	args := m.Called(ctx, id)
	if o := args.Get(0); o != nil {
		return o.(*entities.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOrderRepo) FindByIDs(ctx context.Context, ids []uint64) ([]entities.Order, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]entities.Order), args.Error(1)
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, tx pgx.Tx, order *entities.Order) (uint64, error) {
	args := m.Called(ctx, tx, order)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockOrderRepo) UpdateOrderFields(ctx context.Context, tx pgx.Tx, ids []uint64, fields map[string]interface{}) (int64, error) {
	args := m.Called(ctx, tx, ids, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOrderRepo) DeleteOrders(ctx context.Context, tx pgx.Tx, ids []uint64) (int64, error) {
	args := m.Called(ctx, tx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOrderRepo) LockBankNumbering(ctx context.Context, tx pgx.Tx, bankID uint64) error {
	return m.Called(ctx, tx, bankID).Error(0)
}

func (m *mockOrderRepo) CountNumberedByBank(ctx context.Context, tx pgx.Tx, bankID uint64) (int, error) {
	args := m.Called(ctx, tx, bankID)
	return args.Int(0), args.Error(1)
}

func (m *mockOrderRepo) OrderNumberExists(ctx context.Context, tx pgx.Tx, number string) (bool, error) {
	args := m.Called(ctx, tx, number)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderRepo) FindUnnumbered(ctx context.Context) ([]entities.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entities.Order), args.Error(1)
}

type mockBankRepo struct{ mock.Mock }

func (m *mockBankRepo) GetBanks(ctx context.Context, filter types.Filter) ([]entities.Bank, uint64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]entities.Bank), args.Get(1).(uint64), args.Error(2)
}

func (m *mockBankRepo) FindBank(ctx context.Context, id uint64) (*entities.Bank, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*entities.Bank), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBankRepo) FindByIDs(ctx context.Context, ids []uint64) ([]entities.Bank, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]entities.Bank), args.Error(1)
}

func (m *mockBankRepo) CreateBank(ctx context.Context, bank *entities.Bank) (*entities.Bank, error) {
	args := m.Called(ctx, bank)
	return args.Get(0).(*entities.Bank), args.Error(1)
}

func (m *mockBankRepo) UpdateBank(ctx context.Context, bank *entities.Bank) (*entities.Bank, error) {
	args := m.Called(ctx, bank)
	return args.Get(0).(*entities.Bank), args.Error(1)
}

func (m *mockBankRepo) DeleteBank(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

type mockStatusRepo struct{ mock.Mock }

func (m *mockStatusRepo) GetStatuses(ctx context.Context) ([]entities.OrderStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entities.OrderStatus), args.Error(1)
}

func (m *mockStatusRepo) FindStatus(ctx context.Context, id uint64) (*entities.OrderStatus, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*entities.OrderStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStatusRepo) CreateStatus(ctx context.Context, status *entities.OrderStatus) (*entities.OrderStatus, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(*entities.OrderStatus), args.Error(1)
}

func (m *mockStatusRepo) UpdateStatus(ctx context.Context, status *entities.OrderStatus) (*entities.OrderStatus, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(*entities.OrderStatus), args.Error(1)
}

func (m *mockStatusRepo) DeleteStatus(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

// --- журнал действий ---

type activityRecord struct {
	Kind      string
	LogName   string
	SubjectID uint64
	Old       map[string]interface{}
	Current   map[string]interface{}
}

// recordingActivityLog запоминает записи журнала вместо БД.
type recordingActivityLog struct {
	records []activityRecord
}

func (r *recordingActivityLog) RecordCreated(_ context.Context, _ pgx.Tx, logName string, subjectID uint64, attributes map[string]interface{}) error {
	r.records = append(r.records, activityRecord{Kind: "created", LogName: logName, SubjectID: subjectID, Current: attributes})
	return nil
}

func (r *recordingActivityLog) RecordUpdated(_ context.Context, _ pgx.Tx, logName string, subjectID uint64, old, current map[string]interface{}) error {
	r.records = append(r.records, activityRecord{Kind: "updated", LogName: logName, SubjectID: subjectID, Old: old, Current: current})
	return nil
}

func (r *recordingActivityLog) RecordDeleted(_ context.Context, _ pgx.Tx, logName string, subjectID uint64, old map[string]interface{}) error {
	r.records = append(r.records, activityRecord{Kind: "deleted", LogName: logName, SubjectID: subjectID, Old: old})
	return nil
}

func (r *recordingActivityLog) GetSubjectHistory(context.Context, string, uint64) ([]dto.ActivityLogEntryDTO, error) {
	return nil, nil
}

func (r *recordingActivityLog) GetBatch(context.Context, string, []uint64) (map[uint64][]dto.ActivityLogEntryDTO, error) {
	return nil, nil
}

type mockActivityLogRepo struct{ mock.Mock }

func (m *mockActivityLogRepo) CreateEntry(ctx context.Context, tx pgx.Tx, entry *entities.ActivityLog) error {
	return m.Called(ctx, tx, entry).Error(0)
}

func (m *mockActivityLogRepo) GetBySubject(ctx context.Context, logName string, subjectID uint64) ([]entities.ActivityLog, error) {
	args := m.Called(ctx, logName, subjectID)
	return args.Get(0).([]entities.ActivityLog), args.Error(1)
}

func (m *mockActivityLogRepo) GetBySubjects(ctx context.Context, logName string, subjectIDs []uint64) ([]entities.ActivityLog, error) {
	args := m.Called(ctx, logName, subjectIDs)
	return args.Get(0).([]entities.ActivityLog), args.Error(1)
}

func (m *mockActivityLogRepo) FindOrphaned(ctx context.Context, logName string) ([]entities.ActivityLog, error) {
	args := m.Called(ctx, logName)
	return args.Get(0).([]entities.ActivityLog), args.Error(1)
}

func (m *mockActivityLogRepo) DeleteByIDs(ctx context.Context, ids []uint64) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// --- события ---

type recordingPublisher struct {
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event eventbus.Event) {
	p.events = append(p.events, event)
}

func (p *recordingPublisher) names() []string {
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.Name())
	}
	return names
}

// --- помощники ---

func actorCtx(user *entities.User) context.Context {
	ctx := context.WithValue(context.Background(), contextkeys.UserIDKey, user.ID)
	return context.WithValue(ctx, contextkeys.UserRoleKey, user.Role)
}

func newTestBase(userRepo *mockUserRepo) *BaseService {
	return NewBaseService(userRepo, newMemoryCache(), authz.NewGatekeeper(), zap.NewNop())
}

func uptr(v uint64) *uint64 { return &v }
