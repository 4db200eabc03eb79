package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/utils"
)

const activityBatchCacheTTL = 30 * time.Second

type ActivityLogServiceInterface interface {
	RecordCreated(ctx context.Context, tx pgx.Tx, logName string, subjectID uint64, attributes map[string]interface{}) error
	RecordUpdated(ctx context.Context, tx pgx.Tx, logName string, subjectID uint64, old, current map[string]interface{}) error
	RecordDeleted(ctx context.Context, tx pgx.Tx, logName string, subjectID uint64, old map[string]interface{}) error

	GetSubjectHistory(ctx context.Context, logName string, subjectID uint64) ([]dto.ActivityLogEntryDTO, error)
	GetBatch(ctx context.Context, logName string, subjectIDs []uint64) (map[uint64][]dto.ActivityLogEntryDTO, error)
}

type ActivityLogService struct {
	*BaseService
	repo       repositories.ActivityLogRepositoryInterface
	statusRepo repositories.OrderStatusRepositoryInterface
	bankRepo   repositories.BankRepositoryInterface
}

func NewActivityLogService(
	base *BaseService,
	repo repositories.ActivityLogRepositoryInterface,
	statusRepo repositories.OrderStatusRepositoryInterface,
	bankRepo repositories.BankRepositoryInterface,
) *ActivityLogService {
	return &ActivityLogService{
		BaseService: base,
		repo:        repo,
		statusRepo:  statusRepo,
		bankRepo:    bankRepo,
	}
}

func (s *ActivityLogService) RecordCreated(ctx context.Context, tx pgx.Tx, logName string, subjectID uint64, attributes map[string]interface{}) error {
	return s.record(ctx, tx, logName, constants.ActivityCreated, subjectID, entities.ActivityProperties{Attributes: attributes})
}

// RecordUpdated пишет только изменённые поля; если ничего не изменилось, запись не создаётся.
func (s *ActivityLogService) RecordUpdated(ctx context.Context, tx pgx.Tx, logName string, subjectID uint64, old, current map[string]interface{}) error {
	attributes, previous := dirtyFields(old, current)
	if len(attributes) == 0 {
		return nil
	}
	return s.record(ctx, tx, logName, constants.ActivityUpdated, subjectID, entities.ActivityProperties{Attributes: attributes, Old: previous})
}

func (s *ActivityLogService) RecordDeleted(ctx context.Context, tx pgx.Tx, logName string, subjectID uint64, old map[string]interface{}) error {
	return s.record(ctx, tx, logName, constants.ActivityDeleted, subjectID, entities.ActivityProperties{Old: old})
}

func (s *ActivityLogService) record(ctx context.Context, tx pgx.Tx, logName, event string, subjectID uint64, props entities.ActivityProperties) error {
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	entry := &entities.ActivityLog{
		LogName:     logName,
		Description: activityDescription(logName, event),
		SubjectType: utils.ToPtr(logName),
		SubjectID:   &subjectID,
		Event:       utils.ToPtr(event),
		Properties:  raw,
	}
	// из консоли пишем без автора
	if userID, err := utils.GetUserIDFromCtx(ctx); err == nil {
		entry.CauserID = &userID
	}
	if err := s.repo.CreateEntry(ctx, tx, entry); err != nil {
		s.logger.Error("Не удалось записать журнал действий",
			zap.String("log_name", logName),
			zap.String("event", event),
			zap.Uint64("subject_id", subjectID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *ActivityLogService) authorizeRead(ctx context.Context) error {
	if _, err := s.Authorize(ctx, authz.ActivityLogsView, nil); err != nil {
		if errors.Is(err, apperrors.ErrForbidden) {
			return apperrors.NewHttpError(http.StatusForbidden, "Нет доступа к логам", err, nil)
		}
		return err
	}
	return nil
}

func (s *ActivityLogService) GetSubjectHistory(ctx context.Context, logName string, subjectID uint64) ([]dto.ActivityLogEntryDTO, error) {
	if err := s.authorizeRead(ctx); err != nil {
		return nil, err
	}
	logs, err := s.repo.GetBySubject(ctx, logName, subjectID)
	if err != nil {
		return nil, err
	}
	lookups, err := s.buildLookups(ctx, logName, logs)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ActivityLogEntryDTO, 0, len(logs))
	for _, l := range logs {
		result = append(result, formatActivityEntry(logName, l, lookups))
	}
	return result, nil
}

// GetBatch - история нескольких записей, сгруппированная по subject_id. Ответ кешируется на 30 секунд.
func (s *ActivityLogService) GetBatch(ctx context.Context, logName string, subjectIDs []uint64) (map[uint64][]dto.ActivityLogEntryDTO, error) {
	if err := s.authorizeRead(ctx); err != nil {
		return nil, err
	}
	result := make(map[uint64][]dto.ActivityLogEntryDTO)
	if logName == "" || len(subjectIDs) == 0 {
		return result, nil
	}

	cacheKey := activityBatchCacheKey(logName, subjectIDs)
	if s.CacheGet(ctx, cacheKey, &result) {
		return result, nil
	}

	logs, err := s.repo.GetBySubjects(ctx, logName, subjectIDs)
	if err != nil {
		return nil, err
	}
	lookups, err := s.buildLookups(ctx, logName, logs)
	if err != nil {
		return nil, err
	}
	for _, l := range logs {
		if l.SubjectID == nil {
			continue
		}
		result[*l.SubjectID] = append(result[*l.SubjectID], formatActivityEntry(logName, l, lookups))
	}

	s.CacheSet(ctx, cacheKey, result, activityBatchCacheTTL)
	return result, nil
}

func activityBatchCacheKey(logName string, ids []uint64) string {
	raw, _ := json.Marshal(ids)
	sum := md5.Sum(raw)
	return fmt.Sprintf(constants.CacheKeyActivityBatch, logName, hex.EncodeToString(sum[:]))
}

// dirtyFields возвращает новые и старые значения полей, которые отличаются.
func dirtyFields(old, current map[string]interface{}) (map[string]interface{}, map[string]interface{}) {
	attributes := make(map[string]interface{})
	previous := make(map[string]interface{})
	keys := make([]string, 0, len(current))
	for k := range current {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !reflect.DeepEqual(old[k], current[k]) {
			attributes[k] = current[k]
			previous[k] = old[k]
		}
	}
	return attributes, previous
}

// --- снимки логируемых полей ---

func ptrValue[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func timeValue(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.Local().Format(utils.DateTimeLayout)
}

func orderActivityAttributes(o *entities.Order) map[string]interface{} {
	return map[string]interface{}{
		"note":            ptrValue(o.Note),
		"order_status_id": o.OrderStatusID,
		"courier_id":      ptrValue(o.CourierID),
		"bank_id":         o.BankID,
		"delivery_at":     timeValue(&o.DeliveryAt),
		"delivered_at":    timeValue(o.DeliveredAt),
		"declined_reason": ptrValue(o.DeclinedReason),
		"product":         o.Product,
		"name":            o.Name,
		"surname":         o.Surname,
		"patronymic":      o.Patronymic,
		"phone":           o.Phone,
		"address":         o.Address,
		"order_number":    ptrValue(o.OrderNumber),
	}
}

func bankActivityAttributes(b *entities.Bank) map[string]interface{} {
	return map[string]interface{}{
		"name":  b.Name,
		"phone": ptrValue(b.Phone),
		"email": ptrValue(b.Email),
	}
}

func statusActivityAttributes(st *entities.OrderStatus) map[string]interface{} {
	return map[string]interface{}{
		"title": st.Title,
		"color": ptrValue(st.Color),
	}
}

func userActivityAttributes(u *entities.User) map[string]interface{} {
	return map[string]interface{}{
		"name":      u.Name,
		"email":     u.Email,
		"phone":     ptrValue(u.Phone),
		"role":      u.Role,
		"bank_id":   ptrValue(u.BankID),
		"is_active": u.IsActive,
		"note":      ptrValue(u.Note),
	}
}
