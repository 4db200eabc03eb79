package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/utils"
)

// подписи полей в журнале, по имени журнала
var activityFieldLabels = map[string]map[string]string{
	constants.LogNameOrder: {
		"note":            "Комментарий",
		"order_status_id": "Статус",
		"courier_id":      "Курьер",
		"bank_id":         "Банк",
		"delivery_at":     "Дата доставки",
		"delivered_at":    "Дата вручения",
		"declined_reason": "Причина отмены",
		"product":         "Продукт",
		"name":            "Имя",
		"surname":         "Фамилия",
		"patronymic":      "Отчество",
		"phone":           "Телефон",
		"address":         "Адрес",
		"order_number":    "Номер заказа",
	},
	constants.LogNameBank: {
		"name":  "Название",
		"phone": "Телефон",
		"email": "Email",
	},
	constants.LogNameOrderStatus: {
		"title": "Название",
		"color": "Цвет",
	},
	constants.LogNameUser: {
		"name":      "Имя",
		"email":     "Email",
		"phone":     "Телефон",
		"role":      "Роль",
		"bank_id":   "Банк",
		"is_active": "Активен",
		"note":      "Комментарий",
	},
}

var activityDescriptions = map[string]map[string]string{
	constants.LogNameOrder: {
		constants.ActivityCreated: "Заказ был создан",
		constants.ActivityUpdated: "Заказ был обновлён",
		constants.ActivityDeleted: "Заказ был удалён",
	},
	constants.LogNameBank: {
		constants.ActivityCreated: "Банк был создан",
		constants.ActivityUpdated: "Банк был обновлён",
		constants.ActivityDeleted: "Банк был удалён",
	},
	constants.LogNameOrderStatus: {
		constants.ActivityCreated: "Статус заказа был создан",
		constants.ActivityUpdated: "Статус заказа был обновлён",
		constants.ActivityDeleted: "Статус заказа был удалён",
	},
	constants.LogNameUser: {
		constants.ActivityCreated: "Пользователь был создан",
		constants.ActivityUpdated: "Пользователь был обновлён",
		constants.ActivityDeleted: "Пользователь был удалён",
	},
}

func activityDescription(logName, event string) string {
	if d, ok := activityDescriptions[logName][event]; ok {
		return d
	}
	return event
}

func activityFieldLabel(logName, key string) string {
	if label, ok := activityFieldLabels[logName][key]; ok {
		return label
	}
	return key
}

// activityLookups - названия связанных записей для подстановки вместо id.
type activityLookups struct {
	statuses map[uint64]string
	users    map[uint64]string
	banks    map[uint64]string
}

// referencedIDs собирает id статусов, пользователей и банков, упомянутых в записях.
func referencedIDs(logName string, logs []entities.ActivityLog) (statusIDs, userIDs, bankIDs []uint64) {
	seen := map[string]map[uint64]bool{"status": {}, "user": {}, "bank": {}}
	add := func(kind string, v interface{}) {
		if id, ok := toUint64(v); ok && id > 0 && !seen[kind][id] {
			seen[kind][id] = true
			switch kind {
			case "status":
				statusIDs = append(statusIDs, id)
			case "user":
				userIDs = append(userIDs, id)
			case "bank":
				bankIDs = append(bankIDs, id)
			}
		}
	}
	for _, l := range logs {
		props := decodeProperties(l.Properties)
		for _, values := range []map[string]interface{}{props.Attributes, props.Old} {
			for key, v := range values {
				switch {
				case key == "order_status_id" && logName == constants.LogNameOrder:
					add("status", v)
				case key == "courier_id":
					add("user", v)
				case key == "bank_id":
					add("bank", v)
				}
			}
		}
	}
	return statusIDs, userIDs, bankIDs
}

func decodeProperties(raw json.RawMessage) entities.ActivityProperties {
	var props entities.ActivityProperties
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &props)
	}
	return props
}

// formatActivityEntry превращает запись журнала в читаемый вид.
func formatActivityEntry(logName string, l entities.ActivityLog, lookups activityLookups) dto.ActivityLogEntryDTO {
	props := decodeProperties(l.Properties)

	keys := make(map[string]bool)
	for k := range props.Attributes {
		keys[k] = true
	}
	for k := range props.Old {
		keys[k] = true
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	changes := make(map[string]dto.ChangeDTO, len(sorted))
	for _, key := range sorted {
		changes[activityFieldLabel(logName, key)] = dto.ChangeDTO{
			Old: formatActivityValue(logName, key, props.Old[key], lookups),
			New: formatActivityValue(logName, key, props.Attributes[key], lookups),
		}
	}

	return dto.ActivityLogEntryDTO{
		Description: l.Description,
		Changes:     changes,
		User:        l.CauserName,
		Date:        l.CreatedAt.Local().Format(utils.DisplayDateTime),
	}
}

func formatActivityValue(logName, key string, v interface{}, lookups activityLookups) interface{} {
	if v == nil {
		return nil
	}
	switch key {
	case "order_status_id":
		if logName == constants.LogNameOrder {
			return lookupName(lookups.statuses, v)
		}
	case "courier_id":
		return lookupName(lookups.users, v)
	case "bank_id":
		return lookupName(lookups.banks, v)
	case "delivery_at", "delivered_at":
		s, ok := v.(string)
		if !ok || s == "" {
			return nil
		}
		t, err := parseActivityTime(s)
		if err != nil {
			return s
		}
		return t.Format(utils.DisplayDateTime)
	case "role":
		if s, ok := v.(string); ok {
			if label, ok := constants.RoleLabels[s]; ok {
				return label
			}
		}
	case "is_active":
		if b, ok := v.(bool); ok {
			if b {
				return "Да"
			}
			return "Нет"
		}
	}
	return v
}

func lookupName(names map[uint64]string, v interface{}) interface{} {
	id, ok := toUint64(v)
	if !ok || id == 0 {
		return nil
	}
	if name, ok := names[id]; ok {
		return name
	}
	return nil
}

func parseActivityTime(s string) (time.Time, error) {
	for _, layout := range []string{utils.DateTimeLayout, time.RFC3339, utils.DateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("неверная дата: %s", s)
}

// toUint64 - значения из JSON приходят как float64, из памяти как uint64.
func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case json.Number:
		id, err := strconv.ParseUint(n.String(), 10, 64)
		return id, err == nil
	case string:
		id, err := strconv.ParseUint(n, 10, 64)
		return id, err == nil
	}
	return 0, false
}

// buildLookups загружает названия для всех id из записей.
func (s *ActivityLogService) buildLookups(ctx context.Context, logName string, logs []entities.ActivityLog) (activityLookups, error) {
	lookups := activityLookups{
		statuses: map[uint64]string{},
		users:    map[uint64]string{},
		banks:    map[uint64]string{},
	}
	statusIDs, userIDs, bankIDs := referencedIDs(logName, logs)

	if len(statusIDs) > 0 {
		statuses, err := s.statusRepo.GetStatuses(ctx)
		if err != nil {
			return lookups, err
		}
		for _, st := range statuses {
			lookups.statuses[st.ID] = st.Title
		}
	}
	if len(userIDs) > 0 {
		users, err := s.userRepo.FindByIDs(ctx, userIDs)
		if err != nil {
			return lookups, err
		}
		for _, u := range users {
			lookups.users[u.ID] = u.Name
		}
	}
	if len(bankIDs) > 0 {
		banks, err := s.bankRepo.FindByIDs(ctx, bankIDs)
		if err != nil {
			return lookups, err
		}
		for _, b := range banks {
			lookups.banks[b.ID] = b.Name
		}
	}
	return lookups, nil
}
