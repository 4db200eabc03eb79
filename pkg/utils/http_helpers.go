package utils

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/types"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type HTTPResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

const (
	DefaultLimit = 20
	MaxLimit     = 500
)

// служебные параметры, которые не попадают в Filter.Filter
var reservedQueryKeys = map[string]bool{
	"limit":          true,
	"per_page":       true,
	"page":           true,
	"offset":         true,
	"withPagination": true,
	"search":         true,
	"token":          true,
}

func ParseFilterFromQuery(values url.Values) types.Filter {
	filterReq := types.Filter{
		Sort:           make(map[string]string),
		Filter:         make(map[string]interface{}),
		Limit:          DefaultLimit,
		Page:           1,
		WithPagination: values.Get("withPagination") != "false",
	}

	limitStr := values.Get("limit")
	if limitStr == "" {
		limitStr = values.Get("per_page")
	}
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
		filterReq.Limit = min(l, MaxLimit)
	}

	if p, err := strconv.Atoi(values.Get("page")); err == nil && p > 0 {
		filterReq.Page = p
	}

	if o, err := strconv.Atoi(values.Get("offset")); err == nil && o >= 0 {
		filterReq.Offset = o
		filterReq.Page = o/filterReq.Limit + 1
	} else {
		filterReq.Offset = (filterReq.Page - 1) * filterReq.Limit
	}

	for key, vals := range values {
		if len(vals) == 0 || reservedQueryKeys[key] {
			if key == "search" && len(vals) > 0 {
				filterReq.Search = strings.TrimSpace(vals[0])
			}
			continue
		}

		if strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]") {
			field := key[5 : len(key)-1]
			direction := strings.ToLower(vals[0])
			if direction == "asc" || direction == "desc" {
				filterReq.Sort[field] = direction
			}
			continue
		}

		field := key
		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") {
			field = key[7 : len(key)-1]
		}
		// ids[]=1&ids[]=2 -> "1,2"
		field = strings.TrimSuffix(field, "[]")

		var nonEmpty []string
		for _, v := range vals {
			if v = strings.TrimSpace(v); v != "" {
				nonEmpty = append(nonEmpty, v)
			}
		}
		if len(nonEmpty) == 0 {
			continue
		}
		if existing, ok := filterReq.Filter[field]; ok {
			filterReq.Filter[field] = fmt.Sprintf("%v,%s", existing, strings.Join(nonEmpty, ","))
		} else {
			filterReq.Filter[field] = strings.Join(nonEmpty, ",")
		}
	}

	return filterReq
}

// ParseUint64List разбирает "1,2,3" в срез, пропуская мусор.
func ParseUint64List(raw string) []uint64 {
	var out []uint64
	for _, part := range strings.Split(raw, ",") {
		if id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// ValidateNumericFilters - значения перечисленных фильтров должны быть списком целых чисел.
func ValidateNumericFilters(filter types.Filter, keys ...string) error {
	fieldErrors := map[string][]string{}
	var first string
	for _, key := range keys {
		raw := filter.Get(key)
		if raw == "" {
			continue
		}
		for _, part := range strings.Split(raw, ",") {
			if _, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64); err != nil {
				msg := fmt.Sprintf("Фильтр %s должен содержать числовые идентификаторы", key)
				fieldErrors[key] = []string{msg}
				if first == "" {
					first = msg
				}
				break
			}
		}
	}
	if len(fieldErrors) == 0 {
		return nil
	}
	return apperrors.NewValidationError(first, map[string]interface{}{"errors": fieldErrors})
}

// ParseIDParam читает числовой path-параметр.
func ParseIDParam(ctx echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewHttpError(
			http.StatusBadRequest,
			"Неверный ID",
			err,
			map[string]interface{}{"param": name, "value": ctx.Param(name)},
		)
	}
	return id, nil
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, total ...uint64) error {
	response := &HTTPResponse{Status: true, Message: message, Body: body}
	if len(total) > 0 && ctx.QueryParam("withPagination") != "false" {
		filter := ParseFilterFromQuery(ctx.Request().URL.Query())
		totalPages := 0
		if filter.Limit > 0 {
			totalPages = int(math.Ceil(float64(total[0]) / float64(filter.Limit)))
		}
		response.Body = map[string]interface{}{
			"list": body,
			"pagination": types.Pagination{
				TotalCount: total[0],
				Page:       filter.Page,
				Limit:      filter.Limit,
				TotalPages: totalPages,
			},
		}
	}
	return ctx.JSON(code, response)
}

func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		if httpErr.Err != nil && httpErr.Code >= http.StatusInternalServerError {
			logger.Error("HTTP Error",
				zap.Int("code", httpErr.Code),
				zap.String("message", httpErr.Message),
				zap.Error(httpErr.Err),
				zap.Any("context", httpErr.Context),
			)
		} else if httpErr.Err != nil {
			logger.Warn("HTTP Error",
				zap.Int("code", httpErr.Code),
				zap.String("message", httpErr.Message),
				zap.Error(httpErr.Err),
				zap.Any("context", httpErr.Context),
			)
		}

		response := map[string]interface{}{
			"status":  false,
			"message": httpErr.Message,
		}
		switch details := httpErr.Details.(type) {
		case nil:
		case map[string]interface{}:
			for k, v := range details {
				response[k] = v
			}
		default:
			response["body"] = details
		}
		return c.JSON(httpErr.Code, response)
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string][]string, len(validationErrors))
		var first string
		for _, e := range validationErrors {
			msg := ValidationMessage(e)
			if first == "" {
				first = msg
			}
			fields[e.Field()] = append(fields[e.Field()], msg)
		}
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"status":  false,
			"message": first,
			"errors":  fields,
		})
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return c.JSON(echoErr.Code, map[string]interface{}{"status": false, "message": fmt.Sprint(echoErr.Message)})
	}

	var inputErr *apperrors.InvalidInputError
	if errors.As(err, &inputErr) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"status": false, "message": inputErr.Message})
	}

	if code, ok := sentinelStatus(err); ok {
		return c.JSON(code, map[string]interface{}{"status": false, "message": sentinelMessage(err)})
	}

	logger.Error("Unexpected Error", zap.Error(err), zap.String("path", c.Path()))
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"status":  false,
		"message": "Внутренняя ошибка сервера",
	})
}

var sentinelCodes = []struct {
	err  error
	code int
}{
	{apperrors.ErrNotFound, http.StatusNotFound},
	{apperrors.ErrUserNotFound, http.StatusNotFound},
	{apperrors.ErrForbidden, http.StatusForbidden},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized},
	{apperrors.ErrUserIDNotFoundInContext, http.StatusUnauthorized},
	{apperrors.ErrInvalidToken, http.StatusUnauthorized},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized},
	{apperrors.ErrTokenNotYetValid, http.StatusUnauthorized},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized},
	{apperrors.ErrTokenIsNotRefresh, http.StatusUnauthorized},
	{apperrors.ErrTokenIsNotAccess, http.StatusUnauthorized},
	{apperrors.ErrInvalidSigningMethod, http.StatusUnauthorized},
	{apperrors.ErrEmptyAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrInvalidAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrAccountLocked, http.StatusTooManyRequests},
	{apperrors.ErrConflict, http.StatusUnprocessableEntity},
	{apperrors.ErrReference, http.StatusUnprocessableEntity},
	{apperrors.ErrBadRequest, http.StatusBadRequest},
	{apperrors.ErrInternalServer, http.StatusInternalServerError},
}

func sentinelStatus(err error) (int, bool) {
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return s.code, true
		}
	}
	return 0, false
}

func sentinelMessage(err error) string {
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return s.err.Error()
		}
	}
	return err.Error()
}

// ValidationMessage - русское сообщение для ошибки валидатора.
func ValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_without", "required_if":
		return fmt.Sprintf("Поле %s обязательно для заполнения", e.Field())
	case "email":
		return fmt.Sprintf("Поле %s должно быть корректным email", e.Field())
	case "min":
		return fmt.Sprintf("Поле %s должно быть не меньше %s", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("Поле %s должно быть не больше %s", e.Field(), e.Param())
	case "gte":
		return fmt.Sprintf("Поле %s должно быть не меньше %s", e.Field(), e.Param())
	case "gtefield":
		return fmt.Sprintf("Поле %s должно быть не раньше %s", e.Field(), e.Param())
	case "oneof", "user_role", "report_status":
		return fmt.Sprintf("Выбранное значение поля %s некорректно", e.Field())
	case "phone":
		return fmt.Sprintf("Поле %s должно быть номером телефона", e.Field())
	default:
		return fmt.Sprintf("Поле %s не прошло проверку %s", e.Field(), e.Tag())
	}
}
