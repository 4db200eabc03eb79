package services

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/events"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/config"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/utils"
	"delivery-system/pkg/validation"
)

// StructValidator - валидатор DTO (pkg/validation.CustomValidator).
type StructValidator interface {
	Validate(i interface{}) error
}

// importColumns - обязательные колонки строки заголовков.
var importColumns = []string{"product", "name", "surname", "patronymic", "phone", "address", "delivery_at"}

type importRow struct {
	Product    string `json:"product" validate:"required,max=255"`
	Name       string `json:"name" validate:"required,max=255"`
	Surname    string `json:"surname" validate:"required,max=255"`
	Patronymic string `json:"patronymic" validate:"required,max=255"`
	Phone      string `json:"phone" validate:"required,phone"`
	Address    string `json:"address" validate:"required,max=255"`
	DeliveryAt string `json:"delivery_at" validate:"required"`
}

type OrderImportServiceInterface interface {
	Import(ctx context.Context, file *multipart.FileHeader) (*dto.ImportResultDTO, error)
}

type OrderImportService struct {
	*BaseService
	txManager   repositories.TxManagerInterface
	orderRepo   repositories.OrderRepositoryInterface
	bankRepo    repositories.BankRepositoryInterface
	numberer    *OrderNumberer
	activityLog ActivityLogServiceInterface
	validator   StructValidator
	bus         EventPublisher
}

func NewOrderImportService(
	base *BaseService,
	txManager repositories.TxManagerInterface,
	orderRepo repositories.OrderRepositoryInterface,
	bankRepo repositories.BankRepositoryInterface,
	numberer *OrderNumberer,
	activityLog ActivityLogServiceInterface,
	validator StructValidator,
	bus EventPublisher,
) OrderImportServiceInterface {
	return &OrderImportService{
		BaseService: base,
		txManager:   txManager,
		orderRepo:   orderRepo,
		bankRepo:    bankRepo,
		numberer:    numberer,
		activityLog: activityLog,
		validator:   validator,
		bus:         bus,
	}
}

// Import загружает заказы банка из первого листа xlsx. Сначала проверяются все строки;
// при любой ошибке ничего не сохраняется.
func (s *OrderImportService) Import(ctx context.Context, file *multipart.FileHeader) (*dto.ImportResultDTO, error) {
	actor, err := s.Authorize(ctx, authz.OrdersImport, nil)
	if err != nil {
		if errors.Is(err, apperrors.ErrForbidden) {
			return nil, apperrors.NewHttpError(http.StatusForbidden, "Доступ запрещён", err, nil)
		}
		return nil, err
	}
	if file == nil {
		return nil, fieldError("file", "Поле file обязательно для заполнения")
	}
	if utils.HasExtension(file.Filename, "xls") {
		return nil, fieldError("file", "Формат xls не поддерживается, сохраните файл в формате xlsx")
	}
	if !utils.HasExtension(file.Filename, "xlsx") {
		return nil, fieldError("file", "Файл должен быть в формате xlsx")
	}
	if actor.BankID == nil {
		return nil, apperrors.NewValidationError("Нет ни одного банка в системе", nil)
	}
	bank, err := s.bankRepo.FindBank(ctx, *actor.BankID)
	if err != nil {
		return nil, err
	}

	rows, err := s.readRows(file)
	if err != nil {
		return nil, err
	}

	orders, failures := s.buildOrders(rows, bank.ID)
	if len(failures) > 0 {
		return nil, apperrors.NewValidationError("Ошибка валидации", map[string]interface{}{"failures": failures})
	}
	if len(orders) == 0 {
		return nil, fieldError("file", "В файле нет строк с заказами")
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		for _, order := range orders {
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
			if err := s.activityLog.RecordCreated(ctx, tx, constants.LogNameOrder, id, orderActivityAttributes(order)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Импорт заказов откатан", zap.Uint64("bankID", bank.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Заказы импортированы из Excel",
		zap.Uint64("bankID", bank.ID),
		zap.Int("count", len(orders)),
		zap.Uint64("userID", actor.ID),
	)
	if s.bus != nil {
		for _, order := range orders {
			s.bus.Publish(ctx, events.OrderCreatedEvent{Order: order, ActorID: actor.ID})
		}
	}
	return &dto.ImportResultDTO{Imported: len(orders)}, nil
}

// sheetRow - строка листа с номером строки в Excel.
type sheetRow struct {
	Number int
	Values map[string]string
}

// readRows читает первый лист. Даты приходят серийными числами Excel.
func (s *OrderImportService) readRows(file *multipart.FileHeader) ([]sheetRow, error) {
	src, err := file.Open()
	if err != nil {
		return nil, apperrors.NewInvalidInputError("Не удалось открыть файл %s", file.Filename)
	}
	defer src.Close()

	if _, err := validation.ValidateFile(file, src, config.UploadContextOrderImport); err != nil {
		return nil, fieldError("file", err.Error())
	}

	f, err := excelize.OpenReader(src)
	if err != nil {
		s.logger.Warn("Не удалось открыть файл импорта", zap.String("file", file.Filename), zap.Error(err))
		return nil, fieldError("file", "Не удалось прочитать Excel-файл")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fieldError("file", "В файле нет листов")
	}
	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fieldError("file", "Не удалось прочитать Excel-файл")
	}
	if len(raw) == 0 {
		return nil, fieldError("file", "В файле нет строк с заказами")
	}

	header := make(map[int]string, len(raw[0]))
	present := make(map[string]bool)
	for i, cell := range raw[0] {
		key := headingKey(cell)
		header[i] = key
		present[key] = true
	}
	var missing []string
	for _, col := range importColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fieldError("file", "В заголовке не хватает колонок: "+strings.Join(missing, ", "))
	}

	rows := make([]sheetRow, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		values := make(map[string]string, len(importColumns))
		empty := true
		for idx, cell := range raw[i] {
			key, ok := header[idx]
			if !ok || key == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				empty = false
			}
			values[key] = cell
		}
		if empty {
			continue
		}
		rows = append(rows, sheetRow{Number: i + 1, Values: values})
	}
	return rows, nil
}

// headingKey приводит заголовок колонки к виду "delivery_at".
func headingKey(cell string) string {
	key := strings.ToLower(strings.TrimSpace(cell))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(key)
}

func (s *OrderImportService) buildOrders(rows []sheetRow, bankID uint64) ([]*entities.Order, []dto.ImportFailureDTO) {
	var failures []dto.ImportFailureDTO
	orders := make([]*entities.Order, 0, len(rows))

	for _, row := range rows {
		r := importRow{
			Product:    row.Values["product"],
			Name:       row.Values["name"],
			Surname:    row.Values["surname"],
			Patronymic: row.Values["patronymic"],
			Phone:      row.Values["phone"],
			Address:    row.Values["address"],
			DeliveryAt: row.Values["delivery_at"],
		}
		rowFailures := s.validateRow(row, r)
		if len(rowFailures) > 0 {
			failures = append(failures, rowFailures...)
			continue
		}
		deliveryAt, err := utils.ParseFlexibleDate(r.DeliveryAt)
		if err != nil {
			failures = append(failures, dto.ImportFailureDTO{
				Row:       row.Number,
				Attribute: "delivery_at",
				Errors:    []string{"Неверный формат даты доставки"},
				Values:    row.Values,
			})
			continue
		}
		orders = append(orders, &entities.Order{
			BankID:        bankID,
			Product:       r.Product,
			Name:          r.Name,
			Surname:       r.Surname,
			Patronymic:    r.Patronymic,
			Phone:         r.Phone,
			Address:       r.Address,
			DeliveryAt:    deliveryAt,
			OrderStatusID: constants.OrderStatusNew,
		})
	}
	return orders, failures
}

func (s *OrderImportService) validateRow(row sheetRow, r importRow) []dto.ImportFailureDTO {
	err := s.validator.Validate(r)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []dto.ImportFailureDTO{{Row: row.Number, Errors: []string{err.Error()}, Values: row.Values}}
	}
	failures := make([]dto.ImportFailureDTO, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		failures = append(failures, dto.ImportFailureDTO{
			Row:       row.Number,
			Attribute: fe.Field(),
			Errors:    []string{utils.ValidationMessage(fe)},
			Values:    row.Values,
		})
	}
	return failures
}
