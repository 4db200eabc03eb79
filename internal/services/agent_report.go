package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/filestorage"
	"delivery-system/pkg/types"
	"delivery-system/pkg/utils"
)

const (
	agentReportsDir  = "agent-reports"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ordersNotInBanks = "Некоторые заказы не принадлежат выбранным банкам"
)

type AgentReportServiceInterface interface {
	GetReports(ctx context.Context, filter types.Filter) ([]dto.AgentReportResponseDTO, uint64, error)
	FindReport(ctx context.Context, id uint64) (*dto.AgentReportResponseDTO, error)
	CreateReport(ctx context.Context, payload dto.CreateAgentReportDTO) (*dto.AgentReportResponseDTO, error)
	UpdateReport(ctx context.Context, id uint64, payload dto.UpdateAgentReportDTO) (*dto.AgentReportResponseDTO, error)
	DeleteReport(ctx context.Context, id uint64) error
	Download(ctx context.Context, id uint64) (io.Reader, *dto.DownloadDTO, error)
	OrdersForPeriod(ctx context.Context, bankIDs []uint64, from, to string) ([]dto.PeriodOrderDTO, error)
}

type AgentReportService struct {
	*BaseService
	txManager   repositories.TxManagerInterface
	reportRepo  repositories.AgentReportRepositoryInterface
	bankRepo    repositories.BankRepositoryInterface
	fileStorage filestorage.FileStorageInterface
}

func NewAgentReportService(
	base *BaseService,
	txManager repositories.TxManagerInterface,
	reportRepo repositories.AgentReportRepositoryInterface,
	bankRepo repositories.BankRepositoryInterface,
	fileStorage filestorage.FileStorageInterface,
) AgentReportServiceInterface {
	return &AgentReportService{
		BaseService: base,
		txManager:   txManager,
		reportRepo:  reportRepo,
		bankRepo:    bankRepo,
		fileStorage: fileStorage,
	}
}

func agentReportToResponse(r *entities.AgentReport) dto.AgentReportResponseDTO {
	res := dto.AgentReportResponseDTO{
		ID:            r.ID,
		PeriodFrom:    r.PeriodFrom.Format(utils.DateLayout),
		PeriodTo:      r.PeriodTo.Format(utils.DateLayout),
		DeliveryCost:  r.DeliveryCost,
		Status:        r.Status,
		ExcelFilePath: r.ExcelFilePath,
		Notes:         r.Notes,
		Banks:         make([]dto.ShortBankDTO, 0, len(r.Banks)),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.Creator != nil {
		res.Creator = &dto.ShortUserDTO{ID: r.Creator.ID, Name: r.Creator.Name}
	}
	for _, b := range r.Banks {
		res.Banks = append(res.Banks, dto.ShortBankDTO{ID: b.ID, Name: b.Name})
	}
	for _, line := range r.Orders {
		item := dto.AgentReportOrderResponseDTO{ID: line.ID, OrderID: line.OrderID, DeliveryCost: line.DeliveryCost}
		if line.Order != nil {
			order := orderToResponse(line.Order)
			item.Order = &order
		}
		res.Orders = append(res.Orders, item)
	}
	return res
}

func (s *AgentReportService) authorize(ctx context.Context) (*entities.User, error) {
	actor, err := s.Authorize(ctx, authz.AgentReportsManage, nil)
	if err != nil && errors.Is(err, apperrors.ErrForbidden) {
		return nil, apperrors.NewHttpError(http.StatusForbidden, "Доступ запрещён", err, nil)
	}
	return actor, err
}

// parsePeriod разбирает границы периода отчёта: to не раньше from.
func parsePeriod(from, to string) (time.Time, time.Time, error) {
	f, err := time.ParseInLocation(utils.DateLayout, from, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fieldError("period_from", "Неверный формат даты начала периода")
	}
	t, err := time.ParseInLocation(utils.DateLayout, to, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fieldError("period_to", "Неверный формат даты окончания периода")
	}
	if t.Before(f) {
		return time.Time{}, time.Time{}, fieldError("period_to", "Дата окончания не может быть раньше даты начала")
	}
	return f, t, nil
}

// buildLines проверяет строки отчёта и считает итог в decimal.
func buildLines(items []dto.AgentReportOrderInputDTO) ([]entities.AgentReportOrder, []uint64, decimal.Decimal, error) {
	lines := make([]entities.AgentReportOrder, 0, len(items))
	ids := make([]uint64, 0, len(items))
	seen := make(map[uint64]bool, len(items))
	total := decimal.Zero
	for _, item := range items {
		if item.OrderID == 0 {
			return nil, nil, total, fieldError("orders", "Не указан заказ")
		}
		if seen[item.OrderID] {
			return nil, nil, total, fieldError("orders", "Заказы в отчёте не должны повторяться")
		}
		if item.DeliveryCost.IsNegative() {
			return nil, nil, total, fieldError("orders", "Стоимость доставки не может быть отрицательной")
		}
		seen[item.OrderID] = true
		ids = append(ids, item.OrderID)
		lines = append(lines, entities.AgentReportOrder{OrderID: item.OrderID, DeliveryCost: item.DeliveryCost.Round(2)})
		total = total.Add(item.DeliveryCost.Round(2))
	}
	return lines, ids, total, nil
}

func (s *AgentReportService) checkBanks(ctx context.Context, bankIDs []uint64) error {
	banks, err := s.bankRepo.FindByIDs(ctx, bankIDs)
	if err != nil {
		return err
	}
	found := make(map[uint64]bool, len(banks))
	for _, b := range banks {
		found[b.ID] = true
	}
	for _, id := range bankIDs {
		if !found[id] {
			return fieldError("bank_ids", "Выбранный банк не существует")
		}
	}
	return nil
}

func (s *AgentReportService) checkOrdersInBanks(ctx context.Context, tx pgx.Tx, orderIDs, bankIDs []uint64) error {
	count, err := s.reportRepo.CountOrdersInBanks(ctx, tx, orderIDs, bankIDs)
	if err != nil {
		return err
	}
	if count != len(orderIDs) {
		return fieldError("orders", ordersNotInBanks)
	}
	return nil
}

func (s *AgentReportService) GetReports(ctx context.Context, filter types.Filter) ([]dto.AgentReportResponseDTO, uint64, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, 0, err
	}
	reports, total, err := s.reportRepo.GetReports(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.AgentReportResponseDTO, 0, len(reports))
	for i := range reports {
		result = append(result, agentReportToResponse(&reports[i]))
	}
	return result, total, nil
}

func (s *AgentReportService) FindReport(ctx context.Context, id uint64) (*dto.AgentReportResponseDTO, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, err
	}
	report, err := s.reportRepo.FindReport(ctx, id)
	if err != nil {
		return nil, err
	}
	res := agentReportToResponse(report)
	return &res, nil
}

func (s *AgentReportService) CreateReport(ctx context.Context, payload dto.CreateAgentReportDTO) (*dto.AgentReportResponseDTO, error) {
	actor, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}
	from, to, err := parsePeriod(payload.PeriodFrom, payload.PeriodTo)
	if err != nil {
		return nil, err
	}
	if len(payload.BankIDs) == 0 {
		return nil, fieldError("bank_ids", "Выберите хотя бы один банк")
	}
	if len(payload.Orders) == 0 {
		return nil, fieldError("orders", "Выберите хотя бы один заказ")
	}
	if err := s.checkBanks(ctx, payload.BankIDs); err != nil {
		return nil, err
	}
	lines, orderIDs, total, err := buildLines(payload.Orders)
	if err != nil {
		return nil, err
	}

	report := &entities.AgentReport{
		PeriodFrom:   from,
		PeriodTo:     to,
		DeliveryCost: total,
		Status:       constants.ReportStatusFormed,
		CreatedBy:    actor.ID,
		Notes:        payload.Notes,
	}
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.checkOrdersInBanks(ctx, tx, orderIDs, payload.BankIDs); err != nil {
			return err
		}
		id, err := s.reportRepo.CreateReport(ctx, tx, report)
		if err != nil {
			return err
		}
		report.ID = id
		if err := s.reportRepo.ReplaceBanks(ctx, tx, id, payload.BankIDs); err != nil {
			return err
		}
		return s.reportRepo.ReplaceOrders(ctx, tx, id, lines)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Акт-отчёт создан",
		zap.Uint64("reportID", report.ID),
		zap.String("deliveryCost", total.StringFixed(2)),
		zap.Uint64("userID", actor.ID),
	)
	return s.regenerate(ctx, report.ID, nil)
}

// UpdateReport - orders заменяет строки и пересчитывает сумму; проверка банков идёт по новому или текущему набору.
func (s *AgentReportService) UpdateReport(ctx context.Context, id uint64, payload dto.UpdateAgentReportDTO) (*dto.AgentReportResponseDTO, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, err
	}
	report, err := s.reportRepo.FindReport(ctx, id)
	if err != nil {
		return nil, err
	}
	oldPath := report.ExcelFilePath

	fromRaw := report.PeriodFrom.Format(utils.DateLayout)
	toRaw := report.PeriodTo.Format(utils.DateLayout)
	if payload.PeriodFrom.Valid {
		fromRaw = payload.PeriodFrom.String
	}
	if payload.PeriodTo.Valid {
		toRaw = payload.PeriodTo.String
	}
	from, to, err := parsePeriod(fromRaw, toRaw)
	if err != nil {
		return nil, err
	}
	report.PeriodFrom, report.PeriodTo = from, to

	if payload.Status.Valid {
		report.Status = payload.Status.String
	}
	if payload.Notes.Valid {
		report.Notes = nullableString(payload.Notes)
	}
	if payload.BankIDs != nil {
		if len(payload.BankIDs) == 0 {
			return nil, fieldError("bank_ids", "Выберите хотя бы один банк")
		}
		if err := s.checkBanks(ctx, payload.BankIDs); err != nil {
			return nil, err
		}
	}

	var lines []entities.AgentReportOrder
	var orderIDs []uint64
	if payload.Orders != nil {
		var total decimal.Decimal
		lines, orderIDs, total, err = buildLines(payload.Orders)
		if err != nil {
			return nil, err
		}
		report.DeliveryCost = total
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if payload.BankIDs != nil {
			if err := s.reportRepo.ReplaceBanks(ctx, tx, id, payload.BankIDs); err != nil {
				return err
			}
		}
		if payload.Orders != nil {
			bankIDs, err := s.reportRepo.GetBankIDs(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := s.checkOrdersInBanks(ctx, tx, orderIDs, bankIDs); err != nil {
				return err
			}
			if err := s.reportRepo.ReplaceOrders(ctx, tx, id, lines); err != nil {
				return err
			}
		}
		return s.reportRepo.UpdateReport(ctx, tx, report)
	})
	if err != nil {
		return nil, err
	}
	return s.regenerate(ctx, id, oldPath)
}

// regenerate пересобирает Excel-файл отчёта. Ошибка генерации не отменяет сохранённый отчёт.
func (s *AgentReportService) regenerate(ctx context.Context, id uint64, oldPath *string) (*dto.AgentReportResponseDTO, error) {
	report, err := s.reportRepo.FindReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.storeWorkbook(ctx, report); err != nil {
		s.logger.Error("Ошибка при генерации Excel файла для акта-отчета", zap.Uint64("reportID", id), zap.Error(err))
	} else if oldPath != nil && *oldPath != "" {
		if err := s.fileStorage.Delete(*oldPath); err != nil {
			s.logger.Warn("Не удалось удалить старый файл акт-отчёта", zap.String("path", *oldPath), zap.Error(err))
		}
	}
	res := agentReportToResponse(report)
	return &res, nil
}

// storeWorkbook сохраняет книгу в хранилище и записывает путь в отчёт.
func (s *AgentReportService) storeWorkbook(ctx context.Context, report *entities.AgentReport) (*bytes.Buffer, error) {
	f, err := buildAgentReportWorkbook(report)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	path, err := s.fileStorage.Save(bytes.NewReader(buf.Bytes()), "agent_report.xlsx", agentReportsDir)
	if err != nil {
		return nil, err
	}
	if err := s.reportRepo.SetExcelPath(ctx, report.ID, path); err != nil {
		_ = s.fileStorage.Delete(path)
		return nil, err
	}
	report.ExcelFilePath = &path
	return buf, nil
}

func (s *AgentReportService) DeleteReport(ctx context.Context, id uint64) error {
	if _, err := s.authorize(ctx); err != nil {
		return err
	}
	report, err := s.reportRepo.FindReport(ctx, id)
	if err != nil {
		return err
	}
	if err := s.reportRepo.DeleteReport(ctx, id); err != nil {
		return err
	}
	if report.ExcelFilePath != nil {
		if err := s.fileStorage.Delete(*report.ExcelFilePath); err != nil {
			s.logger.Warn("Не удалось удалить файл акт-отчёта", zap.String("path", *report.ExcelFilePath), zap.Error(err))
		}
	}
	return nil
}

// Download всегда собирает актуальную книгу.
func (s *AgentReportService) Download(ctx context.Context, id uint64) (io.Reader, *dto.DownloadDTO, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, nil, err
	}
	report, err := s.reportRepo.FindReport(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	oldPath := report.ExcelFilePath
	buf, err := s.storeWorkbook(ctx, report)
	if err != nil {
		s.logger.Error("Не удалось сформировать Excel акт-отчёта", zap.Uint64("reportID", id), zap.Error(err))
		return nil, nil, err
	}
	if oldPath != nil && *oldPath != "" {
		_ = s.fileStorage.Delete(*oldPath)
	}
	return buf, &dto.DownloadDTO{
		FileName:    agentReportFileName(report),
		ContentType: xlsxContentType,
		Size:        int64(buf.Len()),
	}, nil
}

// OrdersForPeriod - завершённые заказы банков с датой доставки в периоде, для заполнения формы.
func (s *AgentReportService) OrdersForPeriod(ctx context.Context, bankIDs []uint64, from, to string) ([]dto.PeriodOrderDTO, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if len(bankIDs) == 0 {
		return nil, fieldError("bank_ids", "Выберите хотя бы один банк")
	}
	if _, _, err := parsePeriod(from, to); err != nil {
		return nil, err
	}
	if err := s.checkBanks(ctx, bankIDs); err != nil {
		return nil, err
	}
	start, end, err := utils.ParseDayRange(from, to)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	orders, err := s.reportRepo.CompletedOrdersForPeriod(ctx, bankIDs, start, end)
	if err != nil {
		return nil, err
	}
	result := make([]dto.PeriodOrderDTO, 0, len(orders))
	for _, o := range orders {
		item := dto.PeriodOrderDTO{
			ID:           o.ID,
			BankID:       o.BankID,
			OrderNumber:  o.OrderNumber,
			Product:      o.Product,
			Name:         o.Name,
			Surname:      o.Surname,
			Phone:        o.Phone,
			Address:      o.Address,
			DeliveryAt:   o.DeliveryAt,
			DeliveredAt:  o.DeliveredAt,
			DeliveryCost: decimal.Zero,
		}
		if o.Bank != nil {
			item.BankName = utils.ToPtr(o.Bank.Name)
		}
		if o.Courier != nil {
			item.Courier = utils.ToPtr(o.Courier.Name)
		}
		result = append(result, item)
	}
	return result, nil
}
