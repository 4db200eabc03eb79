package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"delivery-system/internal/services"
)

const jobTimeout = 10 * time.Minute

// Scheduler - фоновые задачи по расписанию (формат с секундами).
type Scheduler struct {
	cron        *cron.Cron
	maintenance services.MaintenanceServiceInterface
	logger      *zap.Logger
}

func NewScheduler(maintenance services.MaintenanceServiceInterface, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		maintenance: maintenance,
		logger:      logger,
	}
}

// RegisterActivityLogCleanup ставит ночную очистку осиротевших записей журнала.
// Пустое расписание отключает задачу.
func (s *Scheduler) RegisterActivityLogCleanup(spec string) error {
	if spec == "" {
		s.logger.Info("Очистка журнала действий по расписанию отключена")
		return nil
	}
	_, err := s.cron.AddFunc(spec, s.cleanupActivityLogs)
	if err != nil {
		return err
	}
	s.logger.Info("Задача очистки журнала действий запланирована", zap.String("spec", spec))
	return nil
}

func (s *Scheduler) cleanupActivityLogs() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	deleted, err := s.maintenance.CleanupOrphanedOrderLogs(ctx)
	if err != nil {
		s.logger.Error("Cron: ошибка очистки журнала действий", zap.Error(err))
		return
	}
	s.logger.Info("Cron: очистка журнала действий завершена", zap.Int64("deleted", deleted))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop ждёт завершения уже запущенных задач.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
