package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/utils"
)

// OrderNumberer выдаёт номера заказов вида <ПРЕФИКС><00001> в пределах банка.
type OrderNumberer struct {
	orderRepo repositories.OrderRepositoryInterface
	bankRepo  repositories.BankRepositoryInterface
	txManager repositories.TxManagerInterface
	logger    *zap.Logger
}

func NewOrderNumberer(
	orderRepo repositories.OrderRepositoryInterface,
	bankRepo repositories.BankRepositoryInterface,
	txManager repositories.TxManagerInterface,
	logger *zap.Logger,
) *OrderNumberer {
	return &OrderNumberer{orderRepo: orderRepo, bankRepo: bankRepo, txManager: txManager, logger: logger}
}

func bankPrefix(bank *entities.Bank) string {
	return utils.OrderNumberPrefix(bank.Name, utils.SafeDeref(bank.OrderPrefix))
}

// Next резервирует следующий свободный номер банка. Вызывается внутри транзакции
// создания заказа: advisory lock держится до её конца.
func (n *OrderNumberer) Next(ctx context.Context, tx pgx.Tx, bank *entities.Bank) (string, error) {
	if err := n.orderRepo.LockBankNumbering(ctx, tx, bank.ID); err != nil {
		return "", fmt.Errorf("не удалось заблокировать нумерацию банка %d: %w", bank.ID, err)
	}
	count, err := n.orderRepo.CountNumberedByBank(ctx, tx, bank.ID)
	if err != nil {
		return "", err
	}
	number, _, err := n.firstFree(ctx, tx, bankPrefix(bank), count+1)
	return number, err
}

// firstFree пропускает номера, уже занятые любым заказом. Возвращает номер и его счётчик.
func (n *OrderNumberer) firstFree(ctx context.Context, tx pgx.Tx, prefix string, start int) (string, int, error) {
	for i := start; ; i++ {
		number := utils.FormatOrderNumber(prefix, i)
		exists, err := n.orderRepo.OrderNumberExists(ctx, tx, number)
		if err != nil {
			return "", 0, err
		}
		if !exists {
			return number, i, nil
		}
	}
}

// GenerateMissing нумерует заказы без номера. Счётчик каждого банка начинается с 1,
// занятые номера пропускаются. Возвращает количество пронумерованных заказов.
func (n *OrderNumberer) GenerateMissing(ctx context.Context) (int, error) {
	orders, err := n.orderRepo.FindUnnumbered(ctx)
	if err != nil {
		return 0, err
	}
	if len(orders) == 0 {
		return 0, nil
	}

	byBank := make(map[uint64][]entities.Order)
	var bankOrder []uint64
	for _, o := range orders {
		if _, ok := byBank[o.BankID]; !ok {
			bankOrder = append(bankOrder, o.BankID)
		}
		byBank[o.BankID] = append(byBank[o.BankID], o)
	}

	numbered := 0
	for _, bankID := range bankOrder {
		bankOrders := byBank[bankID]
		bank, err := n.bankRepo.FindBank(ctx, bankID)
		if err != nil {
			return numbered, fmt.Errorf("банк %d: %w", bankID, err)
		}
		prefix := bankPrefix(bank)

		err = n.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
			if err := n.orderRepo.LockBankNumbering(ctx, tx, bankID); err != nil {
				return err
			}
			next := 1
			for _, o := range bankOrders {
				number, used, err := n.firstFree(ctx, tx, prefix, next)
				if err != nil {
					return err
				}
				if _, err := n.orderRepo.UpdateOrderFields(ctx, tx, []uint64{o.ID}, map[string]interface{}{"order_number": number}); err != nil {
					return err
				}
				next = used + 1
			}
			return nil
		})
		if err != nil {
			return numbered, fmt.Errorf("банк %d: %w", bankID, err)
		}
		numbered += len(bankOrders)
		n.logger.Info("Заказы банка пронумерованы", zap.Uint64("bankID", bankID), zap.Int("count", len(bankOrders)))
	}
	return numbered, nil
}
