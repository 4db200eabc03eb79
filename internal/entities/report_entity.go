package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type AgentReport struct {
	ID            uint64          `json:"id" db:"id"`
	PeriodFrom    time.Time       `json:"period_from" db:"period_from"`
	PeriodTo      time.Time       `json:"period_to" db:"period_to"`
	DeliveryCost  decimal.Decimal `json:"delivery_cost" db:"delivery_cost"`
	Status        string          `json:"status" db:"status"`
	ExcelFilePath *string         `json:"excel_file_path" db:"excel_file_path"`
	CreatedBy     uint64          `json:"created_by" db:"created_by"`
	Notes         *string         `json:"notes" db:"notes"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	Creator *UserShort         `json:"creator,omitempty" db:"-"`
	Banks   []BankShort        `json:"banks" db:"-"`
	Orders  []AgentReportOrder `json:"orders,omitempty" db:"-"`
}

// AgentReportOrder - строка акт-отчёта: заказ и стоимость его доставки.
type AgentReportOrder struct {
	ID            uint64          `json:"id" db:"id"`
	AgentReportID uint64          `json:"agent_report_id" db:"agent_report_id"`
	OrderID       uint64          `json:"order_id" db:"order_id"`
	DeliveryCost  decimal.Decimal `json:"delivery_cost" db:"delivery_cost"`

	Order *Order `json:"order,omitempty" db:"-"`
}
