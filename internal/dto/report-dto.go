package dto

import (
	"time"

	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"
)

type AgentReportOrderInputDTO struct {
	OrderID      uint64          `json:"order_id" validate:"required,gt=0"`
	DeliveryCost decimal.Decimal `json:"delivery_cost"`
}

type CreateAgentReportDTO struct {
	BankIDs    []uint64                   `json:"bank_ids" validate:"required,min=1,dive,gt=0"`
	PeriodFrom string                     `json:"period_from" validate:"required"`
	PeriodTo   string                     `json:"period_to" validate:"required"`
	Notes      *string                    `json:"notes"`
	Orders     []AgentReportOrderInputDTO `json:"orders" validate:"required,min=1,dive"`
}

// UpdateAgentReportDTO - все поля необязательны; orders заменяет строки целиком.
type UpdateAgentReportDTO struct {
	BankIDs    []uint64                   `json:"bank_ids" validate:"omitempty,min=1,dive,gt=0"`
	PeriodFrom null.String                `json:"period_from"`
	PeriodTo   null.String                `json:"period_to"`
	Status     null.String                `json:"status" validate:"omitempty,report_status"`
	Notes      null.String                `json:"notes"`
	Orders     []AgentReportOrderInputDTO `json:"orders" validate:"omitempty,dive"`
}

type AgentReportOrderResponseDTO struct {
	ID           uint64            `json:"id"`
	OrderID      uint64            `json:"order_id"`
	DeliveryCost decimal.Decimal   `json:"delivery_cost"`
	Order        *OrderResponseDTO `json:"order,omitempty"`
}

type AgentReportResponseDTO struct {
	ID            uint64                        `json:"id"`
	PeriodFrom    string                        `json:"period_from"`
	PeriodTo      string                        `json:"period_to"`
	DeliveryCost  decimal.Decimal               `json:"delivery_cost"`
	Status        string                        `json:"status"`
	ExcelFilePath *string                       `json:"excel_file_path"`
	Notes         *string                       `json:"notes"`
	Creator       *ShortUserDTO                 `json:"creator"`
	Banks         []ShortBankDTO                `json:"banks"`
	Orders        []AgentReportOrderResponseDTO `json:"orders,omitempty"`
	CreatedAt     time.Time                     `json:"created_at"`
	UpdatedAt     time.Time                     `json:"updated_at"`
}

// PeriodOrderDTO - завершённый заказ, доступный для включения в отчёт.
type PeriodOrderDTO struct {
	ID           uint64          `json:"id"`
	BankID       uint64          `json:"bank_id"`
	BankName     *string         `json:"bank_name"`
	OrderNumber  *string         `json:"order_number"`
	Product      string          `json:"product"`
	Name         string          `json:"name"`
	Surname      string          `json:"surname"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	DeliveryAt   time.Time       `json:"delivery_at"`
	DeliveredAt  *time.Time      `json:"delivered_at"`
	Courier      *string         `json:"courier"`
	DeliveryCost decimal.Decimal `json:"delivery_cost"`
}
