package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
)

func TestBuildLines(t *testing.T) {
	t.Run("итог округляется до копеек", func(t *testing.T) {
		lines, ids, total, err := buildLines([]dto.AgentReportOrderInputDTO{
			{OrderID: 3, DeliveryCost: decimal.RequireFromString("150.255")},
			{OrderID: 8, DeliveryCost: decimal.RequireFromString("49.5")},
		})
		require.NoError(t, err)
		assert.Equal(t, []uint64{3, 8}, ids)
		require.Len(t, lines, 2)
		assert.Equal(t, "150.26", lines[0].DeliveryCost.StringFixed(2))
		assert.Equal(t, "199.76", total.StringFixed(2))
	})

	cases := map[string][]dto.AgentReportOrderInputDTO{
		"нулевой заказ":           {{OrderID: 0, DeliveryCost: decimal.NewFromInt(10)}},
		"повтор заказа":           {{OrderID: 3, DeliveryCost: decimal.NewFromInt(10)}, {OrderID: 3, DeliveryCost: decimal.NewFromInt(5)}},
		"отрицательная стоимость": {{OrderID: 3, DeliveryCost: decimal.NewFromInt(-1)}},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := buildLines(items)
			requireHTTPCode(t, err, http.StatusUnprocessableEntity)
		})
	}
}

func TestParsePeriod(t *testing.T) {
	from, to, err := parsePeriod("2026-09-01", "2026-09-30")
	require.NoError(t, err)
	assert.Equal(t, 1, from.Day())
	assert.Equal(t, 30, to.Day())

	_, _, err = parsePeriod("2026-09-30", "2026-09-01")
	requireHTTPCode(t, err, http.StatusUnprocessableEntity)

	_, _, err = parsePeriod("01.09.2026", "2026-09-30")
	requireHTTPCode(t, err, http.StatusUnprocessableEntity)
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":          "0,00",
		"999.5":      "999,50",
		"1234.5":     "1 234,50",
		"1234567.89": "1 234 567,89",
		"-2500":      "-2 500,00",
	}
	for in, want := range cases {
		report := &entities.AgentReport{DeliveryCost: decimal.RequireFromString(in)}
		assert.Equal(t, want, formatMoney(report), in)
	}
}

func sampleAgentReport() *entities.AgentReport {
	number1, number2 := "DB00001", "DB00002"
	delivered := time.Date(2026, 9, 12, 15, 0, 0, 0, time.Local)
	return &entities.AgentReport{
		PeriodFrom:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local),
		PeriodTo:     time.Date(2026, 9, 30, 0, 0, 0, 0, time.Local),
		DeliveryCost: decimal.RequireFromString("1234.5"),
		Banks:        []entities.BankShort{{ID: 1, Name: "Алиф"}, {ID: 2, Name: "Эсхата"}},
		Orders: []entities.AgentReportOrder{
			{OrderID: 1, DeliveryCost: decimal.RequireFromString("1000"), Order: &entities.Order{
				OrderNumber: &number1,
				Product:     "Карта",
				Surname:     "Рахимов",
				Name:        "Али",
				Address:     "ул. Рудаки, 1",
				DeliveredAt: &delivered,
				Bank:        &entities.BankShort{ID: 1, Name: "Алиф"},
				Courier:     &entities.UserShort{ID: 5, Name: "Саид"},
			}},
			{OrderID: 2, DeliveryCost: decimal.RequireFromString("234.5"), Order: &entities.Order{
				OrderNumber: &number2,
				Product:     "Кредит",
				DeliveryAt:  delivered,
			}},
		},
	}
}

func TestAgentReportFileName(t *testing.T) {
	assert.Equal(t, "Акт-отчет_Алиф, Эсхата_2026-09-01_2026-09-30.xlsx", agentReportFileName(sampleAgentReport()))

	empty := sampleAgentReport()
	empty.Banks = nil
	assert.Equal(t, "Акт-отчет_банки_2026-09-01_2026-09-30.xlsx", agentReportFileName(empty))
}

func TestBuildAgentReportWorkbook(t *testing.T) {
	f, err := buildAgentReportWorkbook(sampleAgentReport())
	require.NoError(t, err)
	defer f.Close()

	cell := func(axis string) string {
		v, err := f.GetCellValue(agentReportSheet, axis)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "АКТ-ОТЧЕТ АГЕНТА", cell("A1"))
	assert.Equal(t, "Период: с 01.09.2026 по 30.09.2026", cell("A2"))
	assert.Equal(t, "Банки: Алиф, Эсхата", cell("A3"))
	assert.Equal(t, "Номер заказа", cell("B5"))

	assert.Equal(t, "DB00001", cell("B6"))
	assert.Equal(t, "Алиф", cell("C6"))
	assert.Equal(t, "Рахимов Али", cell("E6"))
	assert.Equal(t, "12.09.2026", cell("G6"))
	assert.Equal(t, "Саид", cell("H6"))

	// без даты вручения берётся плановая дата
	assert.Equal(t, "12.09.2026", cell("G7"))
	assert.Empty(t, cell("C7"))

	assert.Equal(t, "ИТОГО:", cell("A8"))
	formula, err := f.GetCellFormula(agentReportSheet, "I8")
	require.NoError(t, err)
	assert.Equal(t, "SUM(I6:I7)", formula)
	assert.Equal(t, "Итого стоимость доставки: 1 234,50 руб.", cell("A10"))
}

func TestSheetWriter_KeepsFirstError(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	w := &sheetWriter{f: f, sheet: "Нет такого листа"}
	w.value("A1", "x")
	require.Error(t, w.err)
	first := w.err

	w.merge("A1", "B1")
	w.style("A1", "B1", 0)
	assert.Equal(t, first, w.err)

	w = &sheetWriter{f: f, sheet: f.GetSheetName(0)}
	w.value("A1", "ok")
	w.row(1, 2, []interface{}{1, "два"})
	require.NoError(t, w.err)
	w.formula("не ячейка", "SUM(A1:A2)")
	assert.Error(t, w.err)
}

func TestFillAgentReportSheet_ReturnsExcelErrors(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	// лист акт-отчёта не создан
	assert.Error(t, fillAgentReportSheet(f, sampleAgentReport()))
}
