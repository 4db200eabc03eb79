package services

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"delivery-system/internal/entities"
	"delivery-system/pkg/utils"
)

const (
	agentReportSheet    = "Акт-отчет"
	agentReportHeadRow  = 5
	agentReportFirstRow = 6
	moneyFormat         = "#,##0.00"
)

var agentReportHeadings = []string{
	"№",
	"Номер заказа",
	"Банк",
	"Продукт",
	"Клиент",
	"Адрес",
	"Дата доставки",
	"Курьер",
	"Стоимость доставки, руб.",
}

var agentReportWidths = map[string]float64{
	"A": 6, "B": 18, "C": 18, "D": 22, "E": 28, "F": 35, "G": 18, "H": 20, "I": 22,
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

// agentReportStyles - стили листа, создаются один раз на книгу.
type agentReportStyles struct {
	title, header, cell, center, money, total, totalMoney, summary int
}

func newAgentReportStyles(f *excelize.File) (*agentReportStyles, error) {
	numFmt := moneyFormat
	defs := []*excelize.Style{
		{
			Font:      &excelize.Font{Bold: true, Size: 16},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		},
		{
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    thinBorder(),
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0EDFF"}},
		},
		{
			Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
			Border:    thinBorder(),
		},
		{
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorder(),
		},
		{
			Alignment:    &excelize.Alignment{Horizontal: "right", Vertical: "center"},
			Border:       thinBorder(),
			CustomNumFmt: &numFmt,
		},
		{
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
			Border:    thinBorder(),
		},
		{
			Font:         &excelize.Font{Bold: true},
			Alignment:    &excelize.Alignment{Horizontal: "right", Vertical: "center"},
			Border:       thinBorder(),
			CustomNumFmt: &numFmt,
		},
		{
			Font:      &excelize.Font{Bold: true, Size: 12},
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
			Border:    thinBorder(),
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0EDFF"}},
		},
	}
	st := &agentReportStyles{}
	targets := []*int{&st.title, &st.header, &st.cell, &st.center, &st.money, &st.total, &st.totalMoney, &st.summary}
	for i, d := range defs {
		id, err := f.NewStyle(d)
		if err != nil {
			return nil, err
		}
		*targets[i] = id
	}
	return st, nil
}

func bankNames(banks []entities.BankShort) string {
	names := make([]string, 0, len(banks))
	for _, b := range banks {
		names = append(names, b.Name)
	}
	return strings.Join(names, ", ")
}

// agentReportFileName - имя файла при скачивании.
func agentReportFileName(report *entities.AgentReport) string {
	names := bankNames(report.Banks)
	if names == "" {
		names = "банки"
	}
	return utils.SanitizeFileName(fmt.Sprintf("Акт-отчет_%s_%s_%s.xlsx",
		names, report.PeriodFrom.Format(utils.DateLayout), report.PeriodTo.Format(utils.DateLayout)))
}

// buildAgentReportWorkbook строит книгу акт-отчёта по строкам отчёта.
func buildAgentReportWorkbook(report *entities.AgentReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", agentReportSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := fillAgentReportSheet(f, report); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// sheetWriter запоминает первую ошибку excelize, после неё вызовы ничего не делают.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) do(fn func() error) {
	if w.err == nil {
		w.err = fn()
	}
}

func (w *sheetWriter) value(cell string, v interface{}) {
	w.do(func() error { return w.f.SetCellValue(w.sheet, cell, v) })
}

func (w *sheetWriter) formula(cell, formula string) {
	w.do(func() error { return w.f.SetCellFormula(w.sheet, cell, formula) })
}

func (w *sheetWriter) style(from, to string, styleID int) {
	w.do(func() error { return w.f.SetCellStyle(w.sheet, from, to, styleID) })
}

func (w *sheetWriter) merge(from, to string) {
	w.do(func() error { return w.f.MergeCell(w.sheet, from, to) })
}

func (w *sheetWriter) row(col, row int, values []interface{}) {
	w.do(func() error {
		start, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return w.f.SetSheetRow(w.sheet, start, &values)
	})
}

func fillAgentReportSheet(f *excelize.File, report *entities.AgentReport) error {
	st, err := newAgentReportStyles(f)
	if err != nil {
		return err
	}
	w := &sheetWriter{f: f, sheet: agentReportSheet}

	for col, width := range agentReportWidths {
		w.do(func() error { return f.SetColWidth(w.sheet, col, col, width) })
	}

	w.merge("A1", "I1")
	w.value("A1", "АКТ-ОТЧЕТ АГЕНТА")
	w.style("A1", "I1", st.title)
	w.do(func() error { return f.SetRowHeight(w.sheet, 1, 24) })

	w.merge("A2", "I2")
	w.value("A2", fmt.Sprintf("Период: с %s по %s",
		report.PeriodFrom.Format(utils.DisplayDate), report.PeriodTo.Format(utils.DisplayDate)))
	w.merge("A3", "I3")
	w.value("A3", "Банки: "+bankNames(report.Banks))

	headings := make([]interface{}, 0, len(agentReportHeadings))
	for _, heading := range agentReportHeadings {
		headings = append(headings, heading)
	}
	w.row(1, agentReportHeadRow, headings)
	w.style(fmt.Sprintf("A%d", agentReportHeadRow), fmt.Sprintf("I%d", agentReportHeadRow), st.header)

	row := agentReportFirstRow
	for i, line := range report.Orders {
		o := line.Order
		if o == nil {
			o = &entities.Order{}
		}
		date := o.DeliveredAt
		if date == nil && !o.DeliveryAt.IsZero() {
			date = &o.DeliveryAt
		}
		dateText := ""
		if date != nil {
			dateText = date.Local().Format(utils.DisplayDate)
		}
		bank, courier := "", ""
		if o.Bank != nil {
			bank = o.Bank.Name
		}
		if o.Courier != nil {
			courier = o.Courier.Name
		}
		cost, _ := line.DeliveryCost.Float64()

		w.row(1, row, []interface{}{
			i + 1,
			utils.SafeDeref(o.OrderNumber),
			bank,
			o.Product,
			o.ClientFullName(),
			o.Address,
			dateText,
			courier,
			cost,
		})
		w.style(fmt.Sprintf("A%d", row), fmt.Sprintf("I%d", row), st.cell)
		w.style(fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), st.center)
		w.style(fmt.Sprintf("G%d", row), fmt.Sprintf("G%d", row), st.center)
		w.style(fmt.Sprintf("I%d", row), fmt.Sprintf("I%d", row), st.money)
		row++
	}
	lastRow := row - 1
	totalRow := row
	summaryRow := totalRow + 2

	w.merge(fmt.Sprintf("A%d", totalRow), fmt.Sprintf("H%d", totalRow))
	w.value(fmt.Sprintf("A%d", totalRow), "ИТОГО:")
	totalCell := fmt.Sprintf("I%d", totalRow)
	if len(report.Orders) > 0 {
		w.formula(totalCell, fmt.Sprintf("SUM(I%d:I%d)", agentReportFirstRow, lastRow))
	} else {
		w.value(totalCell, 0)
	}
	w.style(fmt.Sprintf("A%d", totalRow), fmt.Sprintf("H%d", totalRow), st.total)
	w.style(totalCell, totalCell, st.totalMoney)

	summaryStart := fmt.Sprintf("A%d", summaryRow)
	summaryEnd := fmt.Sprintf("I%d", summaryRow+1)
	w.merge(summaryStart, summaryEnd)
	w.value(summaryStart, fmt.Sprintf("Итого стоимость доставки: %s руб.", formatMoney(report)))
	w.style(summaryStart, summaryEnd, st.summary)

	return w.err
}

// formatMoney - "1 234,50", как в русской локали Excel.
func formatMoney(report *entities.AgentReport) string {
	fixed := report.DeliveryCost.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	negative := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var sb strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteRune(' ')
		}
		sb.WriteRune(r)
	}
	result := sb.String() + "," + frac
	if negative {
		result = "-" + result
	}
	return result
}
