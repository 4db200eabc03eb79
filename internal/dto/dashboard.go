package dto

// StatisticsFilterDTO - общие параметры статистики из query.
type StatisticsFilterDTO struct {
	Period    string  `query:"period"`
	CourierID *uint64 `query:"courier_id"`
	BankID    *uint64 `query:"bank_id"`
	From      string  `query:"from"`
	To        string  `query:"to"`
}
