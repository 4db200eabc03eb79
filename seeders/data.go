package seeders

var statusesData = []struct {
	ID    uint64
	Title string
	Color string
}{
	{ID: 1, Title: "Новые", Color: "#56CCF2"},
	{ID: 2, Title: "Принято в работу", Color: "#2F80ED"},
	{ID: 3, Title: "Ждёт проверку", Color: "#9B51E0"},
	{ID: 4, Title: "Завершено", Color: "#27AE60"},
	{ID: 5, Title: "Перенос", Color: "#F2C94C"},
	{ID: 6, Title: "Отменено", Color: "#EB5757"},
}

var demoBank = struct {
	Name        string
	Phone       string
	Email       string
	OrderPrefix string
}{
	Name:        "Демо Банк",
	Phone:       "+992900000000",
	Email:       "bank@demo.tj",
	OrderPrefix: "DB",
}

var demoUsers = []struct {
	Name  string
	Email string
	Phone string
	Role  string
}{
	{Name: "Администратор", Email: "admin@demo.tj", Phone: "+992900000001", Role: "admin"},
	{Name: "Менеджер", Email: "manager@demo.tj", Phone: "+992900000002", Role: "manager"},
	{Name: "Курьер", Email: "courier@demo.tj", Phone: "+992900000003", Role: "courier"},
	{Name: "Сотрудник банка", Email: "bank-user@demo.tj", Phone: "+992900000004", Role: "bank"},
}
