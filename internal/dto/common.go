package dto

type ShortBankDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type ShortUserDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type ShortUserWithRoleDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type ShortStatusDTO struct {
	ID    uint64  `json:"id"`
	Title string  `json:"title"`
	Color *string `json:"color"`
}

// IDsDTO - тело массовых операций.
type IDsDTO struct {
	IDs []uint64 `json:"ids"`
}
