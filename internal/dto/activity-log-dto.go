package dto

// ChangeDTO - старое и новое значение поля в читаемом виде.
type ChangeDTO struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

type ActivityLogEntryDTO struct {
	Description string               `json:"description"`
	Changes     map[string]ChangeDTO `json:"changes"`
	User        *string              `json:"user"`
	Date        string               `json:"date"`
}
