package types

// Filter - параметры фильтрации и пагинации из query string.
// ?search=Иван&sort[id]=desc&filter[bank_id]=1,2&courier_id=none&page=2&limit=20
type Filter struct {
	Search         string                 `json:"search,omitempty"`
	Sort           map[string]string      `json:"sort,omitempty"`
	Filter         map[string]interface{} `json:"filter,omitempty"`
	Limit          int                    `json:"limit"`
	Offset         int                    `json:"offset"`
	Page           int                    `json:"page"`
	WithPagination bool                   `json:"with_pagination"`
}

// Get возвращает значение фильтра строкой, "" если его нет.
func (f Filter) Get(key string) string {
	v, ok := f.Filter[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

type Pagination struct {
	TotalCount uint64 `json:"total_count"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"total_pages"`
}

// ListResult - страница результатов с общим количеством записей.
type ListResult[T any] struct {
	List       []T        `json:"list"`
	Pagination Pagination `json:"pagination"`
}
