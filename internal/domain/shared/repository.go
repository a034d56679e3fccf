package shared

// Page is an offset window over an ordered listing
type Page struct {
	Take int
	Skip int
}

// Normalize applies defaultTake when Take is unset and caps it at maxTake
func (p Page) Normalize(defaultTake, maxTake int) Page {
	if p.Take <= 0 {
		p.Take = defaultTake
	}
	if maxTake > 0 && p.Take > maxTake {
		p.Take = maxTake
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
	return p
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Take  int   `json:"take"`
	Skip  int   `json:"skip"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page Page) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	return Paginated[T]{
		Items: items,
		Total: total,
		Take:  page.Take,
		Skip:  page.Skip,
	}
}
