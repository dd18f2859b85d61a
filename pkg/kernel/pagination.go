package kernel

// Page holds pagination metadata for a list response.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"page_size"`
	Total  int `json:"total"`
	Pages  int `json:"pages"`
}

// Paginated is a generic container for one page of results.
type Paginated[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"pagination"`
	Empty bool `json:"empty"`
}

// NewPaginated builds a paginated result with derived page counts.
func NewPaginated[T any](items []T, page, size, total int) Paginated[T] {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}

	return Paginated[T]{
		Items: items,
		Page: Page{
			Number: page,
			Size:   size,
			Total:  total,
			Pages:  pages,
		},
		Empty: len(items) == 0,
	}
}

// HasNext reports whether pages exist after the current one.
func (p Paginated[T]) HasNext() bool {
	return p.Page.Number < p.Page.Pages
}

// PaginationOptions carries page selection for repository queries.
type PaginationOptions struct {
	Page     int
	PageSize int
}
