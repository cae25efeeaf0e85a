package dto

// Pagination bounds. Page size requests outside [MinPageSize, MaxPageSize]
// are clamped, never rejected.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MinPageSize     = 1
	MaxPageSize     = 100
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// ListResponse is the envelope for paginated list queries.
type ListResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
}

type PaginationParams struct {
	Page     int
	PageSize int
}

func (p *PaginationParams) Normalize() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize < MinPageSize {
		p.PageSize = MinPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

func (p *PaginationParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages computes ceil(total / pageSize) for the response envelope.
func (p *PaginationParams) TotalPages(total int64) int {
	pages := int(total) / p.PageSize
	if int(total)%p.PageSize > 0 {
		pages++
	}
	return pages
}
