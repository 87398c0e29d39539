package types

// PaginationParams is bound from query parameters on list endpoints.
// Out-of-range values are rejected by binding before any query runs.
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// TotalPages is ceil(total/perPage) for a non-empty set, 0 otherwise.
func TotalPages(total int64, perPage int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
