package shared

import (
	"net/http"
	"strconv"
)

// ListFilters represents standard list page filters.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
	// Trashed selects soft-deleted rows instead of active ones.
	Trashed bool

	// Entity specific filters
	BrandID    *int64
	CategoryID *int64
}

// Offset returns the row offset for the current page.
func (f ListFilters) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// FiltersFromRequest reads page, limit, search, sort and dir from the query string.
func FiltersFromRequest(r *http.Request) ListFilters {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = DefaultPage
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}
	f := ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  q.Get("search"),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
	}
	if id, err := strconv.ParseInt(q.Get("brand_id"), 10, 64); err == nil && id > 0 {
		f.BrandID = &id
	}
	if id, err := strconv.ParseInt(q.Get("category_id"), 10, 64); err == nil && id > 0 {
		f.CategoryID = &id
	}
	return f
}
