package shared

import (
	"net/url"
	"strconv"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Pagination is the page window of a listing and, once counted, its totals.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PageFromQuery reads ?page and ?perPage. Missing or invalid values fall back
// to page 1 of 20 rows; perPage is capped at 100.
func PageFromQuery(q url.Values) Pagination {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(q.Get("perPage"))
	switch {
	case err != nil || perPage < 1:
		perPage = defaultPerPage
	case perPage > maxPerPage:
		perPage = maxPerPage
	}
	return Pagination{Page: page, PerPage: perPage}
}

// WithTotal fills Total and TotalPages.
func (p Pagination) WithTotal(total int) Pagination {
	p.Total = total
	p.TotalPages = 0
	if total > 0 {
		p.TotalPages = (total + p.PerPage - 1) / p.PerPage
	}
	return p
}

// Limit is the row count of one page.
func (p Pagination) Limit() uint64 { return uint64(p.PerPage) }

// Offset returns the row offset of the page.
func (p Pagination) Offset() uint64 {
	return uint64((p.Page - 1) * p.PerPage)
}
