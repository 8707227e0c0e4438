// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"
)

// DefaultLimit is the page size used when the caller does not supply one.
const DefaultLimit = 20

// MaxLimit bounds caller-supplied page sizes.
const MaxLimit = 100

// Page is a 1-based page number plus a bounded page size.
type Page struct {
	Number int
	Limit  int
}

// FromRequest reads "page" and "limit" query parameters, clamping both
// to valid ranges. Invalid or missing values fall back to page 1 and
// DefaultLimit.
func FromRequest(r *http.Request) Page {
	p := Page{Number: 1, Limit: DefaultLimit}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v >= 1 {
		p.Number = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v >= 1 {
		p.Limit = v
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Skip returns the document offset for Mongo Find().SetSkip().
func (p Page) Skip() int64 { return int64(p.Number-1) * int64(p.Limit) }

// Meta is the pagination block returned alongside a page of results.
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// MetaFor computes the result metadata for a page and a total count.
func MetaFor(p Page, total int64) Meta {
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Meta{Page: p.Number, Limit: p.Limit, Total: total, Pages: pages}
}
