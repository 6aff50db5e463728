// Package listutil parses list-view query parameters (paging, sorting,
// search) and computes pagination metadata for the admin list pages.
package listutil

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 20

// MaxSearchLength bounds the free-text search term, in characters.
const MaxSearchLength = 100

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 20, 50, 100}

// Params carries the list view state parsed from a request.
type Params struct {
	Page    int    // 1-indexed
	PerPage int
	Sort    string // one of the caller's sortable columns, or ""
	Dir     string // "asc" or "desc"
	Search  string
}

// Parse reads page, per_page, sort, dir and q from query values.
// PRE: sortable lists the columns the caller can order by
// POST: every field holds a usable value; unknown input falls back to defaults
func Parse(q url.Values, sortable []string) Params {
	p := Params{Dir: "asc"}

	p.Page, _ = strconv.Atoi(q.Get("page"))
	if p.Page < 1 {
		p.Page = 1
	}
	p.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	if !contains(PerPageOptions, p.PerPage) {
		p.PerPage = DefaultPerPage
	}
	if s := q.Get("sort"); contains(sortable, s) {
		p.Sort = s
	}
	if q.Get("dir") == "desc" {
		p.Dir = "desc"
	}
	p.Search = strings.TrimSpace(q.Get("q"))
	if r := []rune(p.Search); len(r) > MaxSearchLength {
		p.Search = string(r[:MaxSearchLength])
	}
	return p
}

// Query encodes p back into query values, omitting defaults. Used to build
// pagination and sort links that keep the rest of the view state.
func (p Params) Query() url.Values {
	v := url.Values{}
	if p.Page > 1 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage != DefaultPerPage && p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	if p.Dir == "desc" {
		v.Set("dir", "desc")
	}
	if p.Search != "" {
		v.Set("q", p.Search)
	}
	return v
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPageInfo computes pagination metadata, clamping page into range.
// POST: 1 <= Page <= TotalPages, TotalPages >= 1
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	return PageInfo{
		Page:       min(max(page, 1), totalPages),
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the row offset of the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// StartRow returns the 1-indexed first row on the page, 0 when empty.
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow returns the 1-indexed last row on the page.
func (p PageInfo) EndRow() int {
	return min(p.Offset()+p.PerPage, p.Total)
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }

// PageNumbers returns at most five page numbers centred on the current page.
func (p PageInfo) PageNumbers() []int {
	const window = 5
	start := max(p.Page-window/2, 1)
	end := start + window - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = max(end-window+1, 1)
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
