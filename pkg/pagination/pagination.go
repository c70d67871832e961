// Package pagination parses page/per_page query parameters and shapes paged
// list responses.
package pagination

import (
	"net/http"
	"strconv"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params selects one page of a list. Page is 1-based.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// DefaultParams returns the first page at the default size.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: DefaultPerPage}
}

// Normalize fills in defaults for zero or negative values and caps PerPage.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PerPage < 1:
		p.PerPage = DefaultPerPage
	case p.PerPage > MaxPerPage:
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset is the number of rows to skip for this page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PerPage
}

// FromRequest reads page and per_page from the query string. Absent values
// take defaults; values that are present but not positive integers, or a
// per_page above MaxPerPage, are rejected as invalid input.
func FromRequest(r *http.Request) (Params, error) {
	p := DefaultParams()
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return Params{}, apperrors.InvalidInput("page must be a positive integer")
		}
		p.Page = v
	}

	if raw := q.Get("per_page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > MaxPerPage {
			return Params{}, apperrors.InvalidInput("per_page must be between 1 and " + strconv.Itoa(MaxPerPage))
		}
		p.PerPage = v
	}

	return p, nil
}

// Result is one page of items plus enough totals for a pager.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResult builds a Result. A nil data slice is rendered as an empty list.
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	p := params.Normalize()
	if data == nil {
		data = []T{}
	}
	pages := (totalCount + p.PerPage - 1) / p.PerPage

	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: pages,
		HasNext:    p.Page < pages,
		HasPrev:    p.Page > 1,
	}
}
