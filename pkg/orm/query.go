// Package orm holds query helpers shared by repositories.
package orm

import (
	"math"
	"strconv"

	"gorm.io/gorm"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Pagination is the metadata block returned alongside a page of results.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PageRequest parses page/per_page query values, clamping to sane bounds.
func PageRequest(page, perPage string) Pagination {
	p, _ := strconv.Atoi(page)
	if p < 1 {
		p = 1
	}
	pp, _ := strconv.Atoi(perPage)
	switch {
	case pp < 1:
		pp = DefaultPerPage
	case pp > MaxPerPage:
		pp = MaxPerPage
	}
	return Pagination{Page: p, PerPage: pp}
}

// Paginate counts q, then loads the requested page into dest with scopes
// (typically preloads) applied to the page query only.
func Paginate(q *gorm.DB, p Pagination, dest interface{}, scopes ...func(*gorm.DB) *gorm.DB) (Pagination, error) {
	if err := q.Session(&gorm.Session{}).Count(&p.Total).Error; err != nil {
		return p, err
	}
	p.TotalPages = int(math.Ceil(float64(p.Total) / float64(p.PerPage)))

	err := q.Session(&gorm.Session{}).
		Scopes(scopes...).
		Offset((p.Page - 1) * p.PerPage).
		Limit(p.PerPage).
		Find(dest).Error
	return p, err
}
