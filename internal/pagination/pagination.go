package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params carries page/sort query parameters through to repository
// queries.
type Params struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// FromQuery parses ?page, ?limit, ?sort_by and ?sort_order with safe
// defaults.
func FromQuery(c *gin.Context) Params {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	sortOrder := c.DefaultQuery("sort_order", "asc")
	if sortOrder != "desc" {
		sortOrder = "asc"
	}

	return Params{
		Page:      page,
		Limit:     limit,
		SortBy:    c.Query("sort_by"),
		SortOrder: sortOrder,
	}
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Scope applies sorting and paging to a query. Sort fields outside
// the whitelist are ignored rather than rejected.
func (p Params) Scope(allowed ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.SortBy != "" && contains(allowed, p.SortBy) {
			db = db.Order(p.SortBy + " " + p.SortOrder)
		}
		return db.Offset(p.Offset()).Limit(p.Limit)
	}
}

func contains(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}

// Page is the envelope list endpoints respond with.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}
