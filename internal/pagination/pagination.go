// Package pagination bounds list queries. Audit lookups are "latest N"
// queries, so requests carry a limit rather than a page number.
package pagination

import (
	"gorm.io/gorm"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// LimitRequest holds the limit parsed from query strings.
type LimitRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Defaults fills in the default limit when none was provided.
func (r *LimitRequest) Defaults() {
	r.Limit = ClampLimit(r.Limit)
}

// ClampLimit maps a non-positive limit to DefaultLimit and caps it at MaxLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// ListResponse wraps a bounded list of items with metadata.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
	Limit int `json:"limit"`
}

// NewListResponse creates a ListResponse, never serializing a null list.
func NewListResponse[T any](data []T, limit int) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{Data: data, Count: len(data), Limit: limit}
}

// Latest returns a GORM scope ordering rows newest first and applying the
// clamped limit. Rows sharing a created_time fall back to id order, which
// follows insertion order for UUIDv7 ids.
func Latest(limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("created_time DESC").Order("id DESC").Limit(ClampLimit(limit))
	}
}
