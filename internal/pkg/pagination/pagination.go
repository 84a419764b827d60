// Package pagination holds the list contract shared by every resource:
// free-text filter, status selector and page window.
package pagination

import (
	"fmt"
	"math"
	"strings"

	"lending-service/internal/pkg/apperrors"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 50
	MaxPageSize     = 100
)

type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

func DefaultLimits() Limits {
	return Limits{DefaultPageSize: DefaultPageSize, MaxPageSize: MaxPageSize}
}

// Normalize fills zero values with the package defaults.
func (l Limits) Normalize() Limits {
	if l.MaxPageSize <= 0 {
		l.MaxPageSize = MaxPageSize
	}
	if l.DefaultPageSize <= 0 {
		l.DefaultPageSize = DefaultPageSize
	}
	if l.DefaultPageSize > l.MaxPageSize {
		l.DefaultPageSize = l.MaxPageSize
	}
	return l
}

type Params struct {
	Filter   string
	Status   bool
	Page     int
	PageSize int
}

func New(filter string, status bool, page, pageSize int, limits Limits) (Params, error) {
	limits = limits.Normalize()
	if page == 0 {
		page = DefaultPage
	}
	if pageSize == 0 {
		pageSize = limits.DefaultPageSize
	}
	if page < 1 {
		return Params{}, fmt.Errorf("%w: page must be greater than or equal to 1", apperrors.ErrInvalidArgument)
	}
	if pageSize < 1 || pageSize > limits.MaxPageSize {
		return Params{}, fmt.Errorf("%w: page_size must be between 1 and %d", apperrors.ErrInvalidArgument, limits.MaxPageSize)
	}
	// Offset must stay representable.
	if page-1 > math.MaxInt/pageSize {
		return Params{}, fmt.Errorf("%w: page must be at most %d", apperrors.ErrInvalidArgument, math.MaxInt/pageSize+1)
	}
	return Params{
		Filter:   strings.TrimSpace(filter),
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (p Params) Limit() int {
	return p.PageSize
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func (p Params) HasFilter() bool {
	return p.Filter != ""
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Pattern returns the ILIKE substring pattern for the filter, with LIKE
// metacharacters escaped so they match literally.
func (p Params) Pattern() string {
	return "%" + likeEscaper.Replace(p.Filter) + "%"
}
