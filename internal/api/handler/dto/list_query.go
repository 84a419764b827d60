package dto

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"lending-service/internal/pkg/apperrors"
	"lending-service/internal/pkg/pagination"
)

// ParseListQuery reads filter, status, page and page_size from the query
// string. Absent values take their defaults; malformed ones are rejected.
func ParseListQuery(values url.Values, limits pagination.Limits) (pagination.Params, error) {
	status := true
	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return pagination.Params{}, fmt.Errorf("%w: status must be a boolean", apperrors.ErrInvalidArgument)
		}
		status = parsed
	}

	page, err := parseOptionalInt(values, "page")
	if err != nil {
		return pagination.Params{}, err
	}
	pageSize, err := parseOptionalInt(values, "page_size")
	if err != nil {
		return pagination.Params{}, err
	}
	if present(values, "page") && page == 0 {
		return pagination.Params{}, fmt.Errorf("%w: page must be greater than or equal to 1", apperrors.ErrInvalidArgument)
	}
	if present(values, "page_size") && pageSize == 0 {
		return pagination.Params{}, fmt.Errorf("%w: page_size must be greater than or equal to 1", apperrors.ErrInvalidArgument)
	}

	return pagination.New(values.Get("filter"), status, page, pageSize, limits)
}

func parseOptionalInt(values url.Values, key string) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", apperrors.ErrInvalidArgument, key)
	}
	return n, nil
}

func present(values url.Values, key string) bool {
	return strings.TrimSpace(values.Get(key)) != ""
}
