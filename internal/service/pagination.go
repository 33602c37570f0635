package service

import (
	"time"

	"github.com/wondrlab/crosssell-api/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
	dateLayout      = "2006-01-02"
)

// clampPagination applies the default and maximum page size
func clampPagination(page, pageSize int) (int, int) {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return page, pageSize
}

func newPage(data interface{}, total int64, page, pageSize int) *domain.PaginatedResponse {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// parseDueDate parses a YYYY-MM-DD value, falling back to now+days when empty
func parseDueDate(value string, now time.Time, days int) (time.Time, error) {
	if value == "" {
		return domain.DateOnly(now.AddDate(0, 0, days)), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, invalidInput("due_date '%s' must be YYYY-MM-DD", value)
	}
	return t, nil
}
