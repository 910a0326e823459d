package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qcms/backend/internal/domain/shared"
)

// ParseFilter reads the list query parameters shared by every entity.
// Unknown parameters are ignored; page and limit bounds are applied later by
// the entity config.
func ParseFilter(c *gin.Context, cfg shared.EntityConfig) (shared.Filter, error) {
	filter := shared.Filter{
		SortBy:    strings.TrimSpace(c.Query("sort_by")),
		SortOrder: strings.TrimSpace(c.Query("sort_order")),
		Search:    strings.TrimSpace(c.Query("search")),
	}

	var fields []shared.FieldError
	intParam := func(name string) int {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields = append(fields, shared.FieldError{Field: name, Message: "Must be an integer"})
		}
		return n
	}
	filter.Page = intParam("page")
	filter.Limit = intParam("limit")

	if raw := c.Query("start_date"); raw != "" {
		t, _, err := shared.ParseTime(raw)
		if err != nil {
			fields = append(fields, shared.FieldError{Field: "start_date", Message: "Must be RFC3339 or YYYY-MM-DD"})
		} else {
			filter.StartDate = &t
		}
	}
	if raw := c.Query("end_date"); raw != "" {
		t, dateOnly, err := shared.ParseTime(raw)
		if err != nil {
			fields = append(fields, shared.FieldError{Field: "end_date", Message: "Must be RFC3339 or YYYY-MM-DD"})
		} else {
			filter.EndDate = &t
			filter.EndDateIsDay = dateOnly
		}
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		fields = append(fields, shared.FieldError{Field: "end_date", Message: "Must not be before start_date"})
	}

	for _, col := range cfg.EqualityFields {
		if v, ok := c.GetQuery(col); ok && strings.TrimSpace(v) != "" {
			if filter.Equals == nil {
				filter.Equals = make(map[string]string)
			}
			filter.Equals[col] = strings.TrimSpace(v)
		}
	}

	if raw := c.Query("include_inactive"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			fields = append(fields, shared.FieldError{Field: "include_inactive", Message: "Must be a boolean"})
		}
		filter.IncludeInactive = include
	}

	if len(fields) > 0 {
		return filter, shared.NewValidationError("Invalid query parameters", fields...)
	}
	return filter, nil
}

// statsRange reads the optional start_date/end_date of statistics
// endpoints. A date-only end covers the whole day.
func statsRange(c *gin.Context) (from, to *time.Time, err error) {
	filter, err := ParseFilter(c, shared.EntityConfig{})
	if err != nil {
		return nil, nil, err
	}
	from = filter.StartDate
	if filter.EndDate != nil {
		end := *filter.EndDate
		if filter.EndDateIsDay {
			end = end.AddDate(0, 0, 1)
		}
		to = &end
	}
	return from, to, nil
}
