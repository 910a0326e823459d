package persistence

import (
	"slices"
	"strings"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, falling back
// to defaultOrder (and then DESC) for anything else.
func ValidateSortOrder(order, defaultOrder string) string {
	switch strings.ToUpper(strings.TrimSpace(order)) {
	case "ASC":
		return "ASC"
	case "DESC":
		return "DESC"
	}
	if strings.EqualFold(defaultOrder, "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns field when it is whitelisted, otherwise defaultField
func ValidateSortField(field string, allowed []string, defaultField string) string {
	trimmed := strings.TrimSpace(field)
	if trimmed != "" && slices.Contains(allowed, trimmed) {
		return trimmed
	}
	return defaultField
}
