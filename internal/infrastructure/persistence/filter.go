package persistence

import (
	"github.com/moneta/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// applyPagination applies page/page-size and a whitelisted ordering to the
// query. Ordering falls back to defaultOrder when the requested column is
// not allowed for the entity.
func applyPagination(query *gorm.DB, filter shared.Filter, sortFields map[string]bool, defaultOrder string) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, sortFields, "")
	if orderBy != "" {
		query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	} else if defaultOrder != "" {
		query = query.Order(defaultOrder)
	}

	return query
}
