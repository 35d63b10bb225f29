// Package repository implements the data access layer for the application.
package repository

import (
	"goyfeed/internal/database"

	"gorm.io/gorm"
)

// readDB routes reads to the replica when one is connected.
func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

const maxPageSize = 100

// paginate limits a list query only when the caller asked for a page. A
// non-positive limit returns the whole ordered set.
func paginate(limit, offset int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if offset > 0 {
			db = db.Offset(offset)
		}
		if limit > 0 {
			db = db.Limit(min(limit, maxPageSize))
		}
		return db
	}
}

// normalizeLimit applies the default and the upper bound for short lists.
func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		limit = def
	}
	return min(limit, maxPageSize)
}
