package repository

import (
	"context"

	"gorm.io/gorm"
)

// conn returns the handle a repository call must run on: the caller's
// transaction when one is given, the pooled connection otherwise.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
