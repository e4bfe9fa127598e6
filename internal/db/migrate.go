package db

import (
	"fmt"

	"gorm.io/gorm"

	"mgtrako/internal/model"
)

// Models lists every persisted model, parents before children.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Trailer{},
		&model.MustGoRequest{},
		&model.RequestTrailer{},
		&model.PartDetail{},
		&model.RequestLog{},
		&model.PartInfo{},
	}
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Reset drops all tables, children first. Missing tables are skipped.
func Reset(db *gorm.DB) error {
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return nil
}
