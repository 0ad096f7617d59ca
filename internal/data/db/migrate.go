package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/docintel-backend/internal/domain/documents"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&documents.Category{},
		&documents.File{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
