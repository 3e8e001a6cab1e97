package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/skillbridge-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureGraphIndexes adds Postgres-only indexes the gorm tags cannot express.
func EnsureGraphIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_module_unprocessed
		ON module(created_at)
		WHERE is_processed = false;
	`).Error; err != nil {
		return fmt.Errorf("create idx_module_unprocessed: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_skill_relation_source ON skill_relation(source_skill_id);`).Error; err != nil {
		return fmt.Errorf("create idx_skill_relation_source: %w", err)
	}
	return nil
}
