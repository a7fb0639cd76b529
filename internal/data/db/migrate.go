package db

import (
	"fmt"

	types "github.com/yungbote/xapi-mis-backend/internal/domain"
	"gorm.io/gorm"
)

// AutoMigrateAll creates or updates every table plus the indexes the
// struct tags cannot express.
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.Learner{},
		&types.XapiStatement{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureStatementIndexes(db)
}

func EnsureStatementIndexes(db *gorm.DB) error {
	// Listing order for the statement index and dashboards.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_xapi_statement_ts_id
		ON xapi_statement (statement_timestamp DESC, id DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_xapi_statement_ts_id: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_learner_created_at_id
		ON learner (created_at DESC, id DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_learner_created_at_id: %w", err)
	}
	return nil
}
