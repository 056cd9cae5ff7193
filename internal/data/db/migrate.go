package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/octal-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureIndexes creates the indexes gorm tags cannot express. The partial
// index keeps at most one open attempt per (user, concept, exercise); both
// postgres and sqlite support the syntax.
func EnsureIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_exercise_attempt_open
		ON exercise_attempt(user_id, exercise_concept_id, exercise_id)
		WHERE submitted = false;
	`).Error; err != nil {
		return fmt.Errorf("create idx_exercise_attempt_open: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_exercise_attempt_user_submitted
		ON exercise_attempt(user_id, submitted_at)
		WHERE submitted = true;
	`).Error; err != nil {
		return fmt.Errorf("create idx_exercise_attempt_user_submitted: %w", err)
	}
	return nil
}

// Migrate runs AutoMigrateAll then EnsureIndexes.
func Migrate(db *gorm.DB) error {
	if err := AutoMigrateAll(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureIndexes(db)
}
