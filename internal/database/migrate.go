package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/models"
)

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Admin{},
		&models.Student{},
		&models.TemporaryAdmission{},
		&models.Counter{},
		&models.Test{},
		&models.Question{},
		&models.TestResult{},
		&models.LiveClass{},
		&models.LiveClassAttendance{},
		&models.UploadRecord{},
		&models.ActivityLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
