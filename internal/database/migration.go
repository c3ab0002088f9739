package database

import (
	"fmt"

	"github.com/cozyss/snail-herald/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.DelaySetting{},
		&models.FeatureRequest{},
		&models.FeatureAction{},
		&models.WelcomeTemplate{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
