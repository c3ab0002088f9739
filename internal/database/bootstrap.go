package database

import (
	"errors"
	"fmt"

	"github.com/cozyss/snail-herald/internal/config"
	"github.com/cozyss/snail-herald/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Bootstrap ensures the designated admin account and the delay-settings row
// exist. Safe to call on every start; it only creates what is missing and
// never touches existing records, so an operator changing admin.password in
// the config does not rotate an already-created account.
func Bootstrap(db *gorm.DB, cfg *config.Config) error {
	if cfg.Admin.Username != "" {
		var admin models.User
		err := db.Where("username = ?", cfg.Admin.Username).First(&admin).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cost := cfg.Security.BcryptCost
			if cost == 0 {
				cost = bcrypt.DefaultCost
			}
			hash, hashErr := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), cost)
			if hashErr != nil {
				return fmt.Errorf("hash admin password: %w", hashErr)
			}
			admin = models.User{
				Username:     cfg.Admin.Username,
				PasswordHash: string(hash),
				IsAdmin:      true,
			}
			if err := db.Create(&admin).Error; err != nil {
				return fmt.Errorf("create admin user: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("lookup admin user: %w", err)
		}
	}

	setting := models.DelaySetting{ID: models.DelaySettingID}
	if err := db.FirstOrCreate(&setting, models.DelaySetting{ID: models.DelaySettingID}).Error; err != nil {
		return fmt.Errorf("init delay settings: %w", err)
	}
	return nil
}
