package service

import (
	"fmt"

	"github.com/cozyss/snail-herald/internal/models"

	"gorm.io/gorm"
)

// DelayStore reads and updates the global delay bounds. The record is a
// single row; changing it affects every letter scheduled afterwards, while
// already-scheduled letters keep their computed visibility time.
type DelayStore struct {
	db *gorm.DB
}

func NewDelayStore(db *gorm.DB) *DelayStore {
	return &DelayStore{db: db}
}

// Get returns the current delay bounds, creating the (0,0) row on first
// access.
func (s *DelayStore) Get() (*models.DelaySetting, error) {
	var setting models.DelaySetting
	err := s.db.
		Where(models.DelaySetting{ID: models.DelaySettingID}).
		FirstOrCreate(&setting).Error
	if err != nil {
		return nil, fmt.Errorf("load delay settings: %w", err)
	}
	return &setting, nil
}

// Set replaces the delay bounds, both in seconds.
func (s *DelayStore) Set(minDelay, maxDelay int) (*models.DelaySetting, error) {
	if minDelay < 0 || maxDelay < 0 || minDelay > maxDelay {
		return nil, ErrInvalidDelayRange
	}

	setting, err := s.Get()
	if err != nil {
		return nil, err
	}
	setting.MinDelay = minDelay
	setting.MaxDelay = maxDelay
	if err := s.db.Save(setting).Error; err != nil {
		return nil, fmt.Errorf("save delay settings: %w", err)
	}
	return setting, nil
}

// DefaultWelcomeContent seeds the template on first access.
const DefaultWelcomeContent = "Welcome to Snail Herald! We're excited to have you join our community. Take your time to explore and enjoy sending letters to others."

// WelcomeStore reads and updates the welcome-letter template.
type WelcomeStore struct {
	db *gorm.DB
}

func NewWelcomeStore(db *gorm.DB) *WelcomeStore {
	return &WelcomeStore{db: db}
}

// Get returns the welcome template, creating the default one if absent.
func (s *WelcomeStore) Get() (*models.WelcomeTemplate, error) {
	var tpl models.WelcomeTemplate
	err := s.db.
		Where(models.WelcomeTemplate{ID: models.WelcomeTemplateID}).
		Attrs(models.WelcomeTemplate{Content: DefaultWelcomeContent}).
		FirstOrCreate(&tpl).Error
	if err != nil {
		return nil, fmt.Errorf("load welcome template: %w", err)
	}
	return &tpl, nil
}

// Set replaces the welcome template content.
func (s *WelcomeStore) Set(content string) (*models.WelcomeTemplate, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	tpl, err := s.Get()
	if err != nil {
		return nil, err
	}
	tpl.Content = content
	if err := s.db.Save(tpl).Error; err != nil {
		return nil, fmt.Errorf("save welcome template: %w", err)
	}
	return tpl, nil
}
