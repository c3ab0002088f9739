package models

import "time"

// WelcomeTemplateID is the fixed primary key of the single template row.
const WelcomeTemplateID = 1

// WelcomeTemplate is the admin-editable letter content delivered to every
// newly registered user.
type WelcomeTemplate struct {
	ID        uint   `gorm:"primaryKey"`
	Content   string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}
