package models

import "time"

// DelaySettingID is the fixed primary key of the single settings row.
const DelaySettingID = 1

// DelaySetting holds the global delay bounds, in seconds, from which every
// letter's delivery delay is drawn. Single row keyed by DelaySettingID,
// created lazily as (0,0). Invariant: 0 <= MinDelay <= MaxDelay.
type DelaySetting struct {
	ID        uint `gorm:"primaryKey"`
	MinDelay  int  `gorm:"not null;default:0"`
	MaxDelay  int  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
