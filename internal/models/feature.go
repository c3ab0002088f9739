package models

import "time"

// Action types recorded in the feature ledger.
const (
	ActionCreate   = "CREATE"
	ActionUpvote   = "UPVOTE"
	ActionDownvote = "DOWNVOTE"
)

// FeatureRequest is a user-submitted feature proposal. Vote counts are never
// stored on it; they are derived from the FeatureAction ledger on every read.
type FeatureRequest struct {
	ID          uint      `gorm:"primaryKey"`
	Description string    `gorm:"type:text;not null"`
	CreatedByID uint      `gorm:"index;not null"`
	CreatedAt   time.Time `gorm:"index"`

	CreatedBy User            `gorm:"foreignKey:CreatedByID"`
	Actions   []FeatureAction `gorm:"foreignKey:FeatureRequestID"`
}

// FeatureAction is one row of the append-only action ledger. It is both the
// unit of the daily action budget and the source of truth for vote tallies.
// Rows are never updated; they are deleted only when their feature request
// is deleted by an admin.
type FeatureAction struct {
	ID               uint      `gorm:"primaryKey"`
	Type             string    `gorm:"size:16;index;not null"`
	UserID           uint      `gorm:"index;not null"`
	FeatureRequestID *uint     `gorm:"index"`
	CreatedAt        time.Time `gorm:"index"`
}
