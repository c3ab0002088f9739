package models

import "time"

// Message represents a letter from one user to another. VisibleAt is fixed
// when the letter is scheduled and never recomputed; the receiver cannot see
// the letter before that instant. Deletes are hard deletes.
type Message struct {
	ID             uint      `gorm:"primaryKey"`
	Content        string    `gorm:"type:text;not null"`
	SenderID       uint      `gorm:"index;not null"`
	ReceiverID     uint      `gorm:"index;not null"`
	VisibleAt      time.Time `gorm:"index;not null"`
	IsRead         bool      `gorm:"not null;default:false"`
	IsAnnouncement bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"index"`

	Sender   User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE"`
	Receiver User `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE"`
}
