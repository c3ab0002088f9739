package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cozyss/snail-herald/internal/models"

	"gorm.io/gorm"
)

// Scheduler decides, for every letter, when it becomes observable to its
// receiver. The delay is drawn once at send time from the current delay
// bounds; after that, visibility is a lazy comparison of the stored
// timestamp against "now" at read time. There is no wake-up job.
type Scheduler struct {
	db     *gorm.DB
	delays *DelayStore
	clock  Clock
	rand   Rand
}

func NewScheduler(db *gorm.DB, delays *DelayStore, clock Clock, rand Rand) *Scheduler {
	return &Scheduler{db: db, delays: delays, clock: clock, rand: rand}
}

// drawDelay samples a uniform delay from the current bounds, inclusive of
// both. min == max still goes through the generator; the distribution just
// collapses to a point.
func (s *Scheduler) drawDelay() (time.Duration, error) {
	setting, err := s.delays.Get()
	if err != nil {
		return 0, err
	}
	span := setting.MaxDelay - setting.MinDelay + 1
	delay := setting.MinDelay + s.rand.Intn(span)
	return time.Duration(delay) * time.Second, nil
}

// Send schedules a letter to the named receiver. The message is persisted
// unread with its visibility time fixed to now plus the drawn delay.
func (s *Scheduler) Send(senderID uint, receiverUsername, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	var receiver models.User
	err := s.db.Where("username = ?", receiverUsername).First(&receiver).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup receiver: %w", err)
	}

	delay, err := s.drawDelay()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	msg := models.Message{
		Content:    content,
		SenderID:   senderID,
		ReceiverID: receiver.ID,
		CreatedAt:  now,
		VisibleAt:  now.Add(delay),
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	msg.Receiver = receiver
	return &msg, nil
}

// Announce sends the content to every user except the sender. Each
// recipient gets its own delay draw, so an announcement trickles in the
// same way ordinary letters do. Returns the number of recipients.
func (s *Scheduler) Announce(senderID uint, content string) (int, error) {
	if strings.TrimSpace(content) == "" {
		return 0, ErrEmptyContent
	}

	var users []models.User
	if err := s.db.Where("id <> ?", senderID).Find(&users).Error; err != nil {
		return 0, fmt.Errorf("list recipients: %w", err)
	}

	for _, u := range users {
		delay, err := s.drawDelay()
		if err != nil {
			return 0, err
		}
		now := s.clock.Now()
		msg := models.Message{
			Content:        content,
			SenderID:       senderID,
			ReceiverID:     u.ID,
			CreatedAt:      now,
			VisibleAt:      now.Add(delay),
			IsAnnouncement: true,
		}
		if err := s.db.Create(&msg).Error; err != nil {
			return 0, fmt.Errorf("create announcement for user %d: %w", u.ID, err)
		}
	}
	return len(users), nil
}

// SendWelcome delivers a letter that is visible immediately, bypassing the
// delay draw. Used for the welcome letter on registration.
func (s *Scheduler) SendWelcome(senderID, receiverID uint, content string) error {
	now := s.clock.Now()
	msg := models.Message{
		Content:    content,
		SenderID:   senderID,
		ReceiverID: receiverID,
		CreatedAt:  now,
		VisibleAt:  now,
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return fmt.Errorf("create welcome message: %w", err)
	}
	return nil
}

// ListMessages returns the user's sent letters (never delay-gated), the
// received letters whose visibility time has passed, and the count of
// letters still in transit. Both lists are newest first.
func (s *Scheduler) ListMessages(userID uint) (sent, received []models.Message, pending int64, err error) {
	now := s.clock.Now()

	err = s.db.
		Preload("Sender").Preload("Receiver").
		Where("sender_id = ?", userID).
		Order("created_at DESC").
		Find(&sent).Error
	if err != nil {
		return nil, nil, 0, fmt.Errorf("list sent messages: %w", err)
	}

	err = s.db.
		Preload("Sender").Preload("Receiver").
		Where("receiver_id = ? AND visible_at <= ?", userID, now).
		Order("created_at DESC").
		Find(&received).Error
	if err != nil {
		return nil, nil, 0, fmt.Errorf("list received messages: %w", err)
	}

	err = s.db.Model(&models.Message{}).
		Where("receiver_id = ? AND visible_at > ?", userID, now).
		Count(&pending).Error
	if err != nil {
		return nil, nil, 0, fmt.Errorf("count pending messages: %w", err)
	}

	return sent, received, pending, nil
}

// MarkRead marks one of the user's received letters as read. Idempotent.
// Only ownership is checked; a letter may be marked read before its
// visibility time.
func (s *Scheduler) MarkRead(userID, messageID uint) error {
	var msg models.Message
	err := s.db.Where("id = ? AND receiver_id = ?", messageID, userID).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup message: %w", err)
	}
	if msg.IsRead {
		return nil
	}
	if err := s.db.Model(&msg).Update("is_read", true).Error; err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}

// MarkAllRead marks every currently visible unread letter of the user as
// read in one statement. Letters still in transit are untouched.
func (s *Scheduler) MarkAllRead(userID uint) error {
	err := s.db.Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ? AND visible_at <= ?", userID, false, s.clock.Now()).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

// Delete removes a letter. Only the sender or the receiver may delete it;
// the delete is hard, there is no tombstone.
func (s *Scheduler) Delete(userID, messageID uint) error {
	var msg models.Message
	err := s.db.First(&msg, messageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup message: %w", err)
	}
	if msg.SenderID != userID && msg.ReceiverID != userID {
		return ErrForbidden
	}
	if err := s.db.Delete(&msg).Error; err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
