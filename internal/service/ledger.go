package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/cozyss/snail-herald/internal/models"

	"gorm.io/gorm"
)

// DailyActionBudget is the number of feature actions (create or vote, one
// shared pool) a non-admin user may spend per calendar day. This is a fixed
// window, not a token bucket: unused points do not roll over and the count
// resets abruptly at local midnight, so admission bursts right after the
// reset.
const DailyActionBudget = 5

// Ledger is the append-only action log plus its admission rule. The log is
// the sole source of truth for both today's per-user action count and the
// vote tallies; nothing is cached next to it.
type Ledger struct {
	db    *gorm.DB
	clock Clock

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewLedger(db *gorm.DB, clock Clock) *Ledger {
	return &Ledger{db: db, clock: clock, locks: make(map[uint]*sync.Mutex)}
}

// userLock serializes budget admissions per user. Counting and appending in
// separate steps is a check-then-act race; holding this lock across the
// transaction makes reserve-and-commit atomic for a given user.
func (l *Ledger) userLock(userID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[userID]
	if !ok {
		lk = &sync.Mutex{}
		l.locks[userID] = lk
	}
	return lk
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func countActionsToday(tx *gorm.DB, userID uint, now time.Time) (int64, error) {
	var count int64
	err := tx.Model(&models.FeatureAction{}).
		Where("user_id = ? AND created_at >= ?", userID, startOfDay(now)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count actions: %w", err)
	}
	return count, nil
}

// RecordFunc runs inside the admission transaction, before the budget check.
// It validates or creates whatever the action refers to and returns the
// feature-request id the appended action should point at (nil for none).
// Everything it writes is rolled back when the budget is exceeded.
type RecordFunc func(tx *gorm.DB) (featureRequestID *uint, err error)

// Record admits one action: it runs fn, enforces the daily budget for
// non-admins and appends the ledger row, all in a single transaction under
// the user's lock. A rejected action leaves no trace. Admins skip the
// budget check but their actions are still recorded.
func (l *Ledger) Record(userID uint, isAdmin bool, actionType string, fn RecordFunc) error {
	lk := l.userLock(userID)
	lk.Lock()
	defer lk.Unlock()

	now := l.clock.Now()
	return l.db.Transaction(func(tx *gorm.DB) error {
		var featureRequestID *uint
		if fn != nil {
			var err error
			featureRequestID, err = fn(tx)
			if err != nil {
				return err
			}
		}

		if !isAdmin {
			count, err := countActionsToday(tx, userID, now)
			if err != nil {
				return err
			}
			if count >= DailyActionBudget {
				return ErrBudgetExceeded
			}
		}

		action := models.FeatureAction{
			Type:             actionType,
			UserID:           userID,
			FeatureRequestID: featureRequestID,
			CreatedAt:        now,
		}
		if err := tx.Create(&action).Error; err != nil {
			return fmt.Errorf("append action: %w", err)
		}
		return nil
	})
}

// Remaining reports the caller's unspent action points for today. Admins
// report unlimited instead of a number.
func (l *Ledger) Remaining(userID uint, isAdmin bool) (points int, unlimited bool, err error) {
	if isAdmin {
		return 0, true, nil
	}
	count, err := countActionsToday(l.db, userID, l.clock.Now())
	if err != nil {
		return 0, false, err
	}
	points = DailyActionBudget - int(count)
	if points < 0 {
		points = 0
	}
	return points, false, nil
}
