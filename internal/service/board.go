package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cozyss/snail-herald/internal/models"

	"gorm.io/gorm"
)

// Board aggregates the action ledger into per-feature tallies. Scores are
// recomputed from the ledger on every read; there are no stored counters to
// drift out of sync.
type Board struct {
	db     *gorm.DB
	ledger *Ledger
}

func NewBoard(db *gorm.DB, ledger *Ledger) *Board {
	return &Board{db: db, ledger: ledger}
}

// FeatureSummary is one row of the board listing.
type FeatureSummary struct {
	ID          uint      `json:"id"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	Upvotes     int       `json:"upvotes"`
	Downvotes   int       `json:"downvotes"`
	Score       int       `json:"score"`
}

// Create submits a feature request. The request row and its CREATE ledger
// action are written in the same admission transaction, so a budget
// rejection leaves neither.
func (b *Board) Create(userID uint, isAdmin bool, description string) (*models.FeatureRequest, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyContent
	}

	var created models.FeatureRequest
	err := b.ledger.Record(userID, isAdmin, models.ActionCreate, func(tx *gorm.DB) (*uint, error) {
		created = models.FeatureRequest{
			Description: description,
			CreatedByID: userID,
			CreatedAt:   b.ledger.clock.Now(),
		}
		if err := tx.Create(&created).Error; err != nil {
			return nil, fmt.Errorf("create feature request: %w", err)
		}
		return &created.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Vote records an UPVOTE or DOWNVOTE against a feature. Repeat votes by
// the same user are allowed and each counts in the tally; the ledger design
// permits this deliberately.
func (b *Board) Vote(userID uint, isAdmin bool, featureRequestID uint, voteType string) error {
	if voteType != models.ActionUpvote && voteType != models.ActionDownvote {
		return ErrInvalidVoteType
	}

	return b.ledger.Record(userID, isAdmin, voteType, func(tx *gorm.DB) (*uint, error) {
		var fr models.FeatureRequest
		err := tx.First(&fr, featureRequestID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("lookup feature request: %w", err)
		}
		return &fr.ID, nil
	})
}

// List returns every feature with its derived tallies, ordered by score
// descending, newest first among ties so listings stay deterministic.
func (b *Board) List() ([]FeatureSummary, error) {
	var requests []models.FeatureRequest
	err := b.db.
		Preload("CreatedBy").
		Preload("Actions").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("list feature requests: %w", err)
	}

	summaries := make([]FeatureSummary, 0, len(requests))
	for i := range requests {
		r := &requests[i]
		var up, down int
		for _, a := range r.Actions {
			switch a.Type {
			case models.ActionUpvote:
				up++
			case models.ActionDownvote:
				down++
			}
		}
		summaries = append(summaries, FeatureSummary{
			ID:          r.ID,
			Description: r.Description,
			CreatedBy:   r.CreatedBy.Username,
			CreatedAt:   r.CreatedAt,
			Upvotes:     up,
			Downvotes:   down,
			Score:       up - down,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Score != summaries[j].Score {
			return summaries[i].Score > summaries[j].Score
		}
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// Delete removes a feature request and every ledger action referencing it
// in one transaction, so no orphaned actions survive. Admin gating happens
// at the API boundary.
func (b *Board) Delete(featureRequestID uint) error {
	return b.db.Transaction(func(tx *gorm.DB) error {
		var fr models.FeatureRequest
		err := tx.First(&fr, featureRequestID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup feature request: %w", err)
		}

		if err := tx.Where("feature_request_id = ?", fr.ID).
			Delete(&models.FeatureAction{}).Error; err != nil {
			return fmt.Errorf("delete feature actions: %w", err)
		}
		if err := tx.Delete(&fr).Error; err != nil {
			return fmt.Errorf("delete feature request: %w", err)
		}
		return nil
	})
}
