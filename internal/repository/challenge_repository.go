package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChallengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// Issue atomically supersedes any live challenge for the phone and
// inserts the new one. Exactly one challenge is live per phone at any
// instant.
func (r *ChallengeRepository) Issue(ctx context.Context, challenge *domain.Challenge) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Challenge{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("phone = ? AND consumed = ?", challenge.Phone, false).
			Update("consumed", true).Error; err != nil {
			return err
		}
		return tx.Create(challenge).Error
	})
}

// GetActive returns the most recently issued unconsumed challenge
func (r *ChallengeRepository) GetActive(ctx context.Context, phone string) (*domain.Challenge, error) {
	var challenge domain.Challenge
	err := r.db.WithContext(ctx).
		Where("phone = ? AND consumed = ?", phone, false).
		Order("issued_at DESC").
		First(&challenge).Error
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// Consume marks a challenge used if it is still unconsumed. Returns the
// number of rows changed so the caller can detect a lost race.
func (r *ChallengeRepository) Consume(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Challenge{}).
		Where("id = ? AND consumed = ?", id, false).
		Update("consumed", true)
	return result.RowsAffected, result.Error
}

// DeleteExpired removes challenges older than the validity window.
// Called by the scheduled sweeper.
func (r *ChallengeRepository) DeleteExpired(ctx context.Context, ttl time.Duration, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("issued_at < ?", now.Add(-ttl)).
		Delete(&domain.Challenge{})
	return result.RowsAffected, result.Error
}
