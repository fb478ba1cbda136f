package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ChallengeSweepJobName is the name of the expired challenge purge job
const ChallengeSweepJobName = "challenge_sweep"

// ExaminationDueJobName is the name of the examination due marker job
const ExaminationDueJobName = "examination_due"

// DefaultJobTimeout bounds a single maintenance run
const DefaultJobTimeout = 5 * time.Minute

// ChallengeSweeper purges verification codes that can no longer be redeemed.
// This interface allows the job to call the repository without importing it directly.
type ChallengeSweeper interface {
	DeleteExpired(ctx context.Context, ttl time.Duration, now time.Time) (int64, error)
}

// ChallengeSweepJob removes expired one-time codes from storage.
type ChallengeSweepJob struct {
	sweeper ChallengeSweeper
	ttl     time.Duration
	logger  *zap.Logger
	timeout time.Duration
}

// NewChallengeSweepJob creates a sweep job for codes older than ttl.
func NewChallengeSweepJob(sweeper ChallengeSweeper, ttl time.Duration, logger *zap.Logger) *ChallengeSweepJob {
	return &ChallengeSweepJob{
		sweeper: sweeper,
		ttl:     ttl,
		logger:  logger,
		timeout: DefaultJobTimeout,
	}
}

// Run executes one sweep pass.
func (j *ChallengeSweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	deleted, err := j.sweeper.DeleteExpired(ctx, j.ttl, time.Now())
	if err != nil {
		j.logger.Error("challenge sweep failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		j.logger.Info("purged expired verification codes", zap.Int64("deleted", deleted))
	}
}

// ExaminationDueMarker flags employees whose next examination date has passed.
type ExaminationDueMarker interface {
	MarkExaminationDue(ctx context.Context, now time.Time) (int64, error)
}

// ExaminationDueJob marks roster rows whose examination is overdue.
type ExaminationDueJob struct {
	marker  ExaminationDueMarker
	logger  *zap.Logger
	timeout time.Duration
}

// NewExaminationDueJob creates the nightly examination due marker.
func NewExaminationDueJob(marker ExaminationDueMarker, logger *zap.Logger) *ExaminationDueJob {
	return &ExaminationDueJob{
		marker:  marker,
		logger:  logger,
		timeout: DefaultJobTimeout,
	}
}

// Run executes one marking pass.
func (j *ExaminationDueJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	marked, err := j.marker.MarkExaminationDue(ctx, time.Now())
	if err != nil {
		j.logger.Error("examination due marking failed", zap.Error(err))
		return
	}
	if marked > 0 {
		j.logger.Info("marked employees with examinations due", zap.Int64("marked", marked))
	}
}
