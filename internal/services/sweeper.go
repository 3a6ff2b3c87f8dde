package services

import (
	"time"

	"medtrack/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sweeper flips pending doses to missed once their grace period has lapsed.
// The transition is a single conditional bulk update guarded on
// status='pending', so a concurrent confirm/skip always wins and repeated
// runs are no-ops.
type Sweeper struct {
	db     *gorm.DB
	cfg    Config
	logger *zap.Logger
}

// NewSweeper creates a missed-dose sweeper
func NewSweeper(db *gorm.DB, cfg Config, logger *zap.Logger) *Sweeper {
	return &Sweeper{db: db, cfg: cfg, logger: logger}
}

// Run performs one sweep at the given instant
func (s *Sweeper) Run(now time.Time) JobSummary {
	var summary JobSummary

	cutoff := now.Add(-s.cfg.GracePeriod)
	res := s.db.Model(&models.AdherenceRecord{}).
		Where("status = ? AND scheduled_for < ?", models.StatusPending, cutoff).
		Updates(map[string]interface{}{
			"status":     models.StatusMissed,
			"updated_at": now,
		})
	if res.Error != nil {
		s.logger.Error("missed-dose sweep failed", zap.Error(res.Error))
		summary.Errors++
		return summary
	}

	summary.Processed = int(res.RowsAffected)
	summary.Changed = int(res.RowsAffected)

	if summary.Changed > 0 {
		s.logger.Info("swept overdue doses to missed",
			zap.Time("cutoff", cutoff),
			zap.Int("changed", summary.Changed),
		)
	}

	return summary
}
