package services

import (
	"time"

	"medtrack/internal/models"
	"medtrack/internal/schedule"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HorizonJob extends the materialized schedule window for every active
// medication. Generation is idempotent, so running it daily simply tops up
// the ledger out to the configured horizon.
type HorizonJob struct {
	db     *gorm.DB
	gen    *schedule.Generator
	cfg    Config
	logger *zap.Logger
}

// NewHorizonJob creates a schedule-horizon extension job
func NewHorizonJob(db *gorm.DB, gen *schedule.Generator, cfg Config, logger *zap.Logger) *HorizonJob {
	return &HorizonJob{db: db, gen: gen, cfg: cfg, logger: logger}
}

// Run materializes [today, today+horizon] for each active medication. A
// medication with a broken timezone is counted and skipped, never fatal.
func (h *HorizonJob) Run(now time.Time) JobSummary {
	var summary JobSummary

	var meds []models.Medication
	if err := h.db.Where("active = ?", true).Find(&meds).Error; err != nil {
		h.logger.Error("failed to list medications for horizon extension", zap.Error(err))
		summary.Errors++
		return summary
	}

	settingsCache := make(map[string]string)

	for _, med := range meds {
		summary.Processed++

		tz, ok := settingsCache[med.Username]
		if !ok {
			var settings models.UserSettings
			if err := h.db.Where("username = ?", med.Username).First(&settings).Error; err != nil {
				h.logger.Error("failed to load settings for horizon extension",
					zap.String("username", med.Username), zap.Error(err))
				summary.Errors++
				continue
			}
			tz = settings.Timezone
			settingsCache[med.Username] = tz
		}

		loc, err := schedule.LoadZone(tz)
		if err != nil {
			h.logger.Error("bad timezone during horizon extension",
				zap.String("username", med.Username),
				zap.String("timezone", tz),
				zap.Error(err))
			summary.Errors++
			continue
		}

		from := schedule.DateOf(now.In(loc))
		to := from.AddDays(h.cfg.HorizonDays)
		created, err := h.gen.Materialize(&med, tz, from, to)
		if err != nil {
			h.logger.Error("horizon extension failed",
				zap.String("medication_id", med.ID), zap.Error(err))
			summary.Errors++
			continue
		}
		summary.Changed += created
	}

	h.logger.Info("horizon extension finished",
		zap.Int("medications", summary.Processed),
		zap.Int("created", summary.Changed),
		zap.Int("errors", summary.Errors),
	)

	return summary
}
