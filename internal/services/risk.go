package services

import (
	"fmt"
	"time"

	"medtrack/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Risk score weighting: the last week dominates the last month
const (
	riskWeight7Days  = 0.7
	riskWeight30Days = 0.3

	riskHighScore   = 40.0
	riskMediumScore = 20.0
)

// RiskScorer derives a non-adherence risk estimate per medication from
// recent adherence trend and snapshots it nightly.
type RiskScorer struct {
	db     *gorm.DB
	cfg    Config
	logger *zap.Logger
}

// NewRiskScorer creates a risk scorer
func NewRiskScorer(db *gorm.DB, cfg Config, logger *zap.Logger) *RiskScorer {
	return &RiskScorer{db: db, cfg: cfg, logger: logger}
}

// ScoreMedication computes the current risk assessment for one medication
func (r *RiskScorer) ScoreMedication(med models.Medication, now time.Time) (models.RiskAssessment, error) {
	rate7, err := r.completedRate(med.ID, now.AddDate(0, 0, -7), now)
	if err != nil {
		return models.RiskAssessment{}, err
	}
	rate30, err := r.completedRate(med.ID, now.AddDate(0, 0, -30), now)
	if err != nil {
		return models.RiskAssessment{}, err
	}

	score := 100 - (riskWeight7Days*rate7 + riskWeight30Days*rate30)

	level := models.RiskLow
	switch {
	case score >= riskHighScore:
		level = models.RiskHigh
	case score >= riskMediumScore:
		level = models.RiskMedium
	}

	return models.RiskAssessment{
		MedicationID: med.ID,
		Username:     med.Username,
		Score:        score,
		Level:        level,
		Rate7Days:    rate7,
		Rate30Days:   rate30,
		AssessedAt:   now,
	}, nil
}

// Run scores every active medication and upserts the snapshots. One failing
// medication never aborts the rest.
func (r *RiskScorer) Run(now time.Time) JobSummary {
	var summary JobSummary

	var meds []models.Medication
	if err := r.db.Where("active = ?", true).Find(&meds).Error; err != nil {
		r.logger.Error("failed to list medications for risk scoring", zap.Error(err))
		summary.Errors++
		return summary
	}

	for _, med := range meds {
		summary.Processed++
		assessment, err := r.ScoreMedication(med, now)
		if err != nil {
			r.logger.Error("risk scoring failed",
				zap.String("medication_id", med.ID), zap.Error(err))
			summary.Errors++
			continue
		}
		err = r.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "medication_id"}},
			UpdateAll: true,
		}).Create(&assessment).Error
		if err != nil {
			r.logger.Error("failed to store risk assessment",
				zap.String("medication_id", med.ID), zap.Error(err))
			summary.Errors++
			continue
		}
		summary.Changed++
	}

	r.logger.Info("risk scoring finished",
		zap.Int("processed", summary.Processed),
		zap.Int("changed", summary.Changed),
		zap.Int("errors", summary.Errors),
	)

	return summary
}

// completedRate is the taken share of completed doses for a medication in a
// window, as a percent. No completed doses counts as fully adherent for risk
// purposes: a fresh medication is not high-risk.
func (r *RiskScorer) completedRate(medicationID string, from, to time.Time) (float64, error) {
	var taken, completed int64
	base := r.db.Model(&models.AdherenceRecord{}).
		Where("medication_id = ? AND scheduled_for >= ? AND scheduled_for < ? AND status <> ?",
			medicationID, from, to, models.StatusPending)
	if err := base.Count(&completed).Error; err != nil {
		return 0, fmt.Errorf("failed to count completed doses: %w", err)
	}
	if completed == 0 {
		return 100, nil
	}
	err := r.db.Model(&models.AdherenceRecord{}).
		Where("medication_id = ? AND scheduled_for >= ? AND scheduled_for < ? AND status = ?",
			medicationID, from, to, models.StatusTaken).
		Count(&taken).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count taken doses: %w", err)
	}
	return float64(taken) / float64(completed) * 100, nil
}
