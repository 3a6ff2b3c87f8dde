package models

import (
	"time"
)

// RiskLevel buckets a medication's non-adherence risk
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskAssessment is the nightly per-medication risk snapshot derived from
// recent adherence trend. One row per medication, overwritten on each run.
type RiskAssessment struct {
	MedicationID string    `gorm:"primaryKey;size:36" json:"medication_id"`
	Username     string    `gorm:"size:30;not null;index" json:"username"`
	Score        float64   `gorm:"not null" json:"score"`
	Level        RiskLevel `gorm:"size:10;not null" json:"level"`
	Rate7Days    float64   `gorm:"not null" json:"rate_7_days"`
	Rate30Days   float64   `gorm:"not null" json:"rate_30_days"`
	AssessedAt   time.Time `gorm:"not null" json:"assessed_at"`
}

// TableName specifies the table name for the RiskAssessment model
func (RiskAssessment) TableName() string {
	return "risk_assessment"
}
