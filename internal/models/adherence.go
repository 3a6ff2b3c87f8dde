package models

import (
	"time"
)

// AdherenceStatus is the lifecycle state of a scheduled dose
type AdherenceStatus string

const (
	StatusPending AdherenceStatus = "pending"
	StatusTaken   AdherenceStatus = "taken"
	StatusSkipped AdherenceStatus = "skipped"
	StatusMissed  AdherenceStatus = "missed"
)

// IsTerminal reports whether the status is final. A record in a terminal
// state never changes status again.
func (s AdherenceStatus) IsTerminal() bool {
	return s == StatusTaken || s == StatusSkipped || s == StatusMissed
}

// AdherenceRecord is one row of the dose ledger: one record per
// (medication, due instant). ScheduledFor is a UTC timestamp and is the
// single source of truth for when the dose is due; the composite unique
// index is the idempotency key for schedule generation.
type AdherenceRecord struct {
	ID           uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	MedicationID string          `gorm:"size:36;not null;index;uniqueIndex:idx_medication_due" json:"medication_id"`
	Medication   Medication      `gorm:"foreignKey:MedicationID" json:"-"`
	Username     string          `gorm:"size:30;not null;index" json:"username"`
	ScheduledFor time.Time       `gorm:"not null;index;uniqueIndex:idx_medication_due" json:"scheduled_for"`
	Status       AdherenceStatus `gorm:"size:10;not null;default:pending;index" json:"status"`
	TakenAt      *time.Time      `json:"taken_at"`
	Notes        string          `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for the AdherenceRecord model
func (AdherenceRecord) TableName() string {
	return "adherence_record"
}

// DoseActionRequest represents a confirm/skip action on a dose
type DoseActionRequest struct {
	Notes string `json:"notes" binding:"max=500"`
}
