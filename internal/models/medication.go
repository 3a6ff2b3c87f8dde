package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FrequencyType represents how often a medication is taken
type FrequencyType string

const (
	FrequencyDaily            FrequencyType = "daily"
	FrequencySpecificWeekdays FrequencyType = "specific_weekdays"
)

// Weekday names accepted in a specific_weekdays frequency, keyed by the
// lower-case English name so they can be matched against time.Weekday
var WeekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// StringList represents a list of strings stored as a JSON column
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = make([]string, 0)
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// Contains reports whether the list holds the given value
func (s StringList) Contains(value string) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}

// Medication represents a medication a user is tracking.
// ScheduledTimes holds local wall-clock times ("HH:MM", no timezone); they are
// interpreted against the owner's timezone when the schedule is materialized.
// Medications are never physically deleted while adherence history references
// them; deactivation flips Active to false.
type Medication struct {
	ID             string        `gorm:"primaryKey;size:36" json:"id"`
	Username       string        `gorm:"size:30;not null;index" json:"username"`
	Name           string        `gorm:"size:100;not null" json:"name"`
	DosageAmount   float64       `gorm:"not null" json:"dosage_amount"`
	DosageUnit     string        `gorm:"size:20;not null" json:"dosage_unit"`
	Frequency      FrequencyType `gorm:"size:20;not null" json:"frequency"`
	Weekdays       StringList    `gorm:"type:json" json:"weekdays"`
	ScheduledTimes StringList    `gorm:"type:json;not null" json:"scheduled_times"`
	StartDate      time.Time     `gorm:"not null" json:"start_date"`
	EndDate        *time.Time    `json:"end_date"`
	Notes          string        `gorm:"type:text" json:"notes"`
	Active         bool          `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook assigns the medication ID
func (m *Medication) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the Medication model
func (Medication) TableName() string {
	return "medication"
}

// ActiveOn reports whether the medication's date range covers the given local
// calendar day (the time component of the arguments is ignored)
func (m *Medication) ActiveOn(year int, month time.Month, day int) bool {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	start := time.Date(m.StartDate.Year(), m.StartDate.Month(), m.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(start) {
		return false
	}
	if m.EndDate != nil {
		end := time.Date(m.EndDate.Year(), m.EndDate.Month(), m.EndDate.Day(), 0, 0, 0, 0, time.UTC)
		if d.After(end) {
			return false
		}
	}
	return true
}

// CreateMedicationRequest represents the data needed to create a medication
type CreateMedicationRequest struct {
	Name           string     `json:"name" binding:"required,max=100"`
	DosageAmount   float64    `json:"dosage_amount" binding:"required,gt=0"`
	DosageUnit     string     `json:"dosage_unit" binding:"required,max=20"`
	Frequency      string     `json:"frequency" binding:"required,oneof=daily specific_weekdays"`
	Weekdays       []string   `json:"weekdays"`
	ScheduledTimes []string   `json:"scheduled_times" binding:"required,min=1"`
	StartDate      time.Time  `json:"start_date" binding:"required"`
	EndDate        *time.Time `json:"end_date"`
	Notes          string     `json:"notes"`
}

// UpdateMedicationRequest represents the data accepted on a medication edit.
// Pointer fields distinguish "not provided" from zero values.
type UpdateMedicationRequest struct {
	Name           *string    `json:"name" binding:"omitempty,max=100"`
	DosageAmount   *float64   `json:"dosage_amount" binding:"omitempty,gt=0"`
	DosageUnit     *string    `json:"dosage_unit" binding:"omitempty,max=20"`
	Frequency      *string    `json:"frequency" binding:"omitempty,oneof=daily specific_weekdays"`
	Weekdays       []string   `json:"weekdays"`
	ScheduledTimes []string   `json:"scheduled_times" binding:"omitempty,min=1"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	Notes          *string    `json:"notes"`
	Active         *bool      `json:"active"`
}
