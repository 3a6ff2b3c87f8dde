package services

import (
	"testing"
	"time"

	"medtrack/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Account{},
		&models.UserSettings{},
		&models.Medication{},
		&models.AdherenceRecord{},
		&models.Reminder{},
		&models.RiskAssessment{},
	))
	return db
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.GracePeriod = 180 * time.Minute
	cfg.ReminderLead = 30 * time.Minute
	cfg.HorizonDays = 7
	return cfg
}

func seedUser(t *testing.T, db *gorm.DB, username string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Account{
		Username:    username,
		GoogleID:    "google-" + username,
		Email:       username + "@example.com",
		PhoneNumber: "+15550001111",
	}).Error)
	require.NoError(t, db.Create(&models.UserSettings{
		Username:            username,
		Timezone:            "America/Argentina/Buenos_Aires",
		ReminderLeadMinutes: 30,
		EmailEnabled:        true,
		SMSEnabled:          false,
	}).Error)
}

func seedMedication(t *testing.T, db *gorm.DB, id, username string) *models.Medication {
	t.Helper()
	med := &models.Medication{
		ID:             id,
		Username:       username,
		Name:           "Metformin",
		DosageAmount:   500,
		DosageUnit:     "mg",
		Frequency:      models.FrequencyDaily,
		ScheduledTimes: models.StringList{"08:00", "20:00"},
		StartDate:      time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		Active:         true,
	}
	require.NoError(t, db.Create(med).Error)
	return med
}

func seedRecord(t *testing.T, db *gorm.DB, med *models.Medication, due time.Time, status models.AdherenceStatus) *models.AdherenceRecord {
	t.Helper()
	record := &models.AdherenceRecord{
		MedicationID: med.ID,
		Username:     med.Username,
		ScheduledFor: due,
		Status:       status,
	}
	if status == models.StatusTaken {
		takenAt := due.Add(5 * time.Minute)
		record.TakenAt = &takenAt
	}
	require.NoError(t, db.Create(record).Error)
	return record
}
