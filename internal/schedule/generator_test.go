package schedule

import (
	"testing"
	"time"

	"medtrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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
	))
	return db
}

func testMedication(times ...string) *models.Medication {
	return &models.Medication{
		ID:             "med-1",
		Username:       "alice",
		Name:           "Lisinopril",
		DosageAmount:   10,
		DosageUnit:     "mg",
		Frequency:      models.FrequencyDaily,
		ScheduledTimes: models.StringList(times),
		StartDate:      time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		Active:         true,
	}
}

func TestDueInstants_DailyBuenosAires(t *testing.T) {
	loc, err := LoadZone("America/Argentina/Buenos_Aires")
	require.NoError(t, err)

	med := testMedication("08:00", "20:00")
	day := LocalDate{2025, time.March, 10}

	instants, err := DueInstants(med, loc, day, day)
	require.NoError(t, err)
	require.Len(t, instants, 2)
	assert.Equal(t, time.Date(2025, time.March, 10, 11, 0, 0, 0, time.UTC), instants[0])
	assert.Equal(t, time.Date(2025, time.March, 10, 23, 0, 0, 0, time.UTC), instants[1])
}

func TestDueInstants_SpecificWeekdays(t *testing.T) {
	loc, err := LoadZone("UTC")
	require.NoError(t, err)

	med := testMedication("09:00")
	med.Frequency = models.FrequencySpecificWeekdays
	med.Weekdays = models.StringList{"monday", "Friday"}

	// 2025-03-10 is a Monday
	from := LocalDate{2025, time.March, 10}
	to := from.AddDays(6)

	instants, err := DueInstants(med, loc, from, to)
	require.NoError(t, err)
	require.Len(t, instants, 2)
	assert.Equal(t, time.Weekday(time.Monday), instants[0].Weekday())
	assert.Equal(t, time.Weekday(time.Friday), instants[1].Weekday())
}

func TestDueInstants_RespectsDateRange(t *testing.T) {
	loc, err := LoadZone("UTC")
	require.NoError(t, err)

	med := testMedication("09:00")
	med.StartDate = time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 13, 0, 0, 0, 0, time.UTC)
	med.EndDate = &end

	from := LocalDate{2025, time.March, 10}
	instants, err := DueInstants(med, loc, from, from.AddDays(6))
	require.NoError(t, err)
	// only the 12th and 13th fall inside the active range
	require.Len(t, instants, 2)
	assert.Equal(t, 12, instants[0].Day())
	assert.Equal(t, 13, instants[1].Day())
}

func TestDueInstants_UnknownWeekday(t *testing.T) {
	loc, err := LoadZone("UTC")
	require.NoError(t, err)

	med := testMedication("09:00")
	med.Frequency = models.FrequencySpecificWeekdays
	med.Weekdays = models.StringList{"funday"}

	_, err = DueInstants(med, loc, LocalDate{2025, time.March, 10}, LocalDate{2025, time.March, 10})
	assert.Error(t, err)
}

func TestMaterialize_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	gen := NewGenerator(db, zap.NewNop())

	med := testMedication("08:00", "20:00")
	require.NoError(t, db.Create(med).Error)

	day := LocalDate{2025, time.March, 10}
	created, err := gen.Materialize(med, "America/Argentina/Buenos_Aires", day, day)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	// Re-running with identical inputs is a no-op
	created, err = gen.Materialize(med, "America/Argentina/Buenos_Aires", day, day)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	var count int64
	require.NoError(t, db.Model(&models.AdherenceRecord{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	var record models.AdherenceRecord
	require.NoError(t, db.Order("scheduled_for").First(&record).Error)
	assert.Equal(t, models.StatusPending, record.Status)
	assert.Equal(t, "alice", record.Username)
}

func TestMaterialize_RejectsBadZone(t *testing.T) {
	db := setupTestDB(t)
	gen := NewGenerator(db, zap.NewNop())

	med := testMedication("08:00")
	day := LocalDate{2025, time.March, 10}
	_, err := gen.Materialize(med, "Mars/Olympus", day, day)
	assert.Error(t, err)
}

func TestReconcile_PrunesOnlyFuturePending(t *testing.T) {
	db := setupTestDB(t)
	gen := NewGenerator(db, zap.NewNop())

	med := testMedication("08:00", "20:00")
	require.NoError(t, db.Create(med).Error)

	// Materialize the horizon, then drop the evening slot
	_, _, err := gen.Reconcile(med, "UTC", 7)
	require.NoError(t, err)

	var before int64
	require.NoError(t, db.Model(&models.AdherenceRecord{}).Count(&before).Error)
	require.True(t, before > 0)

	// One future evening dose was already taken; it must survive the edit
	takenAt := time.Now().UTC()
	var victim models.AdherenceRecord
	require.NoError(t, db.Where("scheduled_for > ?", time.Now().UTC().Add(24*time.Hour)).
		Order("scheduled_for desc").First(&victim).Error)
	require.NoError(t, db.Model(&victim).Updates(map[string]interface{}{
		"status":   models.StatusTaken,
		"taken_at": takenAt,
	}).Error)

	med.ScheduledTimes = models.StringList{"08:00"}
	require.NoError(t, db.Save(med).Error)

	_, pruned, err := gen.Reconcile(med, "UTC", 7)
	require.NoError(t, err)
	assert.True(t, pruned > 0)

	// No pending rows off the new schedule remain in the future
	var leftovers []models.AdherenceRecord
	require.NoError(t, db.
		Where("status = ? AND scheduled_for > ?", models.StatusPending, time.Now().UTC()).
		Find(&leftovers).Error)
	for _, r := range leftovers {
		assert.Equal(t, 8, r.ScheduledFor.UTC().Hour())
	}

	var kept models.AdherenceRecord
	require.NoError(t, db.Where("id = ?", victim.ID).First(&kept).Error)
	assert.Equal(t, models.StatusTaken, kept.Status)
}

func TestReconcile_DeactivatedMedicationPrunesFuture(t *testing.T) {
	db := setupTestDB(t)
	gen := NewGenerator(db, zap.NewNop())

	med := testMedication("08:00")
	require.NoError(t, db.Create(med).Error)

	_, _, err := gen.Reconcile(med, "UTC", 7)
	require.NoError(t, err)

	med.Active = false
	require.NoError(t, db.Save(med).Error)

	_, pruned, err := gen.Reconcile(med, "UTC", 7)
	require.NoError(t, err)
	assert.True(t, pruned > 0)

	var remaining int64
	require.NoError(t, db.Model(&models.AdherenceRecord{}).
		Where("status = ? AND scheduled_for > ?", models.StatusPending, time.Now().UTC()).
		Count(&remaining).Error)
	assert.EqualValues(t, 0, remaining)
}
