package services

import (
	"testing"
	"time"

	"medtrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedRecordAt(t *testing.T, agg *Aggregator, med *models.Medication, due time.Time, status models.AdherenceStatus) {
	t.Helper()
	seedRecord(t, agg.db, med, due, status)
}

func TestWindowStats_PendingExcludedFromRate(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "alice")
	agg := NewAggregator(db, testConfig(), zap.NewNop())
	med := seedMedication(t, db, "med-1", "alice")

	base := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	statuses := []models.AdherenceStatus{
		models.StatusTaken, models.StatusTaken, models.StatusTaken, models.StatusTaken,
		models.StatusSkipped, models.StatusSkipped,
		models.StatusPending, models.StatusPending, models.StatusPending, models.StatusPending,
	}
	for i, status := range statuses {
		seedRecordAt(t, agg, med, base.Add(time.Duration(i)*time.Hour), status)
	}

	stats, err := agg.WindowStats("alice", base, base.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Taken)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 4, stats.Pending)
	assert.Equal(t, 6, stats.Completed)
	assert.InDelta(t, 66.7, stats.AdherenceRate, 0.05)
	assert.False(t, stats.InsufficientData)
	assert.Equal(t, "D", stats.Grade)
}

func TestWindowStats_NoCompletedDoses(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "alice")
	agg := NewAggregator(db, testConfig(), zap.NewNop())
	med := seedMedication(t, db, "med-1", "alice")

	base := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	seedRecordAt(t, agg, med, base, models.StatusPending)
	seedRecordAt(t, agg, med, base.Add(time.Hour), models.StatusPending)

	stats, err := agg.WindowStats("alice", base, base.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.True(t, stats.InsufficientData)
	assert.Equal(t, 0.0, stats.AdherenceRate)
	assert.Equal(t, 2, stats.Pending)
}

func TestWindowStats_MissedCountsAgainstRate(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "alice")
	agg := NewAggregator(db, testConfig(), zap.NewNop())
	med := seedMedication(t, db, "med-1", "alice")

	base := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	seedRecordAt(t, agg, med, base, models.StatusTaken)
	seedRecordAt(t, agg, med, base.Add(time.Hour), models.StatusMissed)

	stats, err := agg.WindowStats("alice", base, base.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Missed)
	assert.InDelta(t, 50.0, stats.AdherenceRate, 0.001)
	assert.Equal(t, "E", stats.Grade)
}

func TestSummarize_UsesLocalDayBounds(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "alice")
	agg := NewAggregator(db, testConfig(), zap.NewNop())
	med := seedMedication(t, db, "med-1", "alice")

	// Buenos Aires is UTC-3 year round. 2025-03-10 01:00 UTC is still
	// 2025-03-09 22:00 local, so it must land in yesterday, not today.
	seedRecordAt(t, agg, med, time.Date(2025, time.March, 10, 1, 0, 0, 0, time.UTC), models.StatusTaken)
	seedRecordAt(t, agg, med, time.Date(2025, time.March, 10, 11, 0, 0, 0, time.UTC), models.StatusTaken)

	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)
	summary, err := agg.Summarize("alice", "America/Argentina/Buenos_Aires", now)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Today.Taken)
	assert.Equal(t, 2, summary.Week.Taken)
	assert.Equal(t, 2, summary.Month.Taken)
}

func TestSummarize_RejectsUnknownZone(t *testing.T) {
	db := setupTestDB(t)
	agg := NewAggregator(db, testConfig(), zap.NewNop())

	_, err := agg.Summarize("alice", "Mars/Olympus_Mons", time.Now())
	assert.Error(t, err)
}

func TestStreakDays_CountsConsecutivePerfectDays(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "alice")
	agg := NewAggregator(db, testConfig(), zap.NewNop())
	med := seedMedication(t, db, "med-1", "alice")

	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	require.NoError(t, err)
	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)

	// Three fully taken days ending yesterday; today has one taken dose
	for daysAgo := 1; daysAgo <= 3; daysAgo++ {
		due := time.Date(2025, time.March, 10-daysAgo, 11, 0, 0, 0, time.UTC)
		seedRecordAt(t, agg, med, due, models.StatusTaken)
		seedRecordAt(t, agg, med, due.Add(12*time.Hour), models.StatusTaken)
	}
	seedRecordAt(t, agg, med, time.Date(2025, time.March, 10, 11, 0, 0, 0, time.UTC), models.StatusTaken)

	streak, err := agg.StreakDays("alice", loc, now)
	require.NoError(t, err)
	assert.Equal(t, 4, streak)
}

func TestStreakDays_BrokenByMissedDose(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "alice")
	agg := NewAggregator(db, testConfig(), zap.NewNop())
	med := seedMedication(t, db, "med-1", "alice")

	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	require.NoError(t, err)
	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)

	seedRecordAt(t, agg, med, time.Date(2025, time.March, 9, 11, 0, 0, 0, time.UTC), models.StatusTaken)
	seedRecordAt(t, agg, med, time.Date(2025, time.March, 8, 11, 0, 0, 0, time.UTC), models.StatusMissed)
	seedRecordAt(t, agg, med, time.Date(2025, time.March, 7, 11, 0, 0, 0, time.UTC), models.StatusTaken)

	streak, err := agg.StreakDays("alice", loc, now)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)
}

func TestStreakDays_GapDayBreaksStreak(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "alice")
	agg := NewAggregator(db, testConfig(), zap.NewNop())
	med := seedMedication(t, db, "med-1", "alice")

	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	require.NoError(t, err)
	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)

	seedRecordAt(t, agg, med, time.Date(2025, time.March, 9, 11, 0, 0, 0, time.UTC), models.StatusTaken)
	// March 8 has no records at all
	seedRecordAt(t, agg, med, time.Date(2025, time.March, 7, 11, 0, 0, 0, time.UTC), models.StatusTaken)

	streak, err := agg.StreakDays("alice", loc, now)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)
}

func TestStreakDays_EmptyTodayDoesNotBreak(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "alice")
	agg := NewAggregator(db, testConfig(), zap.NewNop())
	med := seedMedication(t, db, "med-1", "alice")

	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	require.NoError(t, err)
	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)

	seedRecordAt(t, agg, med, time.Date(2025, time.March, 9, 11, 0, 0, 0, time.UTC), models.StatusTaken)
	seedRecordAt(t, agg, med, time.Date(2025, time.March, 8, 11, 0, 0, 0, time.UTC), models.StatusTaken)

	streak, err := agg.StreakDays("alice", loc, now)
	require.NoError(t, err)
	assert.Equal(t, 2, streak)
}

func TestStreakDays_MissedTodayZeroesStreak(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "alice")
	agg := NewAggregator(db, testConfig(), zap.NewNop())
	med := seedMedication(t, db, "med-1", "alice")

	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	require.NoError(t, err)
	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)

	seedRecordAt(t, agg, med, time.Date(2025, time.March, 10, 11, 0, 0, 0, time.UTC), models.StatusSkipped)
	seedRecordAt(t, agg, med, time.Date(2025, time.March, 9, 11, 0, 0, 0, time.UTC), models.StatusTaken)

	streak, err := agg.StreakDays("alice", loc, now)
	require.NoError(t, err)
	assert.Equal(t, 0, streak)
}
