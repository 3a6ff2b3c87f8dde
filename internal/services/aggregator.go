package services

import (
	"fmt"
	"time"

	"medtrack/internal/models"
	"medtrack/internal/schedule"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxStreakDays bounds how far back the streak walk looks
const maxStreakDays = 365

// Stats is the adherence rollup for one time window. Pending doses are
// excluded from the denominator: a dose not yet due must not depress the
// rate.
type Stats struct {
	Taken            int     `json:"taken"`
	Skipped          int     `json:"skipped"`
	Missed           int     `json:"missed"`
	Pending          int     `json:"pending"`
	Completed        int     `json:"completed"`
	AdherenceRate    float64 `json:"adherence_rate"`
	InsufficientData bool    `json:"insufficient_data"`
	Grade            string  `json:"grade"`
}

// Summary is the dashboard rollup across the standard windows
type Summary struct {
	Today      Stats `json:"today"`
	Week       Stats `json:"week"`
	Month      Stats `json:"month"`
	StreakDays int   `json:"streak_days"`
}

// Aggregator computes adherence statistics from the dose ledger
type Aggregator struct {
	db     *gorm.DB
	cfg    Config
	logger *zap.Logger
}

// NewAggregator creates an adherence aggregator
func NewAggregator(db *gorm.DB, cfg Config, logger *zap.Logger) *Aggregator {
	return &Aggregator{db: db, cfg: cfg, logger: logger}
}

// WindowStats partitions a user's records in [from, to) (UTC bounds) by
// status. A window with zero completed records reports a 0% rate flagged as
// insufficient data, never a division fault.
func (a *Aggregator) WindowStats(username string, from, to time.Time) (Stats, error) {
	type statusCount struct {
		Status models.AdherenceStatus
		N      int
	}
	var counts []statusCount
	err := a.db.Model(&models.AdherenceRecord{}).
		Select("status, count(*) as n").
		Where("username = ? AND scheduled_for >= ? AND scheduled_for < ?", username, from, to).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return Stats{}, fmt.Errorf("failed to aggregate adherence for %s: %w", username, err)
	}

	var stats Stats
	for _, c := range counts {
		switch c.Status {
		case models.StatusTaken:
			stats.Taken = c.N
		case models.StatusSkipped:
			stats.Skipped = c.N
		case models.StatusMissed:
			stats.Missed = c.N
		case models.StatusPending:
			stats.Pending = c.N
		}
	}

	stats.Completed = stats.Taken + stats.Skipped + stats.Missed
	if stats.Completed == 0 {
		stats.InsufficientData = true
	} else {
		stats.AdherenceRate = float64(stats.Taken) / float64(stats.Completed) * 100
	}
	stats.Grade = a.cfg.GradeFor(stats.AdherenceRate)

	return stats, nil
}

// Summarize builds the dashboard summary for a user. Window bounds are the
// user's local calendar days converted to UTC instants.
func (a *Aggregator) Summarize(username string, timezone string, now time.Time) (Summary, error) {
	loc, err := schedule.LoadZone(timezone)
	if err != nil {
		return Summary{}, err
	}

	today := schedule.DateOf(now.In(loc))
	dayStart, err := schedule.LocalTimeToUTC(today, "00:00", loc)
	if err != nil {
		return Summary{}, err
	}
	dayEnd, err := schedule.LocalTimeToUTC(today.Next(), "00:00", loc)
	if err != nil {
		return Summary{}, err
	}
	weekStart, err := schedule.LocalTimeToUTC(today.AddDays(-6), "00:00", loc)
	if err != nil {
		return Summary{}, err
	}
	monthStart, err := schedule.LocalTimeToUTC(today.AddDays(-29), "00:00", loc)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	if summary.Today, err = a.WindowStats(username, dayStart, dayEnd); err != nil {
		return Summary{}, err
	}
	if summary.Week, err = a.WindowStats(username, weekStart, dayEnd); err != nil {
		return Summary{}, err
	}
	if summary.Month, err = a.WindowStats(username, monthStart, dayEnd); err != nil {
		return Summary{}, err
	}
	if summary.StreakDays, err = a.StreakDays(username, loc, now); err != nil {
		return Summary{}, err
	}

	return summary, nil
}

type dayTally struct {
	completed int
	taken     int
}

// StreakDays walks local calendar days backward from today. A day extends
// the streak only when it has at least one completed record and every
// completed record is taken; a past day with no recorded doses breaks the
// streak. Today breaks the streak only if it already has a non-taken
// completed record; an empty today is skipped.
func (a *Aggregator) StreakDays(username string, loc *time.Location, now time.Time) (int, error) {
	since := now.AddDate(0, 0, -(maxStreakDays + 1))
	var records []models.AdherenceRecord
	err := a.db.Select("scheduled_for, status").
		Where("username = ? AND scheduled_for >= ? AND status <> ?",
			username, since, models.StatusPending).
		Find(&records).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load streak history for %s: %w", username, err)
	}

	days := make(map[string]*dayTally)
	for _, r := range records {
		key := schedule.DateOf(r.ScheduledFor.In(loc)).String()
		tally := days[key]
		if tally == nil {
			tally = &dayTally{}
			days[key] = tally
		}
		tally.completed++
		if r.Status == models.StatusTaken {
			tally.taken++
		}
	}

	streak := 0
	day := schedule.DateOf(now.In(loc))

	if tally, ok := days[day.String()]; ok {
		if tally.taken < tally.completed {
			return 0, nil
		}
		streak++
	}

	for i := 1; i <= maxStreakDays; i++ {
		key := day.AddDays(-i).String()
		tally, ok := days[key]
		if !ok || tally.completed == 0 || tally.taken < tally.completed {
			break
		}
		streak++
	}

	return streak, nil
}
