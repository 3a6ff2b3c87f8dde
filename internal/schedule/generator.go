package schedule

import (
	"fmt"
	"strings"
	"time"

	"medtrack/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Generator materializes the near-term dose schedule for a medication into
// the adherence ledger. Generation is idempotent: the composite unique index
// on (medication_id, scheduled_for) makes re-runs a no-op for instants that
// already have a row.
type Generator struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGenerator creates a schedule generator
func NewGenerator(db *gorm.DB, logger *zap.Logger) *Generator {
	return &Generator{db: db, logger: logger}
}

// DueInstants computes the UTC due instants for a medication across a window
// of local calendar days [from, to], inclusive. Pure: no store access.
func DueInstants(med *models.Medication, loc *time.Location, from, to LocalDate) ([]time.Time, error) {
	wanted, err := weekdaySet(med)
	if err != nil {
		return nil, err
	}

	var instants []time.Time
	seen := make(map[time.Time]struct{})

	for d := from; !d.After(to); d = d.Next() {
		if !med.ActiveOn(d.Year, d.Month, d.Day) {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[d.Weekday()]; !ok {
				continue
			}
		}
		for _, clock := range med.ScheduledTimes {
			instant, err := LocalTimeToUTC(d, clock, loc)
			if err != nil {
				return nil, fmt.Errorf("medication %s: %w", med.ID, err)
			}
			// Two wall times can land on the same instant across a DST
			// gap; the ledger holds one row per instant.
			if _, dup := seen[instant]; dup {
				continue
			}
			seen[instant] = struct{}{}
			instants = append(instants, instant)
		}
	}

	return instants, nil
}

// weekdaySet returns the allowed weekdays for a specific_weekdays medication,
// or nil when every day qualifies
func weekdaySet(med *models.Medication) (map[time.Weekday]struct{}, error) {
	if med.Frequency != models.FrequencySpecificWeekdays {
		return nil, nil
	}
	set := make(map[time.Weekday]struct{}, len(med.Weekdays))
	for _, name := range med.Weekdays {
		wd, ok := models.WeekdayNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("medication %s: unknown weekday %q", med.ID, name)
		}
		set[wd] = struct{}{}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("medication %s: specific_weekdays frequency with no weekdays", med.ID)
	}
	return set, nil
}

// Materialize upserts pending ledger rows for every due instant in the
// window. Existing rows are left untouched regardless of status. Returns the
// number of rows actually created.
func (g *Generator) Materialize(med *models.Medication, timezone string, from, to LocalDate) (int, error) {
	loc, err := LoadZone(timezone)
	if err != nil {
		return 0, err
	}

	instants, err := DueInstants(med, loc, from, to)
	if err != nil {
		return 0, err
	}
	if len(instants) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	records := make([]models.AdherenceRecord, 0, len(instants))
	for _, instant := range instants {
		records = append(records, models.AdherenceRecord{
			MedicationID: med.ID,
			Username:     med.Username,
			ScheduledFor: instant,
			Status:       models.StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	res := g.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "medication_id"}, {Name: "scheduled_for"}},
		DoNothing: true,
	}).Create(&records)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to materialize schedule for medication %s: %w", med.ID, res.Error)
	}

	g.logger.Info("materialized schedule",
		zap.String("medication_id", med.ID),
		zap.String("window_from", from.String()),
		zap.String("window_to", to.String()),
		zap.Int("instants", len(instants)),
		zap.Int64("created", res.RowsAffected),
	)

	return int(res.RowsAffected), nil
}

// Reconcile re-materializes the window after a medication edit and prunes
// future rows that no longer belong to the schedule. Only still-pending rows
// strictly after now may be pruned; taken/skipped/missed history and
// already-due rows are never touched.
func (g *Generator) Reconcile(med *models.Medication, timezone string, horizonDays int) (created, pruned int, err error) {
	loc, err := LoadZone(timezone)
	if err != nil {
		return 0, 0, err
	}

	now := time.Now().UTC()
	from := DateOf(now.In(loc))
	to := from.AddDays(horizonDays)

	if med.Active {
		created, err = g.Materialize(med, timezone, from, to)
		if err != nil {
			return 0, 0, err
		}
	}

	keep, err := DueInstants(med, loc, from, to)
	if err != nil {
		return created, 0, err
	}
	if !med.Active {
		keep = nil
	}

	prunable := func(db *gorm.DB) *gorm.DB {
		q := db.Where("medication_id = ? AND status = ? AND scheduled_for > ?",
			med.ID, models.StatusPending, now)
		if len(keep) > 0 {
			q = q.Where("scheduled_for NOT IN ?", keep)
		}
		return q
	}

	// reminder rows reference the ledger; clear them before the rows go
	sub := prunable(g.db.Model(&models.AdherenceRecord{})).Select("id")
	if err := g.db.Where("adherence_record_id IN (?)", sub).Delete(&models.Reminder{}).Error; err != nil {
		return created, 0, fmt.Errorf("failed to prune reminders for medication %s: %w", med.ID, err)
	}

	res := prunable(g.db).Delete(&models.AdherenceRecord{})
	if res.Error != nil {
		return created, 0, fmt.Errorf("failed to prune schedule for medication %s: %w", med.ID, res.Error)
	}
	pruned = int(res.RowsAffected)

	if pruned > 0 {
		g.logger.Info("pruned stale pending doses",
			zap.String("medication_id", med.ID),
			zap.Int("pruned", pruned),
		)
	}

	return created, pruned, nil
}
