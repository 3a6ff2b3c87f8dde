package services

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config carries the tunables for the scheduling and reminder jobs.
// Values come from the environment with sensible defaults; tests inject
// their own.
type Config struct {
	// GracePeriod is how long after its due instant a pending dose may
	// still be confirmed before the sweeper marks it missed.
	GracePeriod time.Duration
	// ReminderLead is how far ahead of the due instant a reminder may go out.
	ReminderLead time.Duration
	// HorizonDays is how far ahead the generator materializes ledger rows.
	HorizonDays int
	// GradeThresholds maps letter grades to the minimum adherence rate
	// (percent) that earns them.
	GradeThresholds map[string]float64
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		GracePeriod:  180 * time.Minute,
		ReminderLead: 30 * time.Minute,
		HorizonDays:  14,
		GradeThresholds: map[string]float64{
			"A+": 95,
			"A":  90,
			"B":  80,
			"C":  70,
			"D":  60,
		},
	}
}

// LoadConfig builds a Config from the environment on top of the defaults.
// Recognized variables: MISSED_GRACE_PERIOD_MINUTES, REMINDER_LEAD_TIME_MINUTES,
// SCHEDULE_HORIZON_DAYS, ADHERENCE_GRADE_THRESHOLDS ("A+=95,A=90,...").
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := envInt("MISSED_GRACE_PERIOD_MINUTES"); v > 0 {
		cfg.GracePeriod = time.Duration(v) * time.Minute
	}
	if v := envInt("REMINDER_LEAD_TIME_MINUTES"); v > 0 {
		cfg.ReminderLead = time.Duration(v) * time.Minute
	}
	if v := envInt("SCHEDULE_HORIZON_DAYS"); v > 0 {
		cfg.HorizonDays = v
	}
	if raw := os.Getenv("ADHERENCE_GRADE_THRESHOLDS"); raw != "" {
		if parsed := parseThresholds(raw); len(parsed) > 0 {
			cfg.GradeThresholds = parsed
		}
	}

	return cfg
}

// GradeFor maps an adherence rate (percent) to a letter grade. Rates below
// every threshold earn an E.
func (c Config) GradeFor(rate float64) string {
	type entry struct {
		grade string
		min   float64
	}
	entries := make([]entry, 0, len(c.GradeThresholds))
	for g, min := range c.GradeThresholds {
		entries = append(entries, entry{grade: g, min: min})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].min > entries[j].min })
	for _, e := range entries {
		if rate >= e.min {
			return e.grade
		}
	}
	return "E"
}

func envInt(key string) int {
	raw := os.Getenv(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

func parseThresholds(raw string) map[string]float64 {
	out := make(map[string]float64)
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		min, err := strconv.ParseFloat(kv[1], 64)
		if err != nil {
			continue
		}
		out[kv[0]] = min
	}
	return out
}

// JobSummary reports the outcome of one batch job run. Per-record failures
// are counted, never fatal: partial progress is preserved.
type JobSummary struct {
	Processed int `json:"processed"`
	Changed   int `json:"changed"`
	Errors    int `json:"errors"`
}
