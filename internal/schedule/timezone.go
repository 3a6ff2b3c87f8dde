package schedule

import (
	"fmt"
	"time"
)

// LocalDate is a calendar day with no time-of-day and no timezone
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf extracts the calendar day from a time in its own location
func DateOf(t time.Time) LocalDate {
	return LocalDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Next returns the following calendar day
func (d LocalDate) Next() LocalDate {
	n := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return DateOf(n)
}

// AddDays returns the calendar day n days later
func (d LocalDate) AddDays(n int) LocalDate {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return DateOf(t)
}

// After reports whether d falls after other
func (d LocalDate) After(other LocalDate) bool {
	if d.Year != other.Year {
		return d.Year > other.Year
	}
	if d.Month != other.Month {
		return d.Month > other.Month
	}
	return d.Day > other.Day
}

// Weekday returns the day of week for the calendar day
func (d LocalDate) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// String formats the day as YYYY-MM-DD
func (d LocalDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// LoadZone resolves an IANA timezone name. An empty or unknown name is an
// error: medications must never fall back to UTC silently, that would shift
// every dose time for the user.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("timezone name is empty")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// ValidateZone checks that a timezone name resolves
func ValidateZone(name string) error {
	_, err := LoadZone(name)
	return err
}

// ParseClock parses a local wall-clock time in "HH:MM" form
func ParseClock(clock string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM: %w", clock, err)
	}
	return t.Hour(), t.Minute(), nil
}

// LocalTimeToUTC resolves a wall-clock time on a calendar day in the given
// zone to an absolute UTC instant.
//
// DST transitions are resolved deterministically: a wall time that occurs
// twice (clocks fall back) maps to the earlier of the two instants; a wall
// time that never occurs (clocks spring forward) rolls forward past the gap.
func LocalTimeToUTC(d LocalDate, clock string, loc *time.Location) (time.Time, error) {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	t := time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)

	// time.Date may resolve an ambiguous wall time to the later instant;
	// probe one hour back for an earlier instant with the same wall clock.
	if earlier := t.Add(-time.Hour); matchesWallClock(earlier, loc, d, hour, minute) {
		t = earlier
	}

	return t.UTC(), nil
}

// UTCToLocal converts a UTC instant back to the calendar day and wall-clock
// time in the given zone. Display only.
func UTCToLocal(instant time.Time, loc *time.Location) (LocalDate, string) {
	lt := instant.In(loc)
	return DateOf(lt), lt.Format("15:04")
}

func matchesWallClock(t time.Time, loc *time.Location, d LocalDate, hour, minute int) bool {
	lt := t.In(loc)
	return lt.Year() == d.Year && lt.Month() == d.Month && lt.Day() == d.Day &&
		lt.Hour() == hour && lt.Minute() == minute
}
