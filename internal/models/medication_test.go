package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMedicationActiveOn(t *testing.T) {
	end := time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)
	med := Medication{
		StartDate: time.Date(2025, time.March, 10, 15, 30, 0, 0, time.UTC),
		EndDate:   &end,
	}

	assert.False(t, med.ActiveOn(2025, time.March, 9))
	// start and end days themselves are covered, whatever the stored clock
	assert.True(t, med.ActiveOn(2025, time.March, 10))
	assert.True(t, med.ActiveOn(2025, time.March, 15))
	assert.True(t, med.ActiveOn(2025, time.March, 20))
	assert.False(t, med.ActiveOn(2025, time.March, 21))
}

func TestMedicationActiveOn_OpenEnded(t *testing.T) {
	med := Medication{
		StartDate: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, med.ActiveOn(2025, time.March, 10))
	assert.True(t, med.ActiveOn(2030, time.January, 1))
}

func TestAdherenceStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusTaken.IsTerminal())
	assert.True(t, StatusSkipped.IsTerminal())
	assert.True(t, StatusMissed.IsTerminal())
}

func TestStringListContains(t *testing.T) {
	list := StringList{"monday", "thursday"}
	assert.True(t, list.Contains("monday"))
	assert.False(t, list.Contains("friday"))
	assert.False(t, StringList(nil).Contains("monday"))
}
