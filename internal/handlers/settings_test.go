package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medtrack/internal/models"
	"medtrack/internal/schedule"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func seedSettings(t *testing.T, db *gorm.DB, timezone string) {
	t.Helper()
	require.NoError(t, db.Create(&models.UserSettings{
		Username:            "alice",
		Timezone:            timezone,
		ReminderLeadMinutes: 30,
		EmailEnabled:        true,
	}).Error)
}

func patchSettings(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/settings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestUpdateSettings_RejectsUnknownTimezone(t *testing.T) {
	router, db := setupTestRouter(t)
	seedSettings(t, db, "UTC")

	w := patchSettings(router, `{"timezone":"Mars/Olympus_Mons"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var settings models.UserSettings
	require.NoError(t, db.Where("username = ?", "alice").First(&settings).Error)
	assert.Equal(t, "UTC", settings.Timezone)
}

func TestUpdateSettings_TimezoneChangeRegeneratesSchedule(t *testing.T) {
	router, db := setupTestRouter(t)
	seedSettings(t, db, "UTC")
	seedDose(t, db, time.Now().UTC().Add(-time.Hour), models.StatusTaken)

	// Materialize the horizon under UTC: every pending 08:00 dose sits at 08:00Z
	var med models.Medication
	require.NoError(t, db.Where("id = ?", "med-1").First(&med).Error)
	gen := schedule.NewGenerator(db, zap.NewNop())
	_, _, err := gen.Reconcile(&med, "UTC", 7)
	require.NoError(t, err)

	w := patchSettings(router, `{"timezone":"Asia/Tokyo"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// 08:00 in Tokyo is 23:00Z the previous day; every future pending dose
	// must have moved to the new instants
	var pending []models.AdherenceRecord
	require.NoError(t, db.
		Where("status = ? AND scheduled_for > ?", models.StatusPending, time.Now().UTC()).
		Find(&pending).Error)
	require.NotEmpty(t, pending)
	for _, r := range pending {
		assert.Equal(t, 23, r.ScheduledFor.UTC().Hour(),
			fmt.Sprintf("dose at %s still on the old zone", r.ScheduledFor))
	}
}

func TestUpdateSettings_SurfacesRegenerationFailure(t *testing.T) {
	router, db := setupTestRouter(t)
	seedSettings(t, db, "UTC")

	// A broken medication table must not be swallowed: the caller has to
	// know the schedule was not regenerated
	require.NoError(t, db.Migrator().DropTable(&models.Medication{}))

	w := patchSettings(router, `{"timezone":"Asia/Tokyo"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUpdateSettings_LeadTimeOnlySkipsRegeneration(t *testing.T) {
	router, db := setupTestRouter(t)
	seedSettings(t, db, "UTC")

	w := patchSettings(router, `{"reminder_lead_minutes":120}`)
	require.Equal(t, http.StatusOK, w.Code)

	var settings models.UserSettings
	require.NoError(t, db.Where("username = ?", "alice").First(&settings).Error)
	assert.Equal(t, 120, settings.ReminderLeadMinutes)
	assert.Equal(t, "UTC", settings.Timezone)
}
