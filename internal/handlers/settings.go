package handlers

import (
	"net/http"
	"time"

	"medtrack/internal/database"
	"medtrack/internal/models"
	"medtrack/internal/schedule"

	"github.com/gin-gonic/gin"
)

// GetSettings returns the user's reminder preferences
func GetSettings(c *gin.Context) {
	username := c.GetString("username")

	db := database.GetDB()
	var settings models.UserSettings
	if err := db.Where("username = ?", username).First(&settings).Error; err != nil {
		handleError(c, http.StatusNotFound, "Settings not found", err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateSettings updates reminder preferences. A timezone change is
// validated before the write and triggers schedule regeneration for the
// user's active medications, since every local dose time now resolves to
// different instants.
func UpdateSettings(c *gin.Context) {
	var request models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input: "+err.Error(), err)
		return
	}

	username := c.GetString("username")
	db := database.GetDB()

	var settings models.UserSettings
	if err := db.Where("username = ?", username).First(&settings).Error; err != nil {
		handleError(c, http.StatusNotFound, "Settings not found", err)
		return
	}

	timezoneChanged := false
	if request.Timezone != nil && *request.Timezone != settings.Timezone {
		if err := schedule.ValidateZone(*request.Timezone); err != nil {
			handleError(c, http.StatusBadRequest, "Unknown timezone: "+*request.Timezone, err)
			return
		}
		settings.Timezone = *request.Timezone
		timezoneChanged = true
	}
	if request.ReminderLeadMinutes != nil {
		settings.ReminderLeadMinutes = *request.ReminderLeadMinutes
	}
	if request.EmailEnabled != nil {
		settings.EmailEnabled = *request.EmailEnabled
	}
	if request.SMSEnabled != nil {
		settings.SMSEnabled = *request.SMSEnabled
	}
	settings.UpdatedAt = time.Now()

	if err := db.Save(&settings).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update settings", err)
		return
	}

	if timezoneChanged {
		var meds []models.Medication
		if err := db.Where("username = ? AND active = ?", username, true).Find(&meds).Error; err != nil {
			// settings are already committed; the caller must know the
			// schedule still holds old-zone instants
			handleError(c, http.StatusInternalServerError, "Timezone saved but schedule regeneration failed", err)
			return
		}
		for i := range meds {
			if _, _, err := generator.Reconcile(&meds[i], settings.Timezone, cfg.HorizonDays); err != nil {
				handleError(c, http.StatusInternalServerError, "Failed to regenerate schedule", err)
				return
			}
		}
	}

	c.JSON(http.StatusOK, settings)
}
