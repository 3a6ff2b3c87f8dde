package handlers

import (
	"net/http"
	"strings"
	"time"

	"medtrack/internal/database"
	"medtrack/internal/models"
	"medtrack/internal/schedule"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// validateScheduleFields checks the HH:MM times and weekday names shared by
// create and update
func validateScheduleFields(frequency string, scheduledTimes, weekdays []string) (string, bool) {
	for _, clock := range scheduledTimes {
		if _, _, err := schedule.ParseClock(clock); err != nil {
			return "Invalid scheduled time: " + clock, false
		}
	}
	if frequency == string(models.FrequencySpecificWeekdays) {
		if len(weekdays) == 0 {
			return "specific_weekdays frequency requires at least one weekday", false
		}
		for _, name := range weekdays {
			if _, ok := models.WeekdayNames[strings.ToLower(name)]; !ok {
				return "Unknown weekday: " + name, false
			}
		}
	}
	return "", true
}

func settingsFor(username string) (*models.UserSettings, error) {
	db := database.GetDB()
	var settings models.UserSettings
	if err := db.Where("username = ?", username).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// CreateMedication creates a medication and materializes its near-term
// schedule
func CreateMedication(c *gin.Context) {
	var request models.CreateMedicationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input: "+err.Error(), err)
		return
	}

	if msg, ok := validateScheduleFields(request.Frequency, request.ScheduledTimes, request.Weekdays); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if request.EndDate != nil && request.EndDate.Before(request.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must not precede start_date"})
		return
	}

	username := c.GetString("username")
	settings, err := settingsFor(username)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}
	// The zone was validated on settings write, but a TZ database update can
	// invalidate it later; reject here rather than generate shifted doses.
	if err := schedule.ValidateZone(settings.Timezone); err != nil {
		handleError(c, http.StatusBadRequest, "Account timezone is invalid, update settings first", err)
		return
	}

	med := models.Medication{
		Username:       username,
		Name:           request.Name,
		DosageAmount:   request.DosageAmount,
		DosageUnit:     request.DosageUnit,
		Frequency:      models.FrequencyType(request.Frequency),
		Weekdays:       models.StringList(request.Weekdays),
		ScheduledTimes: models.StringList(request.ScheduledTimes),
		StartDate:      request.StartDate,
		EndDate:        request.EndDate,
		Notes:          request.Notes,
		Active:         true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	db := database.GetDB()
	if err := db.Create(&med).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create medication", err)
		return
	}

	if _, _, err := generator.Reconcile(&med, settings.Timezone, cfg.HorizonDays); err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to materialize schedule", err)
		return
	}

	c.JSON(http.StatusCreated, med)
}

// GetMedications lists the user's medications; ?active=true filters to
// active ones
func GetMedications(c *gin.Context) {
	username := c.GetString("username")
	db := database.GetDB()

	query := db.Where("username = ?", username)
	if c.Query("active") == "true" {
		query = query.Where("active = ?", true)
	}

	var meds []models.Medication
	if err := query.Order("created_at").Find(&meds).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to list medications", err)
		return
	}

	c.JSON(http.StatusOK, meds)
}

// GetMedication returns one medication owned by the user
func GetMedication(c *gin.Context) {
	username := c.GetString("username")
	db := database.GetDB()

	var med models.Medication
	err := db.Where("id = ? AND username = ?", c.Param("id"), username).First(&med).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Medication not found"})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to load medication", err)
		return
	}

	c.JSON(http.StatusOK, med)
}

// UpdateMedication edits a medication and reconciles its schedule: future
// still-pending doses for removed slots are pruned, history is never touched
func UpdateMedication(c *gin.Context) {
	var request models.UpdateMedicationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input: "+err.Error(), err)
		return
	}

	username := c.GetString("username")
	db := database.GetDB()

	var med models.Medication
	err := db.Where("id = ? AND username = ?", c.Param("id"), username).First(&med).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Medication not found"})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to load medication", err)
		return
	}

	if request.Name != nil {
		med.Name = *request.Name
	}
	if request.DosageAmount != nil {
		med.DosageAmount = *request.DosageAmount
	}
	if request.DosageUnit != nil {
		med.DosageUnit = *request.DosageUnit
	}
	if request.Frequency != nil {
		med.Frequency = models.FrequencyType(*request.Frequency)
	}
	if request.Weekdays != nil {
		med.Weekdays = models.StringList(request.Weekdays)
	}
	if request.ScheduledTimes != nil {
		med.ScheduledTimes = models.StringList(request.ScheduledTimes)
	}
	if request.StartDate != nil {
		med.StartDate = *request.StartDate
	}
	if request.EndDate != nil {
		med.EndDate = request.EndDate
	}
	if request.Notes != nil {
		med.Notes = *request.Notes
	}
	if request.Active != nil {
		med.Active = *request.Active
	}
	med.UpdatedAt = time.Now()

	if msg, ok := validateScheduleFields(string(med.Frequency), med.ScheduledTimes, med.Weekdays); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if med.EndDate != nil && med.EndDate.Before(med.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must not precede start_date"})
		return
	}

	settings, err := settingsFor(username)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}

	if err := db.Save(&med).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update medication", err)
		return
	}

	if _, _, err := generator.Reconcile(&med, settings.Timezone, cfg.HorizonDays); err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to reconcile schedule", err)
		return
	}

	c.JSON(http.StatusOK, med)
}

// DeleteMedication soft-deactivates a medication. Adherence history stays;
// future pending doses are pruned.
func DeleteMedication(c *gin.Context) {
	username := c.GetString("username")
	db := database.GetDB()

	var med models.Medication
	err := db.Where("id = ? AND username = ?", c.Param("id"), username).First(&med).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Medication not found"})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to load medication", err)
		return
	}

	med.Active = false
	med.UpdatedAt = time.Now()
	if err := db.Save(&med).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to deactivate medication", err)
		return
	}

	settings, err := settingsFor(username)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}
	if _, _, err := generator.Reconcile(&med, settings.Timezone, cfg.HorizonDays); err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to prune schedule", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Medication deactivated"})
}
