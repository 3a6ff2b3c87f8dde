package handlers

import (
	"net/http"
	"time"

	"medtrack/internal/database"
	"medtrack/internal/models"
	"medtrack/internal/schedule"

	"github.com/gin-gonic/gin"
)

// GetTodayDoses lists the user's doses for today in their local timezone
func GetTodayDoses(c *gin.Context) {
	username := c.GetString("username")

	settings, err := settingsFor(username)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}
	loc, err := schedule.LoadZone(settings.Timezone)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Account timezone is invalid", err)
		return
	}

	today := schedule.DateOf(time.Now().In(loc))
	dayStart, err := schedule.LocalTimeToUTC(today, "00:00", loc)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to resolve day bounds", err)
		return
	}
	dayEnd, err := schedule.LocalTimeToUTC(today.Next(), "00:00", loc)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to resolve day bounds", err)
		return
	}

	db := database.GetDB()
	var records []models.AdherenceRecord
	err = db.Preload("Medication").
		Where("username = ? AND scheduled_for >= ? AND scheduled_for < ?", username, dayStart, dayEnd).
		Order("scheduled_for").
		Find(&records).Error
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to list doses", err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetAdherenceHistory lists the user's records in a UTC range
// (?from=RFC3339&to=RFC3339, defaults to the last 30 days)
func GetAdherenceHistory(c *gin.Context) {
	username := c.GetString("username")

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from timestamp"})
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to timestamp"})
			return
		}
		to = parsed
	}

	db := database.GetDB()
	query := db.Preload("Medication").
		Where("username = ? AND scheduled_for >= ? AND scheduled_for <= ?", username, from, to)
	if medID := c.Query("medication_id"); medID != "" {
		query = query.Where("medication_id = ?", medID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var records []models.AdherenceRecord
	if err := query.Order("scheduled_for desc").Find(&records).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to list adherence history", err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// ConfirmDose marks a pending dose taken. The update is conditional on the
// row still being pending, so it cannot race the sweeper: whichever actor
// transitions first wins and the loser sees a conflict.
func ConfirmDose(c *gin.Context) {
	transitionDose(c, models.StatusTaken)
}

// SkipDose marks a pending dose skipped
func SkipDose(c *gin.Context) {
	transitionDose(c, models.StatusSkipped)
}

func transitionDose(c *gin.Context, target models.AdherenceStatus) {
	var request models.DoseActionRequest
	if err := c.ShouldBindJSON(&request); err != nil && err.Error() != "EOF" {
		handleError(c, http.StatusBadRequest, "Invalid input: "+err.Error(), err)
		return
	}

	username := c.GetString("username")
	db := database.GetDB()

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":     target,
		"updated_at": now,
	}
	if target == models.StatusTaken {
		updates["taken_at"] = now
	}
	if request.Notes != "" {
		updates["notes"] = request.Notes
	}

	res := db.Model(&models.AdherenceRecord{}).
		Where("id = ? AND username = ? AND status = ?", c.Param("id"), username, models.StatusPending).
		Updates(updates)
	if res.Error != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update dose", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		// either not this user's record or it already left pending
		var record models.AdherenceRecord
		if err := db.Where("id = ? AND username = ?", c.Param("id"), username).First(&record).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Dose not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Dose is no longer pending",
			"status": record.Status,
		})
		return
	}

	var record models.AdherenceRecord
	if err := db.Preload("Medication").Where("id = ?", c.Param("id")).First(&record).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to reload dose", err)
		return
	}

	c.JSON(http.StatusOK, record)
}
