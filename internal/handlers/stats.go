package handlers

import (
	"net/http"
	"time"

	"medtrack/internal/database"
	"medtrack/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetAdherenceSummary returns the dashboard rollup: today/week/month stats,
// grade, and the current streak
func GetAdherenceSummary(c *gin.Context) {
	username := c.GetString("username")

	settings, err := settingsFor(username)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}

	summary, err := aggregator.Summarize(username, settings.Timezone, time.Now().UTC())
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to compute adherence summary", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetMedicationRisk returns the latest risk assessment for a medication.
// ?fresh=true recomputes instead of reading the nightly snapshot.
func GetMedicationRisk(c *gin.Context) {
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

	if c.Query("fresh") == "true" {
		assessment, err := riskScorer.ScoreMedication(med, time.Now().UTC())
		if err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to score medication", err)
			return
		}
		c.JSON(http.StatusOK, assessment)
		return
	}

	var assessment models.RiskAssessment
	err = db.Where("medication_id = ?", med.ID).First(&assessment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "No risk assessment yet"})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to load risk assessment", err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}
