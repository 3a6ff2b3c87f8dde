package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Manual trigger endpoints for the periodic jobs, for operational testing.
// Each returns the job's {processed, changed, errors} summary.

// TriggerSweep runs the missed-dose sweeper once
func TriggerSweep(c *gin.Context) {
	c.JSON(http.StatusOK, sweeper.Run(time.Now().UTC()))
}

// TriggerDispatch runs the reminder dispatcher once
func TriggerDispatch(c *gin.Context) {
	c.JSON(http.StatusOK, dispatcher.Run(time.Now().UTC()))
}

// TriggerHorizon runs the schedule-horizon extension once
func TriggerHorizon(c *gin.Context) {
	c.JSON(http.StatusOK, horizonJob.Run(time.Now().UTC()))
}

// TriggerRiskScoring runs the nightly risk scoring once
func TriggerRiskScoring(c *gin.Context) {
	c.JSON(http.StatusOK, riskScorer.Run(time.Now().UTC()))
}
