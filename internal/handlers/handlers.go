package handlers

import (
	"net/http"

	"medtrack/internal/schedule"
	"medtrack/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Package-level collaborators, wired once from main
var (
	cfg        services.Config
	logger     *zap.Logger
	generator  *schedule.Generator
	aggregator *services.Aggregator
	sweeper    *services.Sweeper
	dispatcher *services.Dispatcher
	horizonJob *services.HorizonJob
	riskScorer *services.RiskScorer
)

// Deps bundles everything the handlers need
type Deps struct {
	Config     services.Config
	Logger     *zap.Logger
	Generator  *schedule.Generator
	Aggregator *services.Aggregator
	Sweeper    *services.Sweeper
	Dispatcher *services.Dispatcher
	HorizonJob *services.HorizonJob
	RiskScorer *services.RiskScorer
}

// Init wires the handler package dependencies
func Init(d Deps) {
	cfg = d.Config
	logger = d.Logger
	generator = d.Generator
	aggregator = d.Aggregator
	sweeper = d.Sweeper
	dispatcher = d.Dispatcher
	horizonJob = d.HorizonJob
	riskScorer = d.RiskScorer
}

// handleError provides a consistent way to handle and log errors
func handleError(c *gin.Context, status int, message string, err error) {
	logger.Error(message, zap.Error(err), zap.String("path", c.FullPath()))
	c.JSON(status, gin.H{"error": message})
}

// HomeHandler handles requests to the root path "/"
func HomeHandler(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to medtrack!")
}

// HealthHandler is a simple health check endpoint
func HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
