package main

import (
	"log"
	"os"

	"medtrack/internal/auth"
	"medtrack/internal/database"
	"medtrack/internal/handlers"
	"medtrack/internal/models"
	"medtrack/internal/schedule"
	"medtrack/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env in development; in production the environment is set by the platform
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	var logger *zap.Logger
	var err error
	if os.Getenv("GIN_MODE") == "release" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Initialize database
	if err := database.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Initialize Google OAuth
	if err := auth.InitOAuth(); err != nil {
		log.Fatal("Failed to initialize OAuth:", err)
	}

	db := database.GetDB()
	cfg := services.LoadConfig()

	// Core services
	generator := schedule.NewGenerator(db, logger)
	aggregator := services.NewAggregator(db, cfg, logger)
	sweeper := services.NewSweeper(db, cfg, logger)
	dispatcher := services.NewDispatcher(db, cfg, logger, map[models.ReminderChannel]services.NotificationSender{
		models.ChannelEmail: services.NewEmailService(),
		models.ChannelSMS:   services.NewSMSService(),
	})
	horizonJob := services.NewHorizonJob(db, generator, cfg, logger)
	riskScorer := services.NewRiskScorer(db, cfg, logger)

	handlers.Init(handlers.Deps{
		Config:     cfg,
		Logger:     logger,
		Generator:  generator,
		Aggregator: aggregator,
		Sweeper:    sweeper,
		Dispatcher: dispatcher,
		HorizonJob: horizonJob,
		RiskScorer: riskScorer,
	})

	// Periodic jobs: hourly sweep-then-dispatch, nightly horizon + risk
	jobRunner := services.NewJobRunner(sweeper, dispatcher, horizonJob, riskScorer, logger)
	if err := jobRunner.Start(); err != nil {
		log.Fatal("Failed to start job runner:", err)
	}
	defer jobRunner.Stop()

	// Initialize Gin router
	router := gin.Default()

	// Configure trusted proxies
	router.SetTrustedProxies([]string{"127.0.0.1"})

	// The React frontends run on separate origins
	corsConfig := cors.DefaultConfig()
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = []string{origins}
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:5173"}
	}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Basic routes
	router.GET("/", handlers.HomeHandler)
	router.GET("/health", handlers.HealthHandler)

	// Auth routes (no auth required)
	router.GET("/auth/login", handlers.LoginHandler)
	router.GET("/auth/google/callback", handlers.GoogleCallbackHandler)

	// Protected routes (auth required)
	protected := router.Group("")
	protected.Use(auth.AuthMiddleware())
	{
		protected.POST("/auth/logout", handlers.LogoutHandler)
		protected.GET("/auth/me", handlers.GetCurrentUser)
		protected.POST("/accounts", handlers.CreateProfile)
	}

	// Routes that additionally require a completed profile
	profile := router.Group("")
	profile.Use(auth.AuthMiddleware(), auth.RequireProfile())
	{
		profile.GET("/accounts/me", handlers.GetAccount)
		profile.GET("/settings", handlers.GetSettings)
		profile.PATCH("/settings", handlers.UpdateSettings)

		profile.POST("/medications", handlers.CreateMedication)
		profile.GET("/medications", handlers.GetMedications)
		profile.GET("/medications/:id", handlers.GetMedication)
		profile.PATCH("/medications/:id", handlers.UpdateMedication)
		profile.DELETE("/medications/:id", handlers.DeleteMedication)
		profile.GET("/medications/:id/risk", handlers.GetMedicationRisk)

		profile.GET("/doses/today", handlers.GetTodayDoses)
		profile.GET("/doses", handlers.GetAdherenceHistory)
		profile.POST("/doses/:id/confirm", handlers.ConfirmDose)
		profile.POST("/doses/:id/skip", handlers.SkipDose)

		profile.GET("/stats/summary", handlers.GetAdherenceSummary)

		profile.POST("/jobs/sweep", handlers.TriggerSweep)
		profile.POST("/jobs/dispatch", handlers.TriggerDispatch)
		profile.POST("/jobs/extend-horizon", handlers.TriggerHorizon)
		profile.POST("/jobs/score-risk", handlers.TriggerRiskScoring)
	}

	// Start the server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("Server starting", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
