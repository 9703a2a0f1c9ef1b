package main

import (
	"log"
	"net/http"
	"os"

	controller "github.com/arnavb7/CompliFlow/controller"
	"github.com/arnavb7/CompliFlow/initializers"
	middleware "github.com/arnavb7/CompliFlow/middleware"
	service "github.com/arnavb7/CompliFlow/service"

	"github.com/gin-gonic/gin"
)

func init() {
	if err := initializers.LoadEnv(); err != nil {
		log.Printf("[WARN] No .env file loaded: %s", err)
	}
	if err := initializers.ConnectDB(); err != nil {
		log.Fatalf("[CRITICAL] Failed to initialize database connection: %s", err)
	}
	if err := initializers.Migrate(); err != nil {
		log.Fatalf("[CRITICAL] Failed to run database migrations: %s", err)
	}
}

func main() {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	notifier, err := service.NewSMTPNotifier()
	if err != nil {
		log.Fatalf("[CRITICAL] Failed to initialize notifier: %s", err)
	}

	complianceService := service.NewComplianceService(initializers.DB, notifier, baseURL)
	obligationService, err := service.NewObligationService(initializers.DB, notifier, baseURL)
	if err != nil {
		log.Fatalf("[CRITICAL] Failed to initialize obligation service: %s", err)
	}

	complianceController := controller.NewComplianceController(complianceService)
	obligationController := controller.NewObligationController(obligationService)

	// Daily tick: expires overdue runs, marks overdue obligations, dispatches
	// due reminders, recurs due runs.
	driver := service.NewDriver(initializers.DB, complianceService, obligationService)
	tickTime := os.Getenv("REMINDER_TICK_TIME")
	if tickTime == "" {
		tickTime = "08:00"
	}
	if _, err := driver.ScheduleDaily(tickTime); err != nil {
		log.Fatalf("[CRITICAL] Failed to schedule daily tick: %s", err)
	}
	driver.Start()
	defer driver.Stop()

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())

	// Global rate limiter for most routes
	router.Use(middleware.GlobalRateLimiter.Limit())

	// Survey runs
	router.POST("/runs",
		middleware.StrictRateLimiter.Limit(),
		complianceController.CreateRun)
	router.GET("/runs", complianceController.ListRuns)
	router.GET("/runs/:id", complianceController.GetRun)
	router.POST("/runs/:id/activate",
		middleware.StrictRateLimiter.Limit(),
		complianceController.ActivateRun)
	router.POST("/runs/:id/pause", complianceController.PauseRun)
	router.POST("/runs/:id/resume", complianceController.ResumeRun)

	// Token-bearing survey surface
	router.GET("/compliance-survey/:token", complianceController.GetSurvey)
	router.POST("/compliance-survey/:token",
		middleware.StrictRateLimiter.Limit(),
		complianceController.SubmitSurvey)

	// Standalone obligations and reminders
	router.POST("/obligations",
		middleware.StrictRateLimiter.Limit(),
		obligationController.CreateObligation)
	router.GET("/obligations", obligationController.ListObligations)
	router.GET("/obligations/search", obligationController.SearchObligations)
	router.PUT("/obligations/:id/status", obligationController.UpdateObligationStatus)
	router.DELETE("/obligations/:id", obligationController.DeleteObligation)
	router.POST("/obligations/:id/recipients", obligationController.AddReminderRecipient)
	router.GET("/obligations/:id/recipients", obligationController.ListReminderRecipients)
	router.DELETE("/obligations/:id/recipients/:rid", obligationController.RemoveReminderRecipient)
	router.POST("/obligations/:id/schedule",
		middleware.StrictRateLimiter.Limit(),
		obligationController.ScheduleReminders)

	router.GET("/reminders/pending", obligationController.ListPendingReminders)
	router.GET("/compliance-confirm/:token", obligationController.GetConfirmation)
	router.POST("/compliance-confirm/:token",
		middleware.StrictRateLimiter.Limit(),
		obligationController.ConfirmReminder)

	// Healthcheck endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.Run(":8080")
}
