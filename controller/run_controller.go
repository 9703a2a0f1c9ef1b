package controller

import (
	"log"
	"net/http"

	service "github.com/arnavb7/CompliFlow/service"
	"github.com/gin-gonic/gin"
)

// ComplianceController manages HTTP requests for survey runs and token-bearing
// survey submissions.
type ComplianceController struct {
	service *service.ComplianceService
}

func NewComplianceController(s *service.ComplianceService) *ComplianceController {
	return &ComplianceController{service: s}
}

// CreateRun creates a draft run with its questions.
func (c *ComplianceController) CreateRun(ctx *gin.Context) {
	var input service.CreateRunInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	run, err := c.service.CreateRun(input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, run)
}

// ListRuns returns all runs.
func (c *ComplianceController) ListRuns(ctx *gin.Context) {
	runs, err := c.service.ListRuns()
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, runs)
}

// GetRun returns one run with its questions and completion statistics.
func (c *ComplianceController) GetRun(ctx *gin.Context) {
	result, err := c.service.GetRunWithStats(ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// ActivateRun transitions a draft run to active and fans it out.
func (c *ComplianceController) ActivateRun(ctx *gin.Context) {
	run, err := c.service.ActivateRun(ctx.Param("id"))
	if err != nil {
		log.Printf("[ActivateRun] Error activating run %s: %v", ctx.Param("id"), err)
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "Run activated and invitations dispatched",
		"run":     run,
	})
}

// PauseRun suppresses recurrence and fan-out for a run.
func (c *ComplianceController) PauseRun(ctx *gin.Context) {
	if err := c.service.PauseRun(ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Run paused"})
}

// ResumeRun puts a paused run back into rotation.
func (c *ComplianceController) ResumeRun(ctx *gin.Context) {
	if err := c.service.ResumeRun(ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Run resumed"})
}
