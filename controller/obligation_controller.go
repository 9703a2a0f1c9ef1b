package controller

import (
	"net/http"

	model "github.com/arnavb7/CompliFlow/models"
	service "github.com/arnavb7/CompliFlow/service"
	"github.com/gin-gonic/gin"
)

// ObligationController manages HTTP requests for standalone obligations,
// their reminder recipients, and the reminder timeline.
type ObligationController struct {
	service *service.ObligationService
}

func NewObligationController(s *service.ObligationService) *ObligationController {
	return &ObligationController{service: s}
}

// CreateObligation registers a standalone compliance record.
func (c *ObligationController) CreateObligation(ctx *gin.Context) {
	var input service.CreateObligationInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	obligation, err := c.service.CreateObligation(input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, obligation)
}

// ListObligations returns all obligations.
func (c *ObligationController) ListObligations(ctx *gin.Context) {
	obligations, err := c.service.ListObligations()
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, obligations)
}

// UpdateObligationStatus applies a status transition.
func (c *ObligationController) UpdateObligationStatus(ctx *gin.Context) {
	var req struct {
		Status model.ObligationStatus `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	obligation, err := c.service.UpdateObligationStatus(ctx.Param("id"), req.Status)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, obligation)
}

// DeleteObligation removes an obligation and everything it owns.
func (c *ObligationController) DeleteObligation(ctx *gin.Context) {
	if err := c.service.DeleteObligation(ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Obligation deleted"})
}

// SearchObligations runs a full-text query over indexed obligations.
func (c *ObligationController) SearchObligations(ctx *gin.Context) {
	query := ctx.Query("q")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' required"})
		return
	}
	results, err := c.service.SearchObligations(query)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, results)
}

// AddReminderRecipient attaches an addressee to an obligation.
func (c *ObligationController) AddReminderRecipient(ctx *gin.Context) {
	var input service.ReminderRecipientInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	recipient, err := c.service.AddReminderRecipient(ctx.Param("id"), input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, recipient)
}

// ListReminderRecipients returns an obligation's addressees.
func (c *ObligationController) ListReminderRecipients(ctx *gin.Context) {
	recipients, err := c.service.ListReminderRecipients(ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, recipients)
}

// RemoveReminderRecipient detaches an addressee from an obligation.
func (c *ObligationController) RemoveReminderRecipient(ctx *gin.Context) {
	if err := c.service.RemoveReminderRecipient(ctx.Param("id"), ctx.Param("rid")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Reminder recipient removed"})
}

// ScheduleReminders lays out the reminder timeline for an obligation.
func (c *ObligationController) ScheduleReminders(ctx *gin.Context) {
	reminders, err := c.service.ScheduleReminders(ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"message":   "Reminders scheduled",
		"reminders": reminders,
	})
}
