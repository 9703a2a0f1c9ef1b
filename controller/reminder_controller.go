package controller

import (
	"net/http"

	service "github.com/arnavb7/CompliFlow/service"
	"github.com/gin-gonic/gin"
)

// ListPendingReminders returns all not-yet-dispatched reminders.
func (c *ObligationController) ListPendingReminders(ctx *gin.Context) {
	reminders, err := c.service.ListPendingReminders()
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":   "Pending reminders retrieved successfully",
		"reminders": reminders,
	})
}

// GetConfirmation renders the confirmation page context behind a token link.
func (c *ObligationController) GetConfirmation(ctx *gin.Context) {
	context, err := c.service.GetReminderByToken(ctx.Param("token"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, context)
}

// ConfirmReminder redeems a reminder confirmation token.
func (c *ObligationController) ConfirmReminder(ctx *gin.Context) {
	var input service.ConfirmReminderInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	confirmation, err := c.service.ConfirmReminder(ctx.Param("token"), input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":      "Reminder confirmed",
		"confirmation": confirmation,
	})
}
