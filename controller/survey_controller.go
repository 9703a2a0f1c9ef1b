package controller

import (
	"net/http"

	service "github.com/arnavb7/CompliFlow/service"
	"github.com/gin-gonic/gin"
)

// GetSurvey renders the survey a token link points at.
func (c *ComplianceController) GetSurvey(ctx *gin.Context) {
	survey, err := c.service.GetSurveyByToken(ctx.Param("token"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, survey)
}

// SubmitSurvey applies a token-bearing survey submission exactly once.
func (c *ComplianceController) SubmitSurvey(ctx *gin.Context) {
	var req struct {
		Answers []service.AnswerInput `json:"answers" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := c.service.SubmitSurvey(ctx.Param("token"), req.Answers); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Survey submitted successfully"})
}
