package controller

import (
	"errors"
	"net/http"

	service "github.com/arnavb7/CompliFlow/service"
	"github.com/gin-gonic/gin"
)

// respondError maps the service error taxonomy onto HTTP status codes.
// Structural errors surface with their message; anything unrecognized is an
// internal error.
func respondError(ctx *gin.Context, err error) {
	var (
		validation *service.ValidationError
		notFound   *service.NotFoundError
		badToken   *service.InvalidTokenError
		completed  *service.AlreadyCompletedError
		questions  *service.InvalidQuestionError
		noAudience *service.NoAudienceError
	)

	switch {
	case errors.As(err, &validation):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.As(err, &questions):
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":        "invalid questions in submission",
			"question_ids": questions.QuestionIDs,
		})
	case errors.As(err, &notFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &badToken):
		ctx.JSON(http.StatusNotFound, gin.H{"error": badToken.Error()})
	case errors.As(err, &completed):
		ctx.JSON(http.StatusConflict, gin.H{"error": completed.Error()})
	case errors.As(err, &noAudience):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": noAudience.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
