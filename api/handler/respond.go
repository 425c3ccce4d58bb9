package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/courtsched/models"
)

// respondError maps err to an HTTP status and writes the structured error
// body.
func respondError(c *gin.Context, err error) {
	var e *models.Error
	if !errors.As(err, &e) {
		e = models.NewError(models.ErrCodeInternal, err.Error(), err)
	}
	c.JSON(mapErrorToStatus(e.Code), models.ErrorResponse{Error: e.ToDetail()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: &models.ErrorDetail{
		Code:    models.ErrCodeInvalidInput,
		Message: msg,
	}})
}

func mapErrorToStatus(code string) int {
	switch code {
	case models.ErrCodeInvalidInput, models.ErrCodeValidation:
		return http.StatusBadRequest // 400
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeConfiguration:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
