// Package middleware holds the gin middleware guarding the jobs API.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/use-agent/courtsched/models"
)

// identityKey is the gin context key carrying the caller's API key.
const identityKey = "api_key"

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: &models.ErrorDetail{Code: code, Message: msg},
	})
}
