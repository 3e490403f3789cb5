package handlers

import (
	"net/http"

	"directionmap/internal/domain"
	"directionmap/internal/http/middleware"
	"directionmap/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      message,
			"code":       code,
			"details":    details,
			"request_id": reqID,
		})
		return
	}
	c.JSON(status, ErrorResponse{Error: message, Code: code, Details: details})
}

// RespondDomainError logs a failed operation and maps its domain error to
// an HTTP response. Internal detail never reaches the caller.
func RespondDomainError(c *gin.Context, operation string, err error) {
	utils.LogEvent(middleware.GetRequestID(c), "routes", operation, err.Error())

	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsForbidden(err):
		respondError(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case domain.IsUpstream(err):
		respondError(c, http.StatusBadGateway, "upstream_error", err.Error(), nil)
	default:
		respondError(c, http.StatusInternalServerError, "internal_error", "an unexpected error occurred", nil)
	}
}
