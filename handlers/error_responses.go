package handlers

import (
	"errors"
	"net/http"
	"time"

	"nearme/api/models"

	"github.com/gin-gonic/gin"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

const (
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorCodeInvalidJSON      ErrorCode = "INVALID_JSON"
	ErrorCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden        ErrorCode = "FORBIDDEN"
	ErrorCodeConflict         ErrorCode = "CONFLICT"
	ErrorCodeInternalError    ErrorCode = "INTERNAL_ERROR"
)

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// SendError writes the standard error body.
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	c.AbortWithStatusJSON(statusCode, &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	})
}

// SendValidationError writes a 400 for err, listing the offending field
// when err is a *models.ValidationError.
func SendValidationError(c *gin.Context, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed",
			ErrorDetail{Field: verr.Field, Message: verr.Message})
		return
	}
	SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
}

func SendInvalidJSONError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON, "Invalid JSON in request body: "+err.Error())
}

func SendInternalError(c *gin.Context, operation string) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError, "Internal error during "+operation)
}
