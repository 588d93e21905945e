package responses

import (
	"net/http"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/httpserver/middlewares"

	"github.com/gin-gonic/gin"
)

// ErrorType classifies an API error.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation_error"
	ErrorTypeUnauthorized ErrorType = "unauthorized_error"
	ErrorTypeForbidden    ErrorType = "forbidden_error"
	ErrorTypeNotFound     ErrorType = "not_found_error"
	ErrorTypeTimeout      ErrorType = "timeout_error"
	ErrorTypeInternal     ErrorType = "internal_error"
)

// HTTPErrorResponse represents the standard error response format.
type HTTPErrorResponse struct {
	Error *HTTPErrorDetail `json:"error"`
}

// HTTPErrorDetail contains error details for HTTP responses.
type HTTPErrorDetail struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorTypeToHTTPStatus maps an error type to its status code.
func ErrorTypeToHTTPStatus(t ErrorType) int {
	switch t {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeForbidden:
		return http.StatusForbidden
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteError aborts the request with a typed error body.
func WriteError(c *gin.Context, t ErrorType, message string) {
	c.AbortWithStatusJSON(ErrorTypeToHTTPStatus(t), HTTPErrorResponse{
		Error: &HTTPErrorDetail{
			Message:   message,
			Type:      string(t),
			RequestID: middlewares.GetRequestID(c),
		},
	})
}

// WriteValidationError writes a 400 Bad Request response.
func WriteValidationError(c *gin.Context, message string) {
	WriteError(c, ErrorTypeValidation, message)
}
