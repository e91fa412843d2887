// internal/utils/response.go
package utils

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dipcoater-service/internal/codec"
	"dipcoater-service/internal/model"
	"dipcoater-service/internal/protocol"
)

// APIResponse represents standard API response structure
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError represents error information
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse sends a successful response
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	response := APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: getRequestID(c),
	}

	c.JSON(statusCode, response)
}

// ErrorResponse sends an error response
func ErrorResponse(c *gin.Context, statusCode int, message string, err error) {
	errorResponse(c, statusCode, getErrorCode(statusCode), message, err)
}

// DomainErrorResponse sends an error response with status and code derived
// from the error type
func DomainErrorResponse(c *gin.Context, message string, err error) {
	statusCode, code := ClassifyError(err)
	errorResponse(c, statusCode, code, message, err)
}

// ValidationErrorResponse sends validation error response
func ValidationErrorResponse(c *gin.Context, errors map[string]string) {
	apiError := &APIError{
		Code:    "VALIDATION_ERROR",
		Message: "Request validation failed",
	}

	response := APIResponse{
		Success:   false,
		Message:   "Validation failed",
		Error:     apiError,
		Data:      gin.H{"validation_errors": errors},
		Timestamp: time.Now(),
		RequestID: getRequestID(c),
	}

	c.JSON(http.StatusBadRequest, response)
}

// ClassifyError maps domain errors onto an HTTP status and API error code
func ClassifyError(err error) (int, string) {
	var (
		validationErr *model.ValidationError
		frameErr      *model.FrameLengthError
		decodeErr     *codec.DecodeError
		ioErr         *protocol.IOError
		violation     *protocol.ProtocolViolation
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &frameErr):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR"
	case errors.As(err, &decodeErr):
		return http.StatusBadRequest, "DECODE_ERROR"
	case errors.Is(err, protocol.ErrNotConnected):
		return http.StatusConflict, "NOT_CONNECTED"
	case errors.Is(err, protocol.ErrAlreadyConnected):
		return http.StatusConflict, "ALREADY_CONNECTED"
	case errors.As(err, &ioErr):
		return http.StatusBadGateway, "IO_ERROR"
	case errors.As(err, &violation):
		return http.StatusBadGateway, "PROTOCOL_VIOLATION"
	case errors.Is(err, protocol.ErrHandshakeTimeout):
		return http.StatusGatewayTimeout, "HANDSHAKE_TIMEOUT"
	case errors.Is(err, model.ErrCommandNotFound), errors.Is(err, model.ErrProgramNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	default:
		return http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"
	}
}

func errorResponse(c *gin.Context, statusCode int, code, message string, err error) {
	apiError := &APIError{
		Code:    code,
		Message: message,
	}

	if err != nil {
		apiError.Details = err.Error()
	}

	response := APIResponse{
		Success:   false,
		Message:   message,
		Error:     apiError,
		Timestamp: time.Now(),
		RequestID: getRequestID(c),
	}

	c.JSON(statusCode, response)
}

// getRequestID extracts request ID from context
func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// getErrorCode returns error code based on HTTP status
func getErrorCode(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	case http.StatusInternalServerError:
		return "INTERNAL_SERVER_ERROR"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "UNKNOWN_ERROR"
	}
}
