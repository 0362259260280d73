package apierror

import (
	"fmt"
	"net/http"
	"strings"
)

type APIError struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if len(e.Errors) > 0 {
		return fmt.Sprintf("%d: %s (%s)", e.StatusCode, e.Message, strings.Join(e.Errors, ", "))
	}

	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func New(status int, message string, errs ...string) *APIError {
	return &APIError{StatusCode: status, Message: message, Errors: errs}
}

func BadRequest(message string, errs ...string) *APIError {
	return New(http.StatusBadRequest, message, errs...)
}

func Unauthorized(message string) *APIError {
	return New(http.StatusUnauthorized, message)
}

func NotFound(message string) *APIError {
	return New(http.StatusNotFound, message)
}

func Conflict(message string) *APIError {
	return New(http.StatusConflict, message)
}

func Internal(message string) *APIError {
	return New(http.StatusInternalServerError, message)
}
