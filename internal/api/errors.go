package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pierre-chaville/lessons/internal/api/shared"
	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/service"
	"github.com/pierre-chaville/lessons/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case store.IsNotFoundError(err),
		errors.Is(err, service.ErrAudioNotFound):
		return http.StatusNotFound

	// Conflict errors
	case store.IsDuplicateError(err),
		errors.Is(err, store.ErrTaskRunning):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, service.ErrEmptyQuery):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Not found errors
	case errors.Is(err, store.ErrLessonNotFound):
		return "Lesson not found"

	case errors.Is(err, store.ErrCourseNotFound):
		return "Course not found"

	case errors.Is(err, store.ErrThemeNotFound):
		return "Theme not found"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, service.ErrAudioNotFound):
		return "Lesson audio not found"

	case store.IsNotFoundError(err):
		return "Resource not found"

	// Conflict errors
	case errors.Is(err, store.ErrCourseNameExists):
		return "A course with this name already exists"

	case errors.Is(err, store.ErrThemeNameExists):
		return "A theme with this name already exists"

	case errors.Is(err, store.ErrTaskRunning):
		return "Task is currently running"

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID format"

	case errors.Is(err, service.ErrEmptyQuery):
		return "Search query cannot be empty"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'CreateTaskRequest.TaskType' Error:Field validation for 'TaskType' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError maps err to a status code and safe message and writes
// the JSON error response, logging the underlying error. An empty
// userMessage falls back to GetSafeErrorMessage.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}
