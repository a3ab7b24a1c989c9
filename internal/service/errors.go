// Package service provides application-level services for managing
// lessons, courses, themes, and background tasks.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is(); the API layer maps them to
// HTTP status codes.
var (
	// ErrAudioNotFound indicates that a lesson's audio file does not
	// exist on disk. API layer should map this to HTTP 404 Not Found.
	ErrAudioNotFound = errors.New("lesson audio file not found")

	// ErrEmptyQuery indicates a search was requested with an empty query.
	// API layer should map this to HTTP 400 Bad Request.
	ErrEmptyQuery = errors.New("search query cannot be empty")
)
