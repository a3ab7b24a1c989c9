package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors
	// (e.g., ErrLessonNotFound, ErrTaskNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a course with the same name).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the entity does not exist or the update violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// ErrDeleteFailed is returned when a delete operation fails, for example
	// because the entity does not exist or is referenced by other entities.
	ErrDeleteFailed = errors.New("delete failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrLessonNotFound indicates that the requested lesson does not exist in the store.
	ErrLessonNotFound = fmt.Errorf("%w: lesson", ErrNotFound)

	// ErrCourseNotFound indicates that the requested course does not exist in the store.
	ErrCourseNotFound = fmt.Errorf("%w: course", ErrNotFound)

	// ErrThemeNotFound indicates that the requested theme does not exist in the store.
	ErrThemeNotFound = fmt.Errorf("%w: theme", ErrNotFound)

	// ErrTaskNotFound indicates that the requested task does not exist in the store.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrTaskRunning indicates that the requested operation is not allowed
	// while the task is running (e.g., deleting an in-flight task).
	ErrTaskRunning = errors.New("task is running")

	// Entity-specific "duplicate" errors

	// ErrCourseNameExists indicates that a course with the given name already exists.
	ErrCourseNameExists = fmt.Errorf("%w: course name", ErrDuplicate)

	// ErrThemeNameExists indicates that a theme with the given name already exists.
	ErrThemeNameExists = fmt.Errorf("%w: theme name", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// This includes the generic ErrNotFound and all entity-specific not found errors.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
// This includes the generic ErrDuplicate and all entity-specific duplicate errors.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
