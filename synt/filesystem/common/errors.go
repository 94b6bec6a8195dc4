// Package common provides shared utilities and error definitions for filesystem operations
package common

import (
	"errors"
	"fmt"
)

// Common error variables for consistent error handling across filesystem components
var (
	// ErrPathEmpty indicates an empty path was provided
	ErrPathEmpty = errors.New("path cannot be empty")

	// ErrRootNotFound indicates a scan root does not exist or is not accessible
	ErrRootNotFound = errors.New("root path not found")

	// ErrNotADirectory indicates a path expected to be a directory is not one
	ErrNotADirectory = errors.New("path is not a directory")

	// ErrUnreadableFile indicates a file's contents could not be read
	ErrUnreadableFile = errors.New("file is not readable")

	// ErrUnreadableDirectory indicates a directory's entries could not be listed
	ErrUnreadableDirectory = errors.New("directory is not readable")

	// ErrPersistence indicates snapshot state could not be loaded or saved
	ErrPersistence = errors.New("snapshot persistence failed")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input parameters")
)

// ValidationUtils provides common validation functions
type ValidationUtils struct{}

// NewValidationUtils creates a new validation utils instance
func NewValidationUtils() *ValidationUtils {
	return &ValidationUtils{}
}

// ValidatePath validates that a path is not empty
func (vu *ValidationUtils) ValidatePath(path string) error {
	if path == "" {
		return ErrPathEmpty
	}
	return nil
}

// ValidateWorkerCount validates a worker pool size
func (vu *ValidationUtils) ValidateWorkerCount(workers int) error {
	if workers < 1 {
		return fmt.Errorf("%w: worker count must be positive, got %d", ErrInvalidInput, workers)
	}
	return nil
}

// ErrorUtils provides common error handling functions
type ErrorUtils struct{}

// NewErrorUtils creates a new error utils instance
func NewErrorUtils() *ErrorUtils {
	return &ErrorUtils{}
}

// WrapError wraps an error with additional context
func (eu *ErrorUtils) WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// WrapErrorf wraps an error with formatted context
func (eu *ErrorUtils) WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	context := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", context, err)
}
