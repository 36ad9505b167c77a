// Package domain defines core types, validation, and errors for placequery.
package domain

import "fmt"

// ValidationError indicates a filter spec was rejected before a job started.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// EngineConnectionError indicates the engine session could not be acquired.
type EngineConnectionError struct {
	Message string
}

func (e *EngineConnectionError) Error() string { return e.Message }

// ViewBindingError indicates the dataset release view could not be (re)bound.
type ViewBindingError struct {
	Message string
}

func (e *ViewBindingError) Error() string { return e.Message }

// ExecutionError indicates the blocking engine call failed for a reason other
// than a requested cancellation.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string { return e.Message }

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrEngineConnection creates an EngineConnectionError with a formatted message.
func ErrEngineConnection(format string, args ...interface{}) *EngineConnectionError {
	return &EngineConnectionError{Message: fmt.Sprintf(format, args...)}
}

// ErrViewBinding creates a ViewBindingError with a formatted message.
func ErrViewBinding(format string, args ...interface{}) *ViewBindingError {
	return &ViewBindingError{Message: fmt.Sprintf(format, args...)}
}

// ErrExecution creates an ExecutionError with a formatted message.
func ErrExecution(format string, args ...interface{}) *ExecutionError {
	return &ExecutionError{Message: fmt.Sprintf(format, args...)}
}
