// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an application error
type ErrorType string

const (
	// pipeline errors
	ErrorTypeInputValidation   ErrorType = "input_validation"
	ErrorTypeRemoteGeneration  ErrorType = "remote_generation"
	ErrorTypeRemoteSynthesis   ErrorType = "remote_synthesis"
	ErrorTypeUnexpectedBinding ErrorType = "unexpected_binding"

	// generic errors
	ErrorTypeNotFound ErrorType = "not_found"
	ErrorTypeConflict ErrorType = "conflict"
)

// AppError is the error type shared by every layer
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string // stable, user-facing code
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewInputValidationError is returned when a required form field is missing
func NewInputValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeInputValidation, message, originalError)
}

// NewRemoteGenerationError is returned when the script endpoint fails
func NewRemoteGenerationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeRemoteGeneration, message, originalError)
}

// NewRemoteSynthesisError is returned when speech synthesis fails for one scene
func NewRemoteSynthesisError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeRemoteSynthesis, message, originalError)
}

// NewUnexpectedBindingError aborts the whole asset-binding phase
func NewUnexpectedBindingError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeUnexpectedBinding, message, originalError)
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewConflictError creates a conflict error
func NewConflictError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeConflict, message, originalError)
}

// TypeOf returns the ErrorType of err, or "" when err is not an AppError
func TypeOf(err error) ErrorType {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type
	}
	return ""
}

// IsInputValidationError checks for a validation error
func IsInputValidationError(err error) bool {
	return TypeOf(err) == ErrorTypeInputValidation
}

// IsRemoteGenerationError checks for a script generation error
func IsRemoteGenerationError(err error) bool {
	return TypeOf(err) == ErrorTypeRemoteGeneration
}

// IsRemoteSynthesisError checks for a speech synthesis error
func IsRemoteSynthesisError(err error) bool {
	return TypeOf(err) == ErrorTypeRemoteSynthesis
}

// IsUnexpectedBindingError checks for a fatal binding error
func IsUnexpectedBindingError(err error) bool {
	return TypeOf(err) == ErrorTypeUnexpectedBinding
}

// IsNotFoundError checks for a not-found error
func IsNotFoundError(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsConflictError checks for a conflict error
func IsConflictError(err error) bool {
	return TypeOf(err) == ErrorTypeConflict
}

// generateErrorCode maps an error type to its code
func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeInputValidation:
		return "INPUT_VALIDATION_ERROR"
	case ErrorTypeRemoteGeneration:
		return "REMOTE_GENERATION_ERROR"
	case ErrorTypeRemoteSynthesis:
		return "REMOTE_SYNTHESIS_ERROR"
	case ErrorTypeUnexpectedBinding:
		return "UNEXPECTED_BINDING_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeConflict:
		return "CONFLICT"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError wraps err, keeping its type when it is already an AppError
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
		}
	}

	return NewAppError(errType, message, err)
}
