// internal/api/error_codes.go
package api

import (
	"net/http"

	apperrors "github.com/Corphon/CreativeStudio/internal/errors"
)

// API error codes
const (
	// general
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorConflict      = "CONFLICT"
	ErrorRateLimited   = "RATE_LIMIT_EXCEEDED"

	// pipeline
	ErrorInputValidation   = "INPUT_VALIDATION_ERROR"
	ErrorRemoteGeneration  = "REMOTE_GENERATION_ERROR"
	ErrorRemoteSynthesis   = "REMOTE_SYNTHESIS_ERROR"
	ErrorUnexpectedBinding = "UNEXPECTED_BINDING_ERROR"

	// sessions
	ErrorSessionNotFound      = "SESSION_NOT_FOUND"
	ErrorTransitionNotAllowed = "TRANSITION_NOT_ALLOWED"
	ErrorScriptMissing        = "SCRIPT_MISSING"
)

// statusForError maps an application error to an HTTP status and error code
func statusForError(err error) (int, string) {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeInputValidation:
		return http.StatusBadRequest, ErrorInputValidation
	case apperrors.ErrorTypeRemoteGeneration:
		return http.StatusBadGateway, ErrorRemoteGeneration
	case apperrors.ErrorTypeRemoteSynthesis:
		return http.StatusBadGateway, ErrorRemoteSynthesis
	case apperrors.ErrorTypeUnexpectedBinding:
		return http.StatusInternalServerError, ErrorUnexpectedBinding
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound, ErrorNotFound
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict, ErrorConflict
	default:
		return http.StatusInternalServerError, ErrorInternalError
	}
}
