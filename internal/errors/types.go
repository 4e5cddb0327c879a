package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure for the fallback policy. Every kind is
// recoverable: the loop marks the state failed and re-decides next iteration.
type Kind string

const (
	// KindValidation - action parameters failed a capability's input contract
	KindValidation Kind = "validation_error"
	// KindDecode - response envelope could not be unwrapped or validated
	KindDecode Kind = "decode_error"
	// KindService - capability explicitly reported failure
	KindService Kind = "service_error"
	// KindUnexpected - anything uncaught at the dispatcher boundary
	KindUnexpected Kind = "unexpected_error"
)

// ValidationError reports malformed action parameters
type ValidationError struct {
	Err     error
	Field   string // Offending parameter if known
	Message string // User-friendly message
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("validation error: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DecodeError reports an envelope unwrap or payload validation failure
type DecodeError struct {
	Err     error
	Raw     string // Raw response text kept for diagnostics
	Message string
}

func (e *DecodeError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("decode error: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ServiceError reports a failure the capability itself signaled
type ServiceError struct {
	Err     error
	Message string
	Details map[string]any
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("service error: %v", e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// UnexpectedError wraps any fault caught at the dispatcher's outer boundary
type UnexpectedError struct {
	Err     error
	Message string
}

func (e *UnexpectedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected error: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// IsValidation checks whether err carries a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDecode checks whether err carries a DecodeError
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsService checks whether err carries a ServiceError
func IsService(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

// KindOf classifies an error. Unknown errors default to KindUnexpected so
// nothing escapes the taxonomy.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return KindValidation
	case IsDecode(err):
		return KindDecode
	case IsService(err):
		return KindService
	default:
		return KindUnexpected
	}
}

// ParseKind maps a wire error_kind value onto the taxonomy. Unrecognized
// values fall back to KindService since they came from a capability.
func ParseKind(s string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindValidation:
		return KindValidation
	case KindDecode:
		return KindDecode
	case KindService:
		return KindService
	case KindUnexpected:
		return KindUnexpected
	default:
		return KindService
	}
}

// UserMessage converts an error to the text shown to the user. Falls back to
// the supplied text when the error carries nothing informative.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}

	var ve *ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}

	var de *DecodeError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}

	var se *ServiceError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}

	var ue *UnexpectedError
	if errors.As(err, &ue) {
		// Unexpected faults surface generic text, never internals
		if fallback != "" {
			return fallback
		}
		return "Something went wrong while processing this step. Please try again."
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// Details extracts structured failure details when the error carries them
func Details(err error) map[string]any {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Details
	}
	return nil
}

// Helper constructors

// NewValidationError creates a validation error for a named parameter
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Err:     fmt.Errorf("invalid parameter %q", field),
		Field:   field,
		Message: message,
	}
}

// NewDecodeError creates a decode error carrying the raw response text
func NewDecodeError(err error, raw, message string) *DecodeError {
	return &DecodeError{
		Err:     err,
		Raw:     raw,
		Message: message,
	}
}

// NewServiceError creates a service error from a capability failure payload
func NewServiceError(message string, details map[string]any) *ServiceError {
	return &ServiceError{
		Err:     errors.New(message),
		Message: message,
		Details: details,
	}
}

// NewUnexpectedError wraps an uncaught fault
func NewUnexpectedError(err error) *UnexpectedError {
	return &UnexpectedError{Err: err}
}
