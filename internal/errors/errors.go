package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code, so the exported sentinels
// below work with errors.Is regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode attaches a code to an existing error, keeping it as the cause
func WithCode(code string, err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// GetCode returns the code of the outermost AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeValidationError = "VALIDATION_ERROR"
	CodeEmptyInput      = "EMPTY_INPUT"
	CodeLengthMismatch  = "LENGTH_MISMATCH"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeNotTrained      = "NOT_TRAINED"
	CodeTrainingError   = "TRAINING_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks
var (
	ErrConfigInvalid  = New(CodeConfigInvalid, "invalid configuration")
	ErrValidation     = New(CodeValidationError, "validation failed")
	ErrEmptyInput     = New(CodeEmptyInput, "input is empty")
	ErrLengthMismatch = New(CodeLengthMismatch, "features and labels must have same length")
	ErrInvalidInput   = New(CodeInvalidInput, "invalid input")
	ErrNotTrained     = New(CodeNotTrained, "model must be trained first")
	ErrTraining       = New(CodeTrainingError, "training failed")
	ErrNotFound       = New(CodeNotFound, "not found")
	ErrInternal       = New(CodeInternalError, "internal error")
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: cause}
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func EmptyInput(message string) *AppError {
	return New(CodeEmptyInput, message)
}

func LengthMismatch(features, labels int) *AppError {
	return Newf(CodeLengthMismatch, "features and labels must have same length (got %d and %d)", features, labels)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func NotTrained(model string) *AppError {
	return Newf(CodeNotTrained, "%s must be trained before making predictions", model)
}

// TrainingError wraps the underlying numerical or data failure of a classifier
func TrainingError(model string, cause error) *AppError {
	return &AppError{
		Code:    CodeTrainingError,
		Message: fmt.Sprintf("%s training failed", model),
		Cause:   cause,
	}
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}
