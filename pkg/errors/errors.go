package errors

import (
	"errors"
	"fmt"
)

// Common engine errors
var (
	ErrDatasetNotFound    = errors.New("dataset not found")
	ErrBudgetNotFound     = errors.New("privacy budget not found")
	ErrBudgetExhausted    = errors.New("privacy budget exhausted")
	ErrEmptyBatch         = errors.New("empty record batch")
	ErrNoUsableFields     = errors.New("schema declares no usable fields")
	ErrInvalidSampleCount = errors.New("sample count must be positive")
)

// ErrorType represents the error taxonomy of the engine.
type ErrorType string

const (
	ErrorTypeSchema     ErrorType = "schema"
	ErrorTypeBudget     ErrorType = "budget"
	ErrorTypeGeneration ErrorType = "generation"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError carries structured context alongside the error taxonomy. All
// engine operations return these as values; nothing is panicked across a
// component boundary.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Retryable  bool                   `json:"retryable"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so sentinel comparisons work through wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext attaches a key/value pair to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails attaches free-form details to the error.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates an error of the given type.
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:       errType,
		Code:       code,
		Message:    message,
		Retryable:  errType == ErrorTypeBudget,
		HTTPStatus: defaultHTTPStatus(errType),
	}
}

// WrapError wraps an existing error with engine context.
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	e := NewAppError(errType, code, message)
	e.Cause = err
	return e
}

// NewSchemaError creates a schema validation error. Fatal to the call,
// never retried automatically.
func NewSchemaError(code, message string) *AppError {
	return NewAppError(ErrorTypeSchema, code, message)
}

// NewBudgetExhaustedError creates a budget exhaustion error. Recoverable:
// the caller may retry with a smaller epsilon or a different budget key.
func NewBudgetExhaustedError(message string) *AppError {
	e := NewAppError(ErrorTypeBudget, CodeBudgetExhausted, message)
	e.Cause = ErrBudgetExhausted
	return e
}

// NewGenerationError creates a generation error. Fatal to the call.
func NewGenerationError(code, message string) *AppError {
	return NewAppError(ErrorTypeGeneration, code, message)
}

// NewStorageError creates a dataset store error.
func NewStorageError(code, message string) *AppError {
	return NewAppError(ErrorTypeStorage, code, message)
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, CodeInternalError, message)
}

// IsSchemaError reports whether err is (or wraps) a schema error.
func IsSchemaError(err error) bool {
	return hasType(err, ErrorTypeSchema)
}

// IsBudgetExhausted reports whether err is (or wraps) a budget exhaustion.
func IsBudgetExhausted(err error) bool {
	if errors.Is(err, ErrBudgetExhausted) {
		return true
	}
	return hasType(err, ErrorTypeBudget)
}

// IsGenerationError reports whether err is (or wraps) a generation error.
func IsGenerationError(err error) bool {
	return hasType(err, ErrorTypeGeneration)
}

func hasType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

func defaultHTTPStatus(errType ErrorType) int {
	switch errType {
	case ErrorTypeSchema, ErrorTypeGeneration:
		return 400
	case ErrorTypeBudget:
		return 429
	case ErrorTypeStorage:
		return 404
	default:
		return 500
	}
}

// Error codes used across the engine.
const (
	CodeInvalidSchema     = "INVALID_SCHEMA"
	CodeDuplicateField    = "DUPLICATE_FIELD"
	CodeInvalidType       = "INVALID_TYPE"
	CodeInvalidTier       = "INVALID_TIER"
	CodeInvalidConstraint = "INVALID_CONSTRAINT"

	CodeBudgetExhausted = "BUDGET_EXHAUSTED"
	CodeInvalidBudget   = "INVALID_BUDGET"

	CodeGenerationFailed  = "GENERATION_FAILED"
	CodeNoUsableFields    = "NO_USABLE_FIELDS"
	CodeInvalidSampleSize = "INVALID_SAMPLE_SIZE"

	CodeDatasetNotFound = "DATASET_NOT_FOUND"
	CodeEmptyBatch      = "EMPTY_BATCH"

	CodeInternalError = "INTERNAL_ERROR"
)
