package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for each error type
type ErrorCode string

const (
	// General errors
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"

	// Dataset lifecycle errors
	ErrCodeEmptyDataset   ErrorCode = "EMPTY_DATASET"
	ErrCodeNoDataset      ErrorCode = "NO_DATASET"
	ErrCodeUnknownDataset ErrorCode = "UNKNOWN_DATASET"
	ErrCodeLoadInProgress ErrorCode = "LOAD_IN_PROGRESS"
	ErrCodeLoadSuperseded ErrorCode = "LOAD_SUPERSEDED"

	// Record errors
	ErrCodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"
	ErrCodeRecordNotFound  ErrorCode = "RECORD_NOT_FOUND"

	// Source errors
	ErrCodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeFileParseError    ErrorCode = "FILE_PARSE_ERROR"

	// Infrastructure errors
	ErrCodeCacheError    ErrorCode = "CACHE_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeQueueError    ErrorCode = "QUEUE_ERROR"
)

// Sentinels for errors.Is comparisons. Matching is done on Code, so a
// constructed error with extra details still matches its sentinel.
var (
	ErrEmptyDataset      = New(ErrCodeEmptyDataset, "dataset contains no records")
	ErrNoDataset         = New(ErrCodeNoDataset, "no dataset loaded")
	ErrUnknownDataset    = New(ErrCodeUnknownDataset, "unknown dataset")
	ErrLoadInProgress    = New(ErrCodeLoadInProgress, "dataset load in progress")
	ErrLoadSuperseded    = New(ErrCodeLoadSuperseded, "dataset load superseded by a newer request")
	ErrIndexOutOfRange   = New(ErrCodeIndexOutOfRange, "view index out of range")
	ErrRecordNotFound    = New(ErrCodeRecordNotFound, "record not found")
	ErrSourceUnavailable = New(ErrCodeSourceUnavailable, "dataset source unavailable")
	ErrUnsupportedFormat = New(ErrCodeUnsupportedFormat, "unsupported file format")
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError carrying the same code
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// WithDetails adds additional context to the error
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with AppError context
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func InternalWrap(err error, message string) *AppError {
	return Wrap(err, ErrCodeInternal, message)
}

func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message)
}

// Dataset lifecycle errors

func EmptyDataset(source string) *AppError {
	return New(ErrCodeEmptyDataset, "dataset contains no records").
		WithDetails("source", source)
}

func UnknownDataset(id string) *AppError {
	return New(ErrCodeUnknownDataset, fmt.Sprintf("unknown dataset: %s", id)).
		WithDetails("dataset", id)
}

func LoadSuperseded(id string, generation uint64) *AppError {
	return New(ErrCodeLoadSuperseded, "dataset load superseded by a newer request").
		WithDetails("dataset", id).
		WithDetails("generation", generation)
}

// Record errors

func IndexOutOfRange(index, length int) *AppError {
	return New(ErrCodeIndexOutOfRange,
		fmt.Sprintf("view index %d out of range [0, %d)", index, length)).
		WithDetails("index", index).
		WithDetails("length", length)
}

func RecordNotFound(id string) *AppError {
	return New(ErrCodeRecordNotFound, fmt.Sprintf("record %s not found", id)).
		WithDetails("id", id)
}

// Source errors

func SourceUnavailable(handle string, err error) *AppError {
	return Wrap(err, ErrCodeSourceUnavailable, fmt.Sprintf("failed to fetch %s", handle)).
		WithDetails("handle", handle)
}

func UnsupportedFormat(format string) *AppError {
	return New(ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported file format: %s", format))
}

func FileParseError(handle string, err error) *AppError {
	return Wrap(err, ErrCodeFileParseError, fmt.Sprintf("failed to parse %s", handle))
}

// Infrastructure errors

func CacheError(err error) *AppError {
	return Wrap(err, ErrCodeCacheError, "cache operation failed")
}

func DatabaseError(err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, "database operation failed")
}

func QueueError(err error) *AppError {
	return Wrap(err, ErrCodeQueueError, "queue operation failed")
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// CodeOf returns the code of the first AppError in the chain, or ErrCodeInternal
func CodeOf(err error) ErrorCode {
	if appErr, ok := GetAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
