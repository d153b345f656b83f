package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCode classifies a failure in the query pipeline
type ErrorCode string

const (
	// Addressing errors
	ErrorCodeEmptyURL         ErrorCode = "EMPTY_URL"
	ErrorCodeInvalidFormat    ErrorCode = "INVALID_FORMAT"
	ErrorCodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"

	// Catalog and fetch errors
	ErrorCodeDiscovery   ErrorCode = "DISCOVERY_ERROR"
	ErrorCodeFetch       ErrorCode = "FETCH_ERROR"
	ErrorCodeEmptyResult ErrorCode = "EMPTY_RESULT"

	// Table materialization errors
	ErrorCodeSchemaInference ErrorCode = "SCHEMA_INFERENCE_ERROR"
	ErrorCodeRowParse        ErrorCode = "ROW_PARSE_ERROR"

	// System errors
	ErrorCodeKubernetesClient ErrorCode = "KUBERNETES_CLIENT_ERROR"
	ErrorCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// QueryError carries an error code alongside the message and its cause
type QueryError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface
func (e *QueryError) Error() string {
	parts := []string{string(e.Code), e.Message}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %s", e.Cause.Error()))
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// New creates a new QueryError
func New(code ErrorCode, message string) *QueryError {
	return &QueryError{Code: code, Message: message}
}

// Newf creates a new QueryError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *QueryError {
	return &QueryError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapCode wraps an error under a code, preserving it as the cause
func WrapCode(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &QueryError{Code: code, Message: message, Cause: err}
}

// WrapCodef wraps an error under a code with a formatted message
func WrapCodef(err error, code ErrorCode, format string, args ...interface{}) error {
	return WrapCode(err, code, fmt.Sprintf(format, args...))
}

// Wrap adds a message to an error. QueryErrors keep their code so it stays
// observable at the top level.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var qe *QueryError
	if stderrors.As(err, &qe) {
		return &QueryError{Code: qe.Code, Message: message, Cause: err}
	}
	return errors.Wrap(err, message)
}

// Wrapf adds a formatted message to an error
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsErrorCode reports whether the error chain carries the given code
func IsErrorCode(err error, code ErrorCode) bool {
	var qe *QueryError
	if stderrors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error chain
func GetErrorCode(err error) ErrorCode {
	var qe *QueryError
	if stderrors.As(err, &qe) {
		return qe.Code
	}
	return ErrorCodeInternal
}

// DiscoveryError creates a catalog build error
func DiscoveryError(err error, message string) error {
	return WrapCode(err, ErrorCodeDiscovery, message)
}

// FetchError creates a listing error for a resolved resource reference
func FetchError(err error, kind, namespace string) error {
	return WrapCodef(err, ErrorCodeFetch,
		"failed to list resource '%s' in namespace '%s'", kind, namespace)
}

// EmptyResultError creates an error for a listing that returned zero objects
func EmptyResultError(kind, namespace string) *QueryError {
	return Newf(ErrorCodeEmptyResult,
		"no items found for resource '%s' in namespace '%s'", kind, namespace)
}

// SchemaInferenceError creates a schema inference error
func SchemaInferenceError(err error, message string) error {
	return WrapCode(err, ErrorCodeSchemaInference, message)
}

// RowParseError creates a row materialization error
func RowParseError(err error, message string) error {
	return WrapCode(err, ErrorCodeRowParse, message)
}

// KubernetesClientError creates a Kubernetes client error
func KubernetesClientError(message string) *QueryError {
	return New(ErrorCodeKubernetesClient, message)
}
