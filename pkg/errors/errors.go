// Package errors defines the coded error type shared by the planner service,
// the AI gateway and the HTTP layer. A code decides the HTTP status and lets
// callers branch with Is instead of matching messages.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ErrorCode string

const (
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	CodeInternal             ErrorCode = "INTERNAL_ERROR"
	CodeServiceUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	CodeMissingCredential ErrorCode = "AI_MISSING_CREDENTIAL"
	CodeAIDecodeFailed    ErrorCode = "AI_DECODE_FAILED"
	CodeAIEmptyReply      ErrorCode = "AI_EMPTY_REPLY"

	CodeStatePersistFailed ErrorCode = "STATE_PERSIST_FAILED"
)

// Codes missing here map to 500.
var httpStatuses = map[ErrorCode]int{
	CodeBadRequest:           http.StatusBadRequest,
	CodeValidationFailed:     http.StatusBadRequest,
	CodeNotFound:             http.StatusNotFound,
	CodeServiceUnavailable:   http.StatusServiceUnavailable,
	CodeMissingCredential:    http.StatusServiceUnavailable,
	CodeExternalServiceError: http.StatusBadGateway,
	CodeAIDecodeFailed:       http.StatusBadGateway,
	CodeAIEmptyReply:         http.StatusBadGateway,
}

// AppError carries a code, a user-facing message and optional context.
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Cause    error                  `json:"-"`
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Details != "" {
		fmt.Fprintf(&b, " (%s)", e.Details)
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Cause }

func (e *AppError) StatusCode() int {
	if status, ok := httpStatuses[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, "")
}

func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewNotFoundError is used for unknown drink keys and dish IDs.
func NewNotFoundError(resource, id string) *AppError {
	return NewAppError(CodeNotFound, resource+" not found", fmt.Sprintf("no %s with id %q", resource, id)).
		WithMetadata("id", id)
}

func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// NewExternalServiceError reports a transport or provider failure.
func NewExternalServiceError(service string, cause error) *AppError {
	return NewAppError(CodeExternalServiceError, "External service error", service+" request failed").
		WithCause(cause)
}

// NewMissingCredentialError is returned before any AI request when no API key is set.
func NewMissingCredentialError(provider string) *AppError {
	return NewAppError(CodeMissingCredential, "AI credential is not configured", "set an API key for provider "+provider).
		WithMetadata("provider", provider)
}

func NewAIDecodeError(operation string, cause error) *AppError {
	return NewAppError(CodeAIDecodeFailed, "AI reply could not be decoded", cause.Error()).
		WithCause(cause).
		WithMetadata("operation", operation)
}

func NewAIEmptyReplyError(operation string) *AppError {
	return NewAppError(CodeAIEmptyReply, "AI reply was empty", "").
		WithMetadata("operation", operation)
}

// NewStatePersistError marks a failed save. The in-memory state is already updated.
func NewStatePersistError(key string, cause error) *AppError {
	return NewAppError(CodeStatePersistFailed, "Failed to persist planner state", "save of key "+key+" failed").
		WithCause(cause).
		WithMetadata("key", key)
}

func as(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// Wrap returns err unchanged when it already is an *AppError and otherwise
// hides it behind an internal error with message.
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := as(err); ok {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// Is reports whether any *AppError in err's chain carries code.
func Is(err error, code ErrorCode) bool {
	appErr, ok := as(err)
	return ok && appErr.Code == code
}

func GetCode(err error) ErrorCode {
	if appErr, ok := as(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Tag     string      `json:"tag"`
	Message string      `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(v))
	for i := range v {
		parts[i] = v[i].Message
	}
	return strings.Join(parts, "; ")
}

func NewValidationErrors(fields []ValidationError) *AppError {
	list := ValidationErrors(fields)
	return NewValidationError(list.Error()).WithMetadata("validation_errors", list)
}

// ErrorResponse is the JSON body the API writes for every failure.
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

type ErrorDetails struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

func ToErrorResponse(err *AppError, requestID string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetails{
		Code:      err.Code,
		Message:   err.Message,
		Details:   err.Details,
		Metadata:  err.Metadata,
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}}
}
