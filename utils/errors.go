package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrorKind classifies an application failure. Each kind maps to exactly one
// HTTP status in the central error middleware.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindNotFound       ErrorKind = "not_found"
	KindAuthentication ErrorKind = "authentication"
	KindAuthorization  ErrorKind = "authorization"
	KindConflict       ErrorKind = "conflict"
	KindInternal       ErrorKind = "internal"
)

// AppError is the typed error carried from domain code to the error
// middleware. Route handlers never translate it to a status themselves.
type AppError struct {
	Kind    ErrorKind
	Message string
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to its response status.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ValidationError reports malformed or out-of-range input.
func ValidationError(msg string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg}
}

// ValidationErrorWithDetails attaches structured detail, e.g. per-field messages.
func ValidationErrorWithDetails(msg string, details interface{}) *AppError {
	return &AppError{Kind: KindValidation, Message: msg, Details: details}
}

// NotFoundError reports a missing resource.
func NotFoundError(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: resource + " not found"}
}

// AuthenticationError reports a missing, invalid, or expired credential.
func AuthenticationError(msg string) *AppError {
	return &AppError{Kind: KindAuthentication, Message: msg}
}

// AuthorizationError reports an authenticated but forbidden request.
func AuthorizationError(msg string) *AppError {
	return &AppError{Kind: KindAuthorization, Message: msg}
}

// ConflictError reports a uniqueness violation.
func ConflictError(msg string) *AppError {
	return &AppError{Kind: KindConflict, Message: msg}
}

// InternalError wraps an unexpected failure.
func InternalError(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "internal server error", Err: err}
}

// AsAppError extracts the typed error from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StorageError translates gorm errors at the storage boundary: missing rows
// become not-found, duplicate keys become conflicts, everything else is
// internal. The resource name feeds the not-found message.
func StorageError(err error, resource string) *AppError {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFoundError(resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ConflictError(resource + " already exists")
	default:
		return InternalError(err)
	}
}

// Fail records err on the gin context and aborts the handler chain. The
// error middleware renders the response.
func Fail(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	ctx.Abort()
}
