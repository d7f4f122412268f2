package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrPermission   = errors.New("permission denied")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal server error")
	ErrUnauthorized = errors.New("unauthorized")

	// Disclosure and resolution taxonomy. None of these may abort a whole render;
	// callers degrade the single affected item instead.
	ErrUnresolvable      = errors.New("unresolvable reference")
	ErrConfigMissing     = errors.New("configuration missing")
	ErrCrossOwnerAccess  = errors.New("cross-owner access")
	ErrStaleSnapshotRead = errors.New("stale snapshot reference")
	ErrImmutable         = errors.New("immutable resource")
)

type AppError struct {
	BaseError error
	Message   string
	Details   string
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

func (e *AppError) Unwrap() error {
	return e.BaseError
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

func NewInvalidInput(details string, err error) *AppError {
	return NewAppError(ErrInvalidInput, "Invalid input provided", details, err)
}

func NewConflict(resource, field, value string) *AppError {
	msg := fmt.Sprintf("%s conflict", resource)
	details := fmt.Sprintf("%s with %s '%s' already exists", resource, field, value)
	return NewAppError(ErrConflict, msg, details, nil)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "An internal server error occurred", details, err)
}

func NewUnauthorized(details string, err error) *AppError {
	return NewAppError(ErrUnauthorized, "Invalid credentials", details, err)
}

func NewPermissionDenied(details string) *AppError {
	return NewAppError(ErrPermission, "Permission denied", details, nil)
}

func NewUnresolvable(reference string, err error) *AppError {
	details := fmt.Sprintf("reference '%s' could not be resolved by any strategy", reference)
	return NewAppError(ErrUnresolvable, "Reference unresolvable", details, err)
}

func NewConfigMissing(resource, ownerID string) *AppError {
	details := fmt.Sprintf("%s for owner '%s' is missing, treating as nothing shared", resource, ownerID)
	return NewAppError(ErrConfigMissing, "Configuration missing", details, nil)
}

func NewCrossOwnerAccess(itemID, ownerID string) *AppError {
	details := fmt.Sprintf("bank item '%s' is not owned by '%s'", itemID, ownerID)
	return NewAppError(ErrCrossOwnerAccess, "Cross-owner access rejected", details, nil)
}

func NewStaleSnapshotRead(snapshotID, reference string) *AppError {
	details := fmt.Sprintf("snapshot '%s' references '%s' which no longer resolves", snapshotID, reference)
	return NewAppError(ErrStaleSnapshotRead, "Snapshot reference is stale", details, nil)
}

func NewImmutable(resource, identifier string) *AppError {
	details := fmt.Sprintf("%s '%s' cannot be modified after creation", resource, identifier)
	return NewAppError(ErrImmutable, fmt.Sprintf("%s is immutable", resource), details, nil)
}

// IsDegradable reports whether err belongs to the taxonomy that renders as a
// placeholder or an absent item rather than a failed request.
func IsDegradable(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnresolvable) ||
		errors.Is(err, ErrConfigMissing) ||
		errors.Is(err, ErrCrossOwnerAccess) ||
		errors.Is(err, ErrStaleSnapshotRead)
}

func ToHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrPermission) || errors.Is(err, ErrCrossOwnerAccess) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrImmutable) {
		return http.StatusMethodNotAllowed
	}
	return http.StatusInternalServerError
}

func (e *AppError) ToJSON() gin.H {
	return gin.H{
		"error":   e.BaseError.Error(),
		"message": e.Message,
	}
}
