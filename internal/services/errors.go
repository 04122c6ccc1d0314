// Package services implements the business rules that sit between the HTTP
// handlers and the repositories. Each service method checks authorization
// through internal/authz, enforces the ledger invariants, and returns typed
// errors the handlers map onto HTTP status codes.
package services

import (
	"errors"
	"fmt"
)

// ValidationError reports invalid input. Field names the offending request
// field when one can be singled out. Maps to 422.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ForbiddenError reports an authorization denial. Maps to 403.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// NotFoundError reports a missing resource. Maps to 404. A resource the actor
// is not allowed to know exists is also reported as not found.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ConflictError reports a uniqueness collision, a duplicate membership,
// contribution month, or second payout. Maps to 409.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsForbidden reports whether err is a ForbiddenError
func IsForbidden(err error) bool {
	var fe *ForbiddenError
	return errors.As(err, &fe)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// IsConflict reports whether err is a ConflictError
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
