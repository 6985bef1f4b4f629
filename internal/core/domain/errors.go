package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrNotIndexed indicates no index artifact exists for the project path
	ErrNotIndexed = errors.New("project not indexed")

	// ErrIndexingInProgress indicates another indexing run holds the project lock
	ErrIndexingInProgress = errors.New("indexing already in progress")

	// ErrComponentNotFound indicates a component lookup by id or name failed
	ErrComponentNotFound = errors.New("component not found")

	// ErrElementNotFound indicates a requested element is absent from the page
	ErrElementNotFound = errors.New("element not found")

	// ErrElementNotVisible indicates a requested element exists but is not visible
	ErrElementNotVisible = errors.New("element not visible")

	// ErrResourceInaccessible indicates a page resource (e.g. cross-origin stylesheet) could not be read
	ErrResourceInaccessible = errors.New("resource inaccessible")

	// ErrAutomationUnavailable indicates the page automation resource could not be created
	ErrAutomationUnavailable = errors.New("page automation unavailable")

	// ErrTimeout indicates a page automation request exceeded its timeout
	ErrTimeout = errors.New("page automation timeout")
)

// ComponentNotFoundError reports a failed component lookup together with
// the names that do exist, as a recovery hint for the caller.
type ComponentNotFoundError struct {
	Ref       string
	Available []string
}

func (e *ComponentNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("component %q not found (index has no components)", e.Ref)
	}
	return fmt.Sprintf("component %q not found; available: %s", e.Ref, strings.Join(e.Available, ", "))
}

// Unwrap lets errors.Is match ErrComponentNotFound
func (e *ComponentNotFoundError) Unwrap() error {
	return ErrComponentNotFound
}
