package backend

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidCredentials means the backend rejected a login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired means an authorized call came back 401 and the
	// silent refresh was already exhausted or impossible.
	ErrSessionExpired = errors.New("session expired")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
)

// ValidationError reports input rejected client-side, before any
// network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func AsValidationError(err error) (*ValidationError, bool) {
	ve, ok := errors.Cause(err).(*ValidationError)
	return ve, ok
}
