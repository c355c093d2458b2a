package project

import (
	"errors"
	"fmt"
)

// Error classes. Every domain error in this module wraps exactly one of these.
var (
	// ErrNotFound indicates an absent or not-owned entity.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a stale version or an already-held lock.
	ErrConflict = errors.New("conflict")
	// ErrInvalidOperation indicates a request that breaks a structural rule.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrTransientStore indicates an infrastructure failure worth retrying.
	ErrTransientStore = errors.New("transient store failure")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
)

var (
	// ErrProjectNotFound indicates the project doesn't exist for this owner.
	ErrProjectNotFound = fmt.Errorf("project %w", ErrNotFound)
	// ErrProjectLocked indicates a content change on a production-locked project.
	ErrProjectLocked = fmt.Errorf("%w: project is locked for production", ErrInvalidOperation)
)

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientStore)
}
