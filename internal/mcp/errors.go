package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/photobook/internal/domain/activity"
	"github.com/rpggio/photobook/internal/domain/catalog"
	"github.com/rpggio/photobook/internal/domain/pages"
	"github.com/rpggio/photobook/internal/domain/project"
	"github.com/rpggio/photobook/internal/domain/version"
)

// Error codes returned to tool callers.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeProjectLocked    = "PROJECT_LOCKED"
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeTransient        = "TRANSIENT"
	CodeNoSession        = "NO_SESSION"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (hint: %s)", e.Code, e.Message, e.RecoveryHint)
}

// MapError maps domain errors to MCP error codes. Errors outside the domain
// taxonomy come back unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var conflict *project.ConflictError
	switch {
	case errors.As(err, &conflict):
		return &APIError{
			Code:         CodeConflict,
			Message:      fmt.Sprintf("project was modified; current version is %d", conflict.CurrentVersion),
			Details:      conflict,
			RecoveryHint: "Reload the project and retry with expected_version set to the current version",
		}
	case errors.Is(err, version.ErrAlreadyLocked):
		return &APIError{Code: CodeConflict, Message: err.Error(), RecoveryHint: "Use get_production_snapshot to read the locked version"}
	case errors.Is(err, project.ErrProjectLocked):
		return &APIError{Code: CodeProjectLocked, Message: err.Error(), RecoveryHint: "Restore a version to unlock the project for editing"}
	case errors.Is(err, pages.ErrPageLimit):
		return &APIError{Code: CodeInvalidOperation, Message: err.Error(), RecoveryHint: "Check the format's page limits with list_catalog"}
	case errors.Is(err, pages.ErrGuardPage):
		return &APIError{Code: CodeInvalidOperation, Message: err.Error(), RecoveryHint: "Guard pages stay first and last and can't be removed or duplicated"}
	case errors.Is(err, project.ErrInvalidOperation):
		return &APIError{Code: CodeInvalidOperation, Message: err.Error()}
	case errors.Is(err, project.ErrInvalidInput), errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: CodeInvalidInput, Message: err.Error()}
	case errors.Is(err, project.ErrNotFound),
		errors.Is(err, catalog.ErrFormatNotFound),
		errors.Is(err, catalog.ErrPaperNotFound),
		errors.Is(err, catalog.ErrCoverTypeNotFound):
		return &APIError{Code: CodeNotFound, Message: err.Error(), RecoveryHint: "Check ID spelling"}
	case errors.Is(err, project.ErrTransientStore):
		return &APIError{Code: CodeTransient, Message: err.Error(), RecoveryHint: "Retry shortly"}
	case errors.Is(err, project.ErrConflict):
		return &APIError{Code: CodeConflict, Message: err.Error()}
	default:
		return err
	}
}

func invalidInput(format string, args ...any) error {
	return &APIError{Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}
