package project

import "fmt"

// ConflictError describes a rejected write whose expected version was stale.
type ConflictError struct {
	ProjectID       string `json:"project_id"`
	ExpectedVersion int64  `json:"expected_version"`
	CurrentVersion  int64  `json:"current_version"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("project %s modified: expected version %d, current version %d",
		e.ProjectID, e.ExpectedVersion, e.CurrentVersion)
}

// Is lets errors.Is(err, ErrConflict) match.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
