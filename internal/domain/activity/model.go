package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeProjectCreated    ActivityType = "project_created"
	TypeProjectUpdated    ActivityType = "project_updated"
	TypeProjectDuplicated ActivityType = "project_duplicated"
	TypeProjectDeleted    ActivityType = "project_deleted"
	TypePagesChanged      ActivityType = "pages_changed"
	TypeVersionCreated    ActivityType = "version_created"
	TypeVersionRestored   ActivityType = "version_restored"
	TypeProductionLocked  ActivityType = "production_locked"
	TypeAutoSaveFailed    ActivityType = "autosave_failed"
	TypeConflictDetected  ActivityType = "conflict_detected"
)

// IsValid reports whether t is a known activity type.
func (t ActivityType) IsValid() bool {
	switch t {
	case TypeProjectCreated, TypeProjectUpdated, TypeProjectDuplicated, TypeProjectDeleted,
		TypePagesChanged, TypeVersionCreated, TypeVersionRestored, TypeProductionLocked,
		TypeAutoSaveFailed, TypeConflictDetected:
		return true
	}
	return false
}

// ActivityEntry represents an event in a project's audit trail
type ActivityEntry struct {
	ID           int64        `json:"id"`
	TenantID     string       `json:"tenant_id"`
	ProjectID    string       `json:"project_id"`
	UserID       *string      `json:"user_id,omitempty"`
	VersionID    *string      `json:"version_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
	Version      int64        `json:"version"`
}
