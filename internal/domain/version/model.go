package version

import (
	"time"

	"github.com/rpggio/photobook/internal/domain/project"
)

// Snapshot is the full state of a project at the moment a version was taken.
type Snapshot struct {
	Project project.Project `json:"project"`
	Pages   []project.Page  `json:"pages"`
}

// Record is an immutable entry in a project's version history.
// VersionNumber is a dense per-project sequence, independent of the
// project's CurrentVersion concurrency token.
type Record struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	ProjectID      string    `json:"project_id"`
	VersionNumber  int64     `json:"version_number"`
	Snapshot       Snapshot  `json:"snapshot"`
	ChangesSummary string    `json:"changes_summary"`
	IsProduction   bool      `json:"is_production"`
	CreatedAt      time.Time `json:"created_at"`
}

// Policy bounds how much history is kept and returned.
type Policy struct {
	// KeepLatest records are always retained regardless of age.
	KeepLatest int
	// MaxAge is the retention window for records beyond KeepLatest.
	MaxAge time.Duration
	// HistoryLimit caps GetHistory.
	HistoryLimit int
}

// DefaultPolicy keeps the latest five versions and anything younger than 30 days.
var DefaultPolicy = Policy{
	KeepLatest:   5,
	MaxAge:       30 * 24 * time.Hour,
	HistoryLimit: 20,
}
