package version

import (
	"context"

	"github.com/rpggio/photobook/internal/domain/project"
)

// Repository persists version records.
type Repository interface {
	// Commit writes proj (replacing its pages when pages is non-nil) under a
	// compare-and-swap on expectedVersion and appends rec in the same
	// transaction. rec.VersionNumber is assigned by the store.
	Commit(ctx context.Context, tenantID string, proj *project.Project, pages []project.Page, rec *Record, expectedVersion int64) error
	// List returns records newest first; limit <= 0 returns all.
	List(ctx context.Context, tenantID, projectID string, limit int) ([]Record, error)
	Get(ctx context.Context, tenantID, projectID, id string) (*Record, error)
	Delete(ctx context.Context, tenantID, projectID string, ids []string) error
}

// ProjectReader reads the live aggregate.
type ProjectReader interface {
	Get(ctx context.Context, tenantID, ownerID, id string) (*project.Project, error)
	GetWithPages(ctx context.Context, tenantID, ownerID, id string) (*project.Project, []project.Page, error)
}

// Archiver copies production snapshots to long-term storage.
type Archiver interface {
	ArchiveSnapshot(ctx context.Context, rec *Record) error
}
