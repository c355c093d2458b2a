package project

import (
	"context"

	"github.com/rpggio/photobook/internal/domain/activity"
	"github.com/rpggio/photobook/internal/domain/catalog"
)

// Repository provides persistence for projects and their pages.
type Repository interface {
	Create(ctx context.Context, tenantID string, proj *Project, pages []Page) error
	Get(ctx context.Context, tenantID, ownerID, id string) (*Project, error)
	ListPages(ctx context.Context, tenantID, projectID string) ([]Page, error)
	List(ctx context.Context, tenantID, ownerID string, opts ListOptions) ([]Summary, error)
	Search(ctx context.Context, tenantID, ownerID, query string, limit int) ([]Summary, error)
	// Save writes proj and, when pages is non-nil, replaces the page set. The
	// write only applies if the stored version equals expectedVersion; on
	// success proj.CurrentVersion is expectedVersion+1.
	Save(ctx context.Context, tenantID string, proj *Project, pages []Page, expectedVersion int64) error
	Delete(ctx context.Context, tenantID, ownerID, id string) error
}

// ListOptions provides paging for project listings.
type ListOptions struct {
	Status *Status
	Limit  int
	Offset int
}

// PageInvariants enforces the structural rules of the page collection.
type PageInvariants interface {
	ValidateStructure(ctx context.Context, proj *Project, before, after []Page) error
	InitialPages(ctx context.Context, proj *Project, count int, includeGuards bool) ([]Page, error)
}

// SpineSizer computes the spine width for a paper, cover type and page count.
type SpineSizer interface {
	SpineWidth(ctx context.Context, paperID, coverTypeID string, pageCount int) (float64, error)
}

// FormatLookup resolves a catalog format for trim dimensions.
type FormatLookup interface {
	Format(ctx context.Context, id string) (*catalog.Format, error)
}

// ActivityLogger records audit entries. Failures are ignored by callers.
type ActivityLogger interface {
	Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
}
