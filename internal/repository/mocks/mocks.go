package mocks

import (
	"context"

	"github.com/rpggio/photobook/internal/domain/activity"
	"github.com/rpggio/photobook/internal/domain/catalog"
	"github.com/rpggio/photobook/internal/domain/project"
	"github.com/rpggio/photobook/internal/domain/version"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, tenantID string, proj *project.Project, pages []project.Page) error {
	args := m.Called(ctx, tenantID, proj, pages)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, tenantID, ownerID, id string) (*project.Project, error) {
	args := m.Called(ctx, tenantID, ownerID, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListPages(ctx context.Context, tenantID, projectID string) ([]project.Page, error) {
	args := m.Called(ctx, tenantID, projectID)
	if pages, ok := args.Get(0).([]project.Page); ok {
		return pages, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, tenantID, ownerID string, opts project.ListOptions) ([]project.Summary, error) {
	args := m.Called(ctx, tenantID, ownerID, opts)
	if list, ok := args.Get(0).([]project.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Search(ctx context.Context, tenantID, ownerID, query string, limit int) ([]project.Summary, error) {
	args := m.Called(ctx, tenantID, ownerID, query, limit)
	if list, ok := args.Get(0).([]project.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Save mirrors the store contract: on success proj.CurrentVersion becomes
// expectedVersion+1.
func (m *ProjectRepository) Save(ctx context.Context, tenantID string, proj *project.Project, pages []project.Page, expectedVersion int64) error {
	args := m.Called(ctx, tenantID, proj, pages, expectedVersion)
	if err := args.Error(0); err != nil {
		return err
	}
	proj.CurrentVersion = expectedVersion + 1
	return nil
}

func (m *ProjectRepository) Delete(ctx context.Context, tenantID, ownerID, id string) error {
	args := m.Called(ctx, tenantID, ownerID, id)
	return args.Error(0)
}

// CatalogRepository is a mock for catalog.Repository.
type CatalogRepository struct {
	mock.Mock
}

func (m *CatalogRepository) GetFormat(ctx context.Context, id string) (*catalog.Format, error) {
	args := m.Called(ctx, id)
	if f, ok := args.Get(0).(*catalog.Format); ok {
		return f, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CatalogRepository) GetPaper(ctx context.Context, id string) (*catalog.Paper, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*catalog.Paper); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CatalogRepository) GetCoverType(ctx context.Context, id string) (*catalog.CoverType, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*catalog.CoverType); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CatalogRepository) ListFormats(ctx context.Context) ([]catalog.Format, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]catalog.Format); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CatalogRepository) ListPapers(ctx context.Context) ([]catalog.Paper, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]catalog.Paper); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CatalogRepository) ListCoverTypes(ctx context.Context) ([]catalog.CoverType, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]catalog.CoverType); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, tenantID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// VersionRepository is a mock for version.Repository.
type VersionRepository struct {
	mock.Mock
}

func (m *VersionRepository) Commit(ctx context.Context, tenantID string, proj *project.Project, pages []project.Page, rec *version.Record, expectedVersion int64) error {
	args := m.Called(ctx, tenantID, proj, pages, rec, expectedVersion)
	return args.Error(0)
}

func (m *VersionRepository) List(ctx context.Context, tenantID, projectID string, limit int) ([]version.Record, error) {
	args := m.Called(ctx, tenantID, projectID, limit)
	if list, ok := args.Get(0).([]version.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VersionRepository) Get(ctx context.Context, tenantID, projectID, id string) (*version.Record, error) {
	args := m.Called(ctx, tenantID, projectID, id)
	if rec, ok := args.Get(0).(*version.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VersionRepository) Delete(ctx context.Context, tenantID, projectID string, ids []string) error {
	args := m.Called(ctx, tenantID, projectID, ids)
	return args.Error(0)
}
