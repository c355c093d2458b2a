package version_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/photobook/internal/domain/catalog"
	"github.com/rpggio/photobook/internal/domain/pages"
	"github.com/rpggio/photobook/internal/domain/project"
	"github.com/rpggio/photobook/internal/domain/version"
	"github.com/rpggio/photobook/internal/sqlite"
	"github.com/stretchr/testify/require"
)

const (
	tenantID = "tenant1"
	ownerID  = "u1"
)

type fakeArchiver struct {
	mu       sync.Mutex
	archived []*version.Record
	err      error
}

func (f *fakeArchiver) ArchiveSnapshot(_ context.Context, rec *version.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, rec)
	return f.err
}

type fixture struct {
	versions *version.Service
	projects *project.Service
	pages    *pages.Service
	archiver *fakeArchiver
}

func newFixture(t *testing.T, policy version.Policy) *fixture {
	t.Helper()
	db := sqlite.NewTestDB(t)
	catalogSvc := catalog.NewService(sqlite.NewCatalogRepository(db), nil)
	rules := pages.NewRules(catalogSvc)
	activities := sqlite.NewActivityRepository(db)
	projects := project.NewService(sqlite.NewProjectRepository(db), rules, nil, catalogSvc, activities, nil)
	archiver := &fakeArchiver{}
	return &fixture{
		versions: version.NewService(sqlite.NewVersionRepository(db), projects, archiver, activities, policy, nil),
		projects: projects,
		pages:    pages.NewService(projects, rules, nil),
		archiver: archiver,
	}
}

func (f *fixture) createProject(t *testing.T) *project.Project {
	t.Helper()
	proj, _, err := f.projects.Create(context.Background(), tenantID, project.CreateRequest{
		OwnerID:          ownerID,
		Name:             "Edition 0",
		InitialPageCount: 4,
		IncludeGuards:    true,
	})
	require.NoError(t, err)
	return proj
}

func (f *fixture) rename(t *testing.T, projectID, name string) *project.Project {
	t.Helper()
	proj, err := f.projects.Update(context.Background(), tenantID, project.UpdateRequest{
		ProjectID: projectID,
		OwnerID:   ownerID,
		Patch:     project.Patch{Name: &name},
	})
	require.NoError(t, err)
	return proj
}

func TestCreateVersion(t *testing.T) {
	f := newFixture(t, version.DefaultPolicy)
	ctx := context.Background()
	proj := f.createProject(t)

	rec, err := f.versions.CreateVersion(ctx, tenantID, ownerID, proj.ID, "First draft")
	require.NoError(t, err)
	require.Equal(t, int64(1), rec.VersionNumber)
	require.Equal(t, "First draft", rec.ChangesSummary)
	require.False(t, rec.IsProduction)
	require.Len(t, rec.Snapshot.Pages, 6)

	live, err := f.projects.Get(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	require.Equal(t, proj.CurrentVersion+1, live.CurrentVersion)

	rec2, err := f.versions.CreateVersion(ctx, tenantID, ownerID, proj.ID, "")
	require.NoError(t, err)
	require.Equal(t, int64(2), rec2.VersionNumber)
	require.Equal(t, "Manual save", rec2.ChangesSummary)

	history, err := f.versions.GetHistory(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, int64(2), history[0].VersionNumber)

	_, err = f.versions.CreateVersion(ctx, tenantID, "someone-else", proj.ID, "")
	require.ErrorIs(t, err, project.ErrNotFound)
}

func TestGetHistory_CapsAtLimit(t *testing.T) {
	f := newFixture(t, version.Policy{KeepLatest: 50, MaxAge: time.Hour, HistoryLimit: 3})
	ctx := context.Background()
	proj := f.createProject(t)

	for i := 0; i < 5; i++ {
		_, err := f.versions.CreateVersion(ctx, tenantID, ownerID, proj.ID, "")
		require.NoError(t, err)
	}
	history, err := f.versions.GetHistory(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, int64(5), history[0].VersionNumber)
}

func TestVersionMonotonicity(t *testing.T) {
	f := newFixture(t, version.DefaultPolicy)
	ctx := context.Background()
	proj := f.createProject(t)

	last := proj.CurrentVersion
	step := func(p *project.Project) {
		require.Equal(t, last+1, p.CurrentVersion)
		last = p.CurrentVersion
	}

	step(f.rename(t, proj.ID, "A"))
	_, err := f.versions.CreateVersion(ctx, tenantID, ownerID, proj.ID, "")
	require.NoError(t, err)
	live, err := f.projects.Get(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	step(live)

	res, err := f.pages.AddPagePair(ctx, tenantID, ownerID, proj.ID, pages.AddPairRequest{})
	require.NoError(t, err)
	step(res.Project)

	first, err := f.versions.GetHistory(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	_, err = f.versions.RestoreVersion(ctx, tenantID, ownerID, proj.ID, first[0].ID)
	require.NoError(t, err)
	live, err = f.projects.Get(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	step(live)
}

func TestRestoreVersion_ThirdOfSevenBecomesEighth(t *testing.T) {
	f := newFixture(t, version.DefaultPolicy)
	ctx := context.Background()
	proj := f.createProject(t)

	var third *version.Record
	for i := 1; i <= 7; i++ {
		f.rename(t, proj.ID, fmt.Sprintf("Edition %d", i))
		if i == 4 {
			_, err := f.pages.AddPagePair(ctx, tenantID, ownerID, proj.ID, pages.AddPairRequest{})
			require.NoError(t, err)
		}
		rec, err := f.versions.CreateVersion(ctx, tenantID, ownerID, proj.ID, fmt.Sprintf("save %d", i))
		require.NoError(t, err)
		if i == 3 {
			third = rec
		}
	}

	before, err := f.projects.Get(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	require.Equal(t, 8, before.PageCount)

	restored, err := f.versions.RestoreVersion(ctx, tenantID, ownerID, proj.ID, third.ID)
	require.NoError(t, err)
	require.Equal(t, int64(8), restored.VersionNumber)
	require.Equal(t, "Restored from version 3", restored.ChangesSummary)

	live, livePages, err := f.projects.GetWithPages(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	require.Equal(t, "Edition 3", live.Name)
	require.Equal(t, 6, live.PageCount)
	require.Len(t, livePages, 6)
	require.Equal(t, project.StatusDraft, live.Status)
	require.Equal(t, before.CurrentVersion+1, live.CurrentVersion)
	for i, p := range livePages {
		require.Equal(t, third.Snapshot.Pages[i].ID, p.ID)
	}

	_, err = f.versions.RestoreVersion(ctx, tenantID, ownerID, proj.ID, "missing")
	require.ErrorIs(t, err, version.ErrVersionNotFound)
}

func TestLockForProduction(t *testing.T) {
	f := newFixture(t, version.DefaultPolicy)
	ctx := context.Background()
	proj := f.createProject(t)

	locked, err := f.versions.IsLocked(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	require.False(t, locked)
	snap, err := f.versions.GetProductionSnapshot(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	require.Nil(t, snap)

	rec, err := f.versions.LockForProduction(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	require.True(t, rec.IsProduction)
	require.Equal(t, project.StatusLocked, rec.Snapshot.Project.Status)
	require.Len(t, f.archiver.archived, 1)

	live, err := f.projects.Get(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	require.True(t, live.IsLocked())
	require.NotNil(t, live.LockedAt)
	require.Equal(t, rec.ID, *live.LockedVersionID)

	locked, err = f.versions.IsLocked(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	require.True(t, locked)

	snap, err = f.versions.GetProductionSnapshot(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	require.Equal(t, rec.ID, snap.ID)

	_, err = f.versions.LockForProduction(ctx, tenantID, ownerID, proj.ID)
	require.ErrorIs(t, err, version.ErrAlreadyLocked)
	require.ErrorIs(t, err, project.ErrConflict)

	name := "Edited after lock"
	_, err = f.projects.Update(ctx, tenantID, project.UpdateRequest{ProjectID: proj.ID, OwnerID: ownerID, Patch: project.Patch{Name: &name}})
	require.ErrorIs(t, err, project.ErrProjectLocked)
	_, err = f.pages.AddPagePair(ctx, tenantID, ownerID, proj.ID, pages.AddPairRequest{})
	require.ErrorIs(t, err, project.ErrProjectLocked)

	after, err := f.projects.Get(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	require.Equal(t, live.CurrentVersion, after.CurrentVersion)
	require.Equal(t, live.Name, after.Name)
}

func TestLockForProduction_ArchiveFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, version.DefaultPolicy)
	f.archiver.err = errors.New("bucket unreachable")
	proj := f.createProject(t)

	_, err := f.versions.LockForProduction(context.Background(), tenantID, ownerID, proj.ID)
	require.NoError(t, err)
}

func TestRestoreVersion_ClearsLock(t *testing.T) {
	f := newFixture(t, version.DefaultPolicy)
	ctx := context.Background()
	proj := f.createProject(t)

	draft, err := f.versions.CreateVersion(ctx, tenantID, ownerID, proj.ID, "before lock")
	require.NoError(t, err)
	_, err = f.versions.LockForProduction(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)

	_, err = f.versions.RestoreVersion(ctx, tenantID, ownerID, proj.ID, draft.ID)
	require.NoError(t, err)

	live, err := f.projects.Get(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	require.False(t, live.IsLocked())
	require.Nil(t, live.LockedAt)
	require.Equal(t, project.StatusDraft, live.Status)
}

func TestRetentionRunsAfterCommits(t *testing.T) {
	f := newFixture(t, version.Policy{KeepLatest: 2, MaxAge: time.Nanosecond, HistoryLimit: 20})
	ctx := context.Background()
	proj := f.createProject(t)

	for i := 0; i < 4; i++ {
		_, err := f.versions.CreateVersion(ctx, tenantID, ownerID, proj.ID, "")
		require.NoError(t, err)
	}
	_, err := f.versions.LockForProduction(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)

	history, err := f.versions.GetHistory(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, int64(5), history[0].VersionNumber)
	require.True(t, history[0].IsProduction)
	require.Equal(t, int64(4), history[1].VersionNumber)

	_, err = f.versions.RestoreVersion(ctx, tenantID, ownerID, proj.ID, history[1].ID)
	require.NoError(t, err)
	_, err = f.versions.CreateVersion(ctx, tenantID, ownerID, proj.ID, "")
	require.NoError(t, err)

	history, err = f.versions.GetHistory(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	numbers := make([]int64, len(history))
	for i, rec := range history {
		numbers[i] = rec.VersionNumber
	}
	require.Equal(t, []int64{7, 6, 5}, numbers)
}
