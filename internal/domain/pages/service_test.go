package pages_test

import (
	"context"
	"testing"

	"github.com/rpggio/photobook/internal/domain/catalog"
	"github.com/rpggio/photobook/internal/domain/pages"
	"github.com/rpggio/photobook/internal/domain/project"
	"github.com/rpggio/photobook/internal/domain/spine"
	"github.com/rpggio/photobook/internal/sqlite"
	"github.com/stretchr/testify/require"
)

const (
	tenantID = "tenant1"
	ownerID  = "u1"
)

type fixture struct {
	pages    *pages.Service
	projects *project.Service
	repo     *sqlite.ProjectRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := sqlite.NewTestDB(t)
	catalogSvc := catalog.NewService(sqlite.NewCatalogRepository(db), nil)
	rules := pages.NewRules(catalogSvc)
	repo := sqlite.NewProjectRepository(db)
	projects := project.NewService(repo, rules, spine.NewSizer(catalogSvc, nil), catalogSvc, sqlite.NewActivityRepository(db), nil)
	return &fixture{
		pages:    pages.NewService(projects, rules, nil),
		projects: projects,
		repo:     repo,
	}
}

func (f *fixture) create(t *testing.T, req project.CreateRequest) (*project.Project, []project.Page) {
	t.Helper()
	if req.OwnerID == "" {
		req.OwnerID = ownerID
	}
	if req.Name == "" {
		req.Name = "Album"
	}
	proj, seeded, err := f.projects.Create(context.Background(), tenantID, req)
	require.NoError(t, err)
	return proj, seeded
}

func (f *fixture) load(t *testing.T, projectID string) (*project.Project, []project.Page) {
	t.Helper()
	proj, stored, err := f.projects.GetWithPages(context.Background(), tenantID, ownerID, projectID)
	require.NoError(t, err)
	return proj, stored
}

func requireDense(t *testing.T, list []project.Page) {
	t.Helper()
	for i, p := range list {
		require.Equal(t, i+1, p.PageNumber)
	}
	spreads := map[string]int{}
	for _, p := range list {
		if !p.PageType.IsGuard() {
			spreads[p.SpreadID]++
		}
	}
	for spread, n := range spreads {
		require.Equal(t, 2, n, "spread %s", spread)
	}
}

func ids(list []project.Page) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.ID
	}
	return out
}

func TestAddPagePair_InsertsAtPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proj, before := f.create(t, project.CreateRequest{InitialPageCount: 4, IncludeGuards: true})

	res, err := f.pages.AddPagePair(ctx, tenantID, ownerID, proj.ID, pages.AddPairRequest{Position: 3})
	require.NoError(t, err)
	require.Len(t, res.Pages, 8)
	require.Equal(t, 8, res.Project.PageCount)
	require.Equal(t, proj.CurrentVersion+1, res.Project.CurrentVersion)

	require.Equal(t, res.Pages[2].SpreadID, res.Pages[3].SpreadID)
	require.Equal(t, before[2].ID, res.Pages[4].ID)
	require.Equal(t, project.PageGuardFront, res.Pages[0].PageType)
	require.Equal(t, project.PageGuardBack, res.Pages[7].PageType)

	_, stored := f.load(t, proj.ID)
	require.Equal(t, ids(res.Pages), ids(stored))
	requireDense(t, stored)
}

func TestAddPagePair_ClampsInsideGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proj, _ := f.create(t, project.CreateRequest{InitialPageCount: 2, IncludeGuards: true})

	res, err := f.pages.AddPagePair(ctx, tenantID, ownerID, proj.ID, pages.AddPairRequest{Position: 1})
	require.NoError(t, err)
	require.Equal(t, project.PageGuardFront, res.Pages[0].PageType)
	require.Equal(t, res.Pages[1].SpreadID, res.Pages[2].SpreadID)

	res, err = f.pages.AddPagePair(ctx, tenantID, ownerID, proj.ID, pages.AddPairRequest{Position: 99, PageType: project.PageTitle})
	require.NoError(t, err)
	n := len(res.Pages)
	require.Equal(t, project.PageGuardBack, res.Pages[n-1].PageType)
	require.Equal(t, project.PageTitle, res.Pages[n-2].PageType)
	require.Equal(t, project.PageTitle, res.Pages[n-3].PageType)

	_, err = f.pages.AddPagePair(ctx, tenantID, ownerID, proj.ID, pages.AddPairRequest{PageType: project.PageGuardBack})
	require.ErrorIs(t, err, pages.ErrInvalidPage)
}

func TestAddPagePair_RespectsFormatMaximum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	format := "square-30"
	proj, _ := f.create(t, project.CreateRequest{FormatID: &format, InitialPageCount: 118, IncludeGuards: true})
	require.Equal(t, 120, proj.PageCount)

	_, err := f.pages.AddPagePair(ctx, tenantID, ownerID, proj.ID, pages.AddPairRequest{})
	require.ErrorIs(t, err, pages.ErrPageLimit)
	require.ErrorIs(t, err, project.ErrInvalidOperation)

	after, _ := f.load(t, proj.ID)
	require.Equal(t, proj.CurrentVersion, after.CurrentVersion)
}

func TestRemovePagePair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proj, before := f.create(t, project.CreateRequest{InitialPageCount: 6, IncludeGuards: true})

	res, err := f.pages.RemovePagePair(ctx, tenantID, ownerID, proj.ID, before[4].ID)
	require.NoError(t, err)
	require.Len(t, res.Pages, 6)
	for _, p := range res.Pages {
		require.NotEqual(t, before[3].ID, p.ID)
		require.NotEqual(t, before[4].ID, p.ID)
	}
	requireDense(t, res.Pages)

	_, err = f.pages.RemovePagePair(ctx, tenantID, ownerID, proj.ID, before[0].ID)
	require.ErrorIs(t, err, pages.ErrGuardPage)

	_, err = f.pages.RemovePagePair(ctx, tenantID, ownerID, proj.ID, "missing")
	require.ErrorIs(t, err, pages.ErrPageNotFound)
	require.ErrorIs(t, err, project.ErrNotFound)
}

func TestRemovePagePair_RespectsMinimum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proj, before := f.create(t, project.CreateRequest{InitialPageCount: 2})

	_, err := f.pages.RemovePagePair(ctx, tenantID, ownerID, proj.ID, before[0].ID)
	require.ErrorIs(t, err, pages.ErrPageLimit)
}

func TestRemovePagePair_FallsBackToParity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proj, before := f.create(t, project.CreateRequest{InitialPageCount: 4, IncludeGuards: true})

	// Give every page its own spread so pairing must fall back to position.
	split := project.ClonePages(before)
	for i := range split {
		split[i].SpreadID = "solo-" + split[i].ID
	}
	expected := proj.CurrentVersion
	_, err := f.projects.Update(ctx, tenantID, project.UpdateRequest{
		ProjectID: proj.ID, OwnerID: ownerID,
		Patch:           project.Patch{Pages: split},
		ExpectedVersion: &expected,
	})
	require.NoError(t, err)

	res, err := f.pages.RemovePagePair(ctx, tenantID, ownerID, proj.ID, before[2].ID)
	require.NoError(t, err)
	require.Equal(t, []string{before[0].ID, before[3].ID, before[4].ID, before[5].ID}, ids(res.Pages))
}

func TestReorderPages_PreservesContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proj, before := f.create(t, project.CreateRequest{InitialPageCount: 4, IncludeGuards: true})

	styled := project.ClonePages(before)
	styled[1].BackgroundColor = "#FF0000"
	styled[1].Elements = []project.Element{{ID: "e1", Type: project.ElementText, Props: map[string]any{"text": "Hello"}}}
	expected := proj.CurrentVersion
	_, err := f.projects.Update(ctx, tenantID, project.UpdateRequest{
		ProjectID: proj.ID, OwnerID: ownerID,
		Patch:           project.Patch{Pages: styled},
		ExpectedVersion: &expected,
	})
	require.NoError(t, err)

	order := []string{before[0].ID, before[3].ID, before[4].ID, before[1].ID, before[2].ID, before[5].ID}
	res, err := f.pages.ReorderPages(ctx, tenantID, ownerID, proj.ID, order)
	require.NoError(t, err)
	require.Equal(t, order, ids(res.Pages))

	_, stored := f.load(t, proj.ID)
	require.Equal(t, order, ids(stored))
	moved := stored[3]
	require.Equal(t, 4, moved.PageNumber)
	require.Equal(t, "#FF0000", moved.BackgroundColor)
	require.Equal(t, "Hello", moved.Elements[0].Props["text"])
	require.Equal(t, before[1].SpreadID, moved.SpreadID)
}

func TestReorderPages_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proj, before := f.create(t, project.CreateRequest{InitialPageCount: 2, IncludeGuards: true})

	_, err := f.pages.ReorderPages(ctx, tenantID, ownerID, proj.ID, ids(before)[:3])
	require.ErrorIs(t, err, pages.ErrPageSetMismatch)

	_, err = f.pages.ReorderPages(ctx, tenantID, ownerID, proj.ID, []string{before[0].ID, before[1].ID, before[1].ID, before[3].ID})
	require.ErrorIs(t, err, pages.ErrPageSetMismatch)

	_, err = f.pages.ReorderPages(ctx, tenantID, ownerID, proj.ID, []string{before[1].ID, before[0].ID, before[2].ID, before[3].ID})
	require.ErrorIs(t, err, pages.ErrGuardPage)
}

func TestDuplicatePage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proj, before := f.create(t, project.CreateRequest{InitialPageCount: 4, IncludeGuards: true})

	styled := project.ClonePages(before)
	styled[2].Elements = []project.Element{{ID: "photo", Type: project.ElementPhoto, Frame: project.Frame{Width: 50, Height: 40}}}
	expected := proj.CurrentVersion
	_, err := f.projects.Update(ctx, tenantID, project.UpdateRequest{
		ProjectID: proj.ID, OwnerID: ownerID,
		Patch:           project.Patch{Pages: styled},
		ExpectedVersion: &expected,
	})
	require.NoError(t, err)

	res, err := f.pages.DuplicatePage(ctx, tenantID, ownerID, proj.ID, before[2].ID)
	require.NoError(t, err)
	require.Len(t, res.Pages, 8)

	src, cp, blank := res.Pages[2], res.Pages[3], res.Pages[4]
	require.Equal(t, before[2].ID, src.ID)
	require.NotEqual(t, src.ID, cp.ID)
	require.Equal(t, src.Elements, cp.Elements)
	require.Empty(t, blank.Elements)
	require.Equal(t, cp.SpreadID, blank.SpreadID)
	require.NotEqual(t, src.SpreadID, cp.SpreadID)
	requireDense(t, res.Pages)

	_, err = f.pages.DuplicatePage(ctx, tenantID, ownerID, proj.ID, before[0].ID)
	require.ErrorIs(t, err, pages.ErrGuardPage)
}

func TestInitializeProjectPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty := &project.Project{ID: "empty", OwnerID: ownerID, Name: "Empty", Status: project.StatusDraft}
	require.NoError(t, f.repo.Create(ctx, tenantID, empty, nil))

	res, err := f.pages.InitializeProjectPages(ctx, tenantID, ownerID, "empty", 10, true)
	require.NoError(t, err)
	require.Len(t, res.Pages, 12)
	require.Equal(t, int64(1), res.Project.CurrentVersion)
	requireDense(t, res.Pages)

	_, err = f.pages.InitializeProjectPages(ctx, tenantID, ownerID, "empty", 10, true)
	require.ErrorIs(t, err, pages.ErrAlreadyInitialized)
}

func TestPageOperations_ForbiddenOnLockedProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proj, before := f.create(t, project.CreateRequest{InitialPageCount: 4})

	stored, err := f.repo.Get(ctx, tenantID, ownerID, proj.ID)
	require.NoError(t, err)
	lockedID := "v1"
	stored.Status = project.StatusLocked
	stored.LockedVersionID = &lockedID
	require.NoError(t, f.repo.Save(ctx, tenantID, stored, nil, stored.CurrentVersion))

	_, err = f.pages.AddPagePair(ctx, tenantID, ownerID, proj.ID, pages.AddPairRequest{})
	require.ErrorIs(t, err, project.ErrProjectLocked)
	_, err = f.pages.RemovePagePair(ctx, tenantID, ownerID, proj.ID, before[0].ID)
	require.ErrorIs(t, err, project.ErrProjectLocked)
}
