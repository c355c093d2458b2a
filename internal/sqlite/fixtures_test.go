package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rpggio/photobook/internal/domain/project"
	"github.com/stretchr/testify/require"
)

func newProject(id, tenantID, ownerID, name string) *project.Project {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &project.Project{
		ID:        id,
		TenantID:  tenantID,
		OwnerID:   ownerID,
		Name:      name,
		Status:    project.StatusDraft,
		Settings:  map[string]any{"theme": "classic"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func makePages(projectID string, n int) []project.Page {
	pages := make([]project.Page, n)
	for i := range pages {
		pages[i] = project.Page{
			ID:         fmt.Sprintf("%s-page-%d", projectID, i+1),
			ProjectID:  projectID,
			PageNumber: i + 1,
			PageType:   project.PageRegular,
			SpreadID:   fmt.Sprintf("%s-spread-%d", projectID, i/2),
			Elements: []project.Element{{
				ID:    fmt.Sprintf("el-%d", i+1),
				Type:  project.ElementPhoto,
				Frame: project.Frame{X: 10, Y: 10, Width: 100, Height: 80},
				Props: map[string]any{"asset_id": fmt.Sprintf("asset-%d", i+1)},
			}},
			BackgroundColor: "#FFFFFF",
		}
	}
	return pages
}

func insertProject(t *testing.T, db *DB, id, tenantID, ownerID string) *project.Project {
	t.Helper()
	proj := newProject(id, tenantID, ownerID, "Project "+id)
	pages := makePages(id, 4)
	proj.PageCount = len(pages)
	require.NoError(t, NewProjectRepository(db).Create(context.Background(), tenantID, proj, pages))
	return proj
}
