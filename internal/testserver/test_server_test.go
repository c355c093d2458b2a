package testserver_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/photobook/internal/testserver"
)

type projectDetail struct {
	Project struct {
		ID             string  `json:"id"`
		Name           string  `json:"name"`
		Status         string  `json:"status"`
		PageCount      int     `json:"page_count"`
		SpineWidth     float64 `json:"spine_width_mm"`
		CurrentVersion int64   `json:"current_version"`
	} `json:"project"`
	Pages []struct {
		ID       string `json:"id"`
		PageType string `json:"page_type"`
	} `json:"pages"`
	DisplayPageCount int `json:"display_page_count"`
}

type versionResult struct {
	ID            string `json:"id"`
	VersionNumber int64  `json:"version_number"`
	IsProduction  bool   `json:"is_production"`
	ProjectName   string `json:"project_name"`
}

func callTool(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	result := call(t, cs, name, args)
	require.False(t, result.IsError, "tool %s returned error: %s", name, text(result))
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text(result)), out))
	}
}

func callToolError(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	result := call(t, cs, name, args)
	require.True(t, result.IsError, "tool %s succeeded unexpectedly: %s", name, text(result))
	return text(result)
}

func call(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	result, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "CallTool %s failed", name)
	return result
}

func text(result *sdkmcp.CallToolResult) string {
	for _, content := range result.Content {
		if tc, ok := content.(*sdkmcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func createProject(t *testing.T, cs *sdkmcp.ClientSession, name string) projectDetail {
	t.Helper()
	var created projectDetail
	callTool(t, cs, "create_project", map[string]any{
		"name":               name,
		"format_id":          "square-20",
		"paper_id":           "matte-170",
		"cover_type_id":      "softcover",
		"initial_page_count": 20,
		"include_guards":     true,
	}, &created)
	return created
}

func TestHTTP_RequiresAPIKey(t *testing.T) {
	ts := testserver.New(t)
	ts.AddAPIKey(t, "good-token", "tenant1", "alice")

	anonymous := ts.Connect(t, "")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := anonymous.CallTool(ctx, &sdkmcp.CallToolParams{Name: "list_projects", Arguments: map[string]any{}})
	require.Error(t, err)

	bad := ts.Connect(t, "wrong-token")
	_, err = bad.CallTool(ctx, &sdkmcp.CallToolParams{Name: "list_projects", Arguments: map[string]any{}})
	require.Error(t, err)

	good := ts.Connect(t, "good-token")
	var list struct {
		Projects []any `json:"projects"`
	}
	callTool(t, good, "list_projects", map[string]any{}, &list)
	require.Empty(t, list.Projects)
}

func TestHTTP_OwnerIsolation(t *testing.T) {
	ts := testserver.New(t)
	ts.AddAPIKey(t, "alice-token", "tenant1", "alice")
	ts.AddAPIKey(t, "bob-token", "tenant1", "bob")
	ts.AddAPIKey(t, "carol-token", "tenant2", "alice")

	alice := ts.Connect(t, "alice-token")
	created := createProject(t, alice, "Alice's Wedding")

	bob := ts.Connect(t, "bob-token")
	msg := callToolError(t, bob, "get_project", map[string]any{"project_id": created.Project.ID})
	require.Contains(t, msg, "NOT_FOUND")

	otherTenant := ts.Connect(t, "carol-token")
	msg = callToolError(t, otherTenant, "get_project", map[string]any{"project_id": created.Project.ID})
	require.Contains(t, msg, "NOT_FOUND")

	var got projectDetail
	callTool(t, alice, "get_project", map[string]any{"project_id": created.Project.ID}, &got)
	require.Equal(t, "Alice's Wedding", got.Project.Name)
}

func TestProjectLifecycle(t *testing.T) {
	cs, _ := testserver.NewInMemory(t)

	created := createProject(t, cs, "Summer Trip")
	require.Equal(t, "draft", created.Project.Status)
	require.Len(t, created.Pages, 22)
	require.Equal(t, "guard_front", created.Pages[0].PageType)
	require.Equal(t, "guard_back", created.Pages[21].PageType)
	require.Equal(t, 20, created.DisplayPageCount)
	require.Equal(t, 2.5, created.Project.SpineWidth)

	id := created.Project.ID
	start := created.Project.CurrentVersion

	var updated projectDetail
	callTool(t, cs, "update_project", map[string]any{
		"project_id":       id,
		"expected_version": start,
		"changes":          map[string]any{"name": "Summer Trip 2026"},
	}, &updated)
	require.Equal(t, "Summer Trip 2026", updated.Project.Name)
	require.Equal(t, start+1, updated.Project.CurrentVersion)

	msg := callToolError(t, cs, "update_project", map[string]any{
		"project_id":       id,
		"expected_version": start,
		"changes":          map[string]any{"name": "Stale"},
	})
	require.Contains(t, msg, "CONFLICT")

	var search struct {
		Projects []struct {
			ID string `json:"id"`
		} `json:"projects"`
	}
	callTool(t, cs, "search_projects", map[string]any{"query": "summ"}, &search)
	require.Len(t, search.Projects, 1)
	require.Equal(t, id, search.Projects[0].ID)

	var dup projectDetail
	callTool(t, cs, "duplicate_project", map[string]any{"project_id": id}, &dup)
	require.NotEqual(t, id, dup.Project.ID)
	require.Len(t, dup.Pages, 22)

	var deleted struct {
		Deleted bool `json:"deleted"`
	}
	callTool(t, cs, "delete_project", map[string]any{"project_id": dup.Project.ID}, &deleted)
	require.True(t, deleted.Deleted)
	msg = callToolError(t, cs, "get_project", map[string]any{"project_id": dup.Project.ID})
	require.Contains(t, msg, "NOT_FOUND")
}

func TestVersionsAndProductionLock(t *testing.T) {
	cs, _ := testserver.NewInMemory(t)
	id := createProject(t, cs, "Edition 1").Project.ID

	var v1 versionResult
	callTool(t, cs, "create_version", map[string]any{"project_id": id, "summary": "First draft"}, &v1)
	require.Equal(t, int64(1), v1.VersionNumber)

	callTool(t, cs, "update_project", map[string]any{
		"project_id": id,
		"changes":    map[string]any{"name": "Edition 2"},
	}, nil)

	var locked versionResult
	callTool(t, cs, "lock_for_production", map[string]any{"project_id": id}, &locked)
	require.True(t, locked.IsProduction)
	require.Equal(t, "Edition 2", locked.ProjectName)

	msg := callToolError(t, cs, "update_project", map[string]any{
		"project_id": id,
		"changes":    map[string]any{"name": "Edition 3"},
	})
	require.Contains(t, msg, "PROJECT_LOCKED")

	msg = callToolError(t, cs, "lock_for_production", map[string]any{"project_id": id})
	require.Contains(t, msg, "CONFLICT")

	var prod struct {
		Locked   bool `json:"locked"`
		Snapshot struct {
			Version versionResult `json:"version"`
		} `json:"snapshot"`
	}
	callTool(t, cs, "get_production_snapshot", map[string]any{"project_id": id}, &prod)
	require.True(t, prod.Locked)
	require.Equal(t, locked.ID, prod.Snapshot.Version.ID)

	var restored versionResult
	callTool(t, cs, "restore_version", map[string]any{"project_id": id, "version_id": v1.ID}, &restored)
	require.Equal(t, "Edition 1", restored.ProjectName)
	require.Greater(t, restored.VersionNumber, locked.VersionNumber)

	var got projectDetail
	callTool(t, cs, "get_project", map[string]any{"project_id": id}, &got)
	require.Equal(t, "draft", got.Project.Status)
	require.Equal(t, "Edition 1", got.Project.Name)

	var history struct {
		Versions []versionResult `json:"versions"`
	}
	callTool(t, cs, "get_version_history", map[string]any{"project_id": id}, &history)
	require.Len(t, history.Versions, 3)
	require.Equal(t, restored.ID, history.Versions[0].ID)

	callTool(t, cs, "get_production_snapshot", map[string]any{"project_id": id}, &prod)
	require.False(t, prod.Locked)
}

func TestPageOperations(t *testing.T) {
	cs, _ := testserver.NewInMemory(t)
	created := createProject(t, cs, "Pages")
	id := created.Project.ID

	var added projectDetail
	callTool(t, cs, "add_page_pair", map[string]any{"project_id": id}, &added)
	require.Len(t, added.Pages, 24)
	require.Equal(t, "guard_back", added.Pages[23].PageType)
	require.Equal(t, 22, added.DisplayPageCount)

	msg := callToolError(t, cs, "remove_page_pair", map[string]any{"project_id": id, "page_id": added.Pages[0].ID})
	require.Contains(t, msg, "INVALID_OPERATION")

	var removed projectDetail
	callTool(t, cs, "remove_page_pair", map[string]any{"project_id": id, "page_id": added.Pages[1].ID}, &removed)
	require.Len(t, removed.Pages, 22)

	ids := make([]any, 0, len(removed.Pages))
	for _, p := range removed.Pages {
		ids = append(ids, p.ID)
	}
	ids[1], ids[3] = ids[3], ids[1]
	ids[2], ids[4] = ids[4], ids[2]
	var reordered projectDetail
	callTool(t, cs, "reorder_pages", map[string]any{"project_id": id, "page_ids": ids}, &reordered)
	require.Equal(t, removed.Pages[3].ID, reordered.Pages[1].ID)

	msg = callToolError(t, cs, "reorder_pages", map[string]any{"project_id": id, "page_ids": ids[:5]})
	require.Contains(t, msg, "INVALID_OPERATION")
}

func TestAutosaveSession(t *testing.T) {
	cs, _ := testserver.NewInMemory(t)
	id := createProject(t, cs, "Autosave").Project.ID

	msg := callToolError(t, cs, "get_autosave_status", map[string]any{"project_id": id})
	require.Contains(t, msg, "NO_SESSION")

	type session struct {
		State             string `json:"state"`
		HasPendingChanges bool   `json:"has_pending_changes"`
		LastVersion       int64  `json:"last_version"`
	}
	var opened session
	callTool(t, cs, "open_editor_session", map[string]any{"project_id": id}, &opened)
	require.Equal(t, "idle", opened.State)

	var scheduled session
	callTool(t, cs, "schedule_autosave", map[string]any{
		"project_id": id,
		"changes":    map[string]any{"name": "Autosaved"},
	}, &scheduled)
	require.True(t, scheduled.HasPendingChanges)

	require.Eventually(t, func() bool {
		var got projectDetail
		callTool(t, cs, "get_project", map[string]any{"project_id": id}, &got)
		return got.Project.Name == "Autosaved"
	}, 5*time.Second, 20*time.Millisecond)

	var forced projectDetail
	callTool(t, cs, "force_autosave", map[string]any{
		"project_id": id,
		"changes":    map[string]any{"name": "Forced"},
	}, &forced)
	require.Equal(t, "Forced", forced.Project.Name)

	var status session
	callTool(t, cs, "get_autosave_status", map[string]any{"project_id": id}, &status)
	require.Equal(t, "idle", status.State)
	require.Equal(t, forced.Project.CurrentVersion, status.LastVersion)

	var closed struct {
		Closed bool `json:"closed"`
	}
	callTool(t, cs, "close_editor_session", map[string]any{"project_id": id}, &closed)
	require.True(t, closed.Closed)
}

func TestCatalogAndSpine(t *testing.T) {
	cs, _ := testserver.NewInMemory(t)

	var catalog struct {
		Formats []struct {
			ID string `json:"id"`
		} `json:"formats"`
		Papers []any `json:"papers"`
	}
	callTool(t, cs, "list_catalog", map[string]any{}, &catalog)
	require.Len(t, catalog.Formats, 5)
	require.Len(t, catalog.Papers, 4)

	var spine struct {
		SpineWidth float64 `json:"spine_width_mm"`
	}
	callTool(t, cs, "calculate_spine", map[string]any{
		"paper_id":      "silk-200",
		"cover_type_id": "hardcover",
		"page_count":    100,
	}, &spine)
	require.Equal(t, 14.0, spine.SpineWidth)

	msg := callToolError(t, cs, "calculate_spine", map[string]any{
		"paper_id":      "vellum",
		"cover_type_id": "hardcover",
		"page_count":    100,
	})
	require.Contains(t, msg, "NOT_FOUND")

	id := createProject(t, cs, "Cover").Project.ID
	var cover struct {
		Width  float64 `json:"width_mm"`
		Height float64 `json:"height_mm"`
	}
	callTool(t, cs, "get_cover_dimensions", map[string]any{"project_id": id}, &cover)
	require.Equal(t, 2*3+2*200+2.5, cover.Width)
	require.Equal(t, 2*3+200.0, cover.Height)

	var activity struct {
		Entries []struct {
			ActivityType string `json:"activity_type"`
		} `json:"entries"`
	}
	callTool(t, cs, "get_recent_activity", map[string]any{"project_id": id}, &activity)
	require.NotEmpty(t, activity.Entries)
	require.Equal(t, "project_created", activity.Entries[0].ActivityType)
}
