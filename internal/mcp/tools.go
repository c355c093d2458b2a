package mcp

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *sdkmcp.Server, h *handler) {
	// Catalog
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_catalog",
		Description: "List the available book formats, paper stocks and cover types",
	}, h.listCatalog)

	// Projects
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Create a photobook project with an initial page layout",
	}, h.createProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get a project with its pages",
	}, h.getProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List your projects, most recently updated first",
	}, h.listProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "search_projects",
		Description: "Search your projects by name",
	}, h.searchProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_project",
		Description: "Change project fields or replace the page list. Pass expected_version to detect concurrent edits",
	}, h.updateProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "duplicate_project",
		Description: "Copy a project and its pages into a new draft",
	}, h.duplicateProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_project",
		Description: "Delete a project with its pages and version history",
	}, h.deleteProject)

	// Auto-save sessions
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "open_editor_session",
		Description: "Start an editor session for a project; edits scheduled in it are saved in the background",
	}, h.openEditorSession)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "schedule_autosave",
		Description: "Queue the latest editor state for a debounced background save",
	}, h.scheduleAutosave)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "force_autosave",
		Description: "Save pending or given changes immediately and return the saved project",
	}, h.forceAutosave)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_autosave_status",
		Description: "Report the editor session state, including the last save and any failure",
	}, h.getAutosaveStatus)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "close_editor_session",
		Description: "End the editor session; unsaved pending changes are dropped",
	}, h.closeEditorSession)

	// Versions
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_version",
		Description: "Snapshot the project and its pages as a new version",
	}, h.createVersion)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_version_history",
		Description: "List recent versions of a project, newest first",
	}, h.getVersionHistory)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "restore_version",
		Description: "Replace the project with a version's content; the restore is recorded as a new version",
	}, h.restoreVersion)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "lock_for_production",
		Description: "Freeze the project as its production version; content can't change until a version is restored",
	}, h.lockForProduction)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_production_snapshot",
		Description: "Get the locked production snapshot, if the project is locked",
	}, h.getProductionSnapshot)

	// Pages
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "initialize_pages",
		Description: "Seed the page layout of a project that has no pages",
	}, h.initializePages)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_page_pair",
		Description: "Insert two pages forming a new spread",
	}, h.addPagePair)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "remove_page_pair",
		Description: "Remove a page together with its spread partner",
	}, h.removePagePair)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "reorder_pages",
		Description: "Reorder pages by giving every page ID in the new order",
	}, h.reorderPages)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "duplicate_page",
		Description: "Copy a page's content into a new spread with a blank partner page",
	}, h.duplicatePage)

	// Spine and cover
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "calculate_spine",
		Description: "Preview the spine width for a paper, cover type and page count",
	}, h.calculateSpine)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_cover_dimensions",
		Description: "Get the full cover spread size of a project, including spine and bleed",
	}, h.getCoverDimensions)

	// Activity
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List recent project activity, newest first",
	}, h.getRecentActivity)
}
