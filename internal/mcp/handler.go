package mcp

import (
	"context"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/photobook/internal/domain/activity"
	"github.com/rpggio/photobook/internal/domain/pages"
	"github.com/rpggio/photobook/internal/domain/project"
)

// handler implements the MCP tools on top of the domain services.
type handler struct {
	svc      Services
	defaults PageDefaults
	logger   *slog.Logger
}

func newHandler(svc Services, defaults PageDefaults, logger *slog.Logger) *handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &handler{svc: svc, defaults: defaults, logger: logger}
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalidInput("%s is required", name)
	}
	return nil
}

// Catalog

func (h *handler) listCatalog(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListCatalogInput) (*sdkmcp.CallToolResult, CatalogOutput, error) {
	listing, err := h.svc.Catalog.List(ctx)
	if err != nil {
		return nil, CatalogOutput{}, MapError(err)
	}
	return nil, CatalogOutput{Formats: listing.Formats, Papers: listing.Papers, CoverTypes: listing.CoverTypes}, nil
}

// Projects

func (h *handler) createProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateProjectInput) (*sdkmcp.CallToolResult, ProjectDetailOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, ProjectDetailOutput{}, err
	}
	if err := requireField("name", in.Name); err != nil {
		return nil, ProjectDetailOutput{}, err
	}

	count := h.defaults.InitialCount
	if in.InitialPageCount != nil {
		count = *in.InitialPageCount
	}
	guards := h.defaults.IncludeGuards
	if in.IncludeGuards != nil {
		guards = *in.IncludeGuards
	}

	proj, pgs, err := h.svc.Projects.Create(ctx, id.TenantID, project.CreateRequest{
		OwnerID:          id.UserID,
		Name:             in.Name,
		ProductID:        in.ProductID,
		FormatID:         in.FormatID,
		PaperID:          in.PaperID,
		CoverTypeID:      in.CoverTypeID,
		Settings:         in.Settings,
		InitialPageCount: count,
		IncludeGuards:    guards,
	})
	if err != nil {
		return nil, ProjectDetailOutput{}, MapError(err)
	}
	return nil, toDetailOutput(proj, pgs), nil
}

func (h *handler) getProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDInput) (*sdkmcp.CallToolResult, ProjectDetailOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, ProjectDetailOutput{}, err
	}
	if err := requireField("project_id", in.ProjectID); err != nil {
		return nil, ProjectDetailOutput{}, err
	}
	proj, pgs, err := h.svc.Projects.GetWithPages(ctx, id.TenantID, id.UserID, in.ProjectID)
	if err != nil {
		return nil, ProjectDetailOutput{}, MapError(err)
	}
	return nil, toDetailOutput(proj, pgs), nil
}

func (h *handler) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListProjectsInput) (*sdkmcp.CallToolResult, ProjectListOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, ProjectListOutput{}, err
	}
	opts := project.ListOptions{Limit: in.Limit, Offset: in.Offset}
	if in.Status != nil {
		status := project.Status(*in.Status)
		if !status.IsValid() {
			return nil, ProjectListOutput{}, invalidInput("unknown status %q", *in.Status)
		}
		opts.Status = &status
	}
	list, err := h.svc.Projects.List(ctx, id.TenantID, id.UserID, opts)
	if err != nil {
		return nil, ProjectListOutput{}, MapError(err)
	}
	return nil, ProjectListOutput{Projects: toSummaryOutputs(list)}, nil
}

func (h *handler) searchProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, in SearchProjectsInput) (*sdkmcp.CallToolResult, ProjectListOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, ProjectListOutput{}, err
	}
	list, err := h.svc.Projects.Search(ctx, id.TenantID, id.UserID, in.Query, in.Limit)
	if err != nil {
		return nil, ProjectListOutput{}, MapError(err)
	}
	return nil, ProjectListOutput{Projects: toSummaryOutputs(list)}, nil
}

func (h *handler) updateProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in UpdateProjectInput) (*sdkmcp.CallToolResult, ProjectDetailOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, ProjectDetailOutput{}, err
	}
	if err := requireField("project_id", in.ProjectID); err != nil {
		return nil, ProjectDetailOutput{}, err
	}
	patch, err := in.Changes.toPatch()
	if err != nil {
		return nil, ProjectDetailOutput{}, err
	}
	if patch.IsEmpty() {
		return nil, ProjectDetailOutput{}, invalidInput("changes must set at least one field")
	}

	if _, err := h.svc.Projects.Update(ctx, id.TenantID, project.UpdateRequest{
		ProjectID:       in.ProjectID,
		OwnerID:         id.UserID,
		Patch:           patch,
		ExpectedVersion: in.ExpectedVersion,
	}); err != nil {
		return nil, ProjectDetailOutput{}, MapError(err)
	}
	return h.reload(ctx, id, in.ProjectID)
}

func (h *handler) duplicateProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDInput) (*sdkmcp.CallToolResult, ProjectDetailOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, ProjectDetailOutput{}, err
	}
	if err := requireField("project_id", in.ProjectID); err != nil {
		return nil, ProjectDetailOutput{}, err
	}
	proj, pgs, err := h.svc.Projects.Duplicate(ctx, id.TenantID, id.UserID, in.ProjectID)
	if err != nil {
		return nil, ProjectDetailOutput{}, MapError(err)
	}
	return nil, toDetailOutput(proj, pgs), nil
}

func (h *handler) deleteProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDInput) (*sdkmcp.CallToolResult, DeleteProjectOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, DeleteProjectOutput{}, err
	}
	if err := requireField("project_id", in.ProjectID); err != nil {
		return nil, DeleteProjectOutput{}, err
	}
	if err := h.svc.Projects.Delete(ctx, id.TenantID, id.UserID, in.ProjectID); err != nil {
		return nil, DeleteProjectOutput{}, MapError(err)
	}
	closed := h.svc.AutoSave.StopProjectSessions(in.ProjectID)
	return nil, DeleteProjectOutput{Deleted: true, ClosedSessions: closed}, nil
}

// Auto-save sessions

func (h *handler) openEditorSession(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDInput) (*sdkmcp.CallToolResult, SessionOutput, error) {
	id, err := h.checkProject(ctx, in.ProjectID)
	if err != nil {
		return nil, SessionOutput{}, err
	}
	info := h.svc.AutoSave.StartSession(in.ProjectID, id.UserID, id.TenantID)
	return nil, toSessionOutput(info), nil
}

func (h *handler) scheduleAutosave(ctx context.Context, _ *sdkmcp.CallToolRequest, in ScheduleAutosaveInput) (*sdkmcp.CallToolResult, SessionOutput, error) {
	id, err := h.checkProject(ctx, in.ProjectID)
	if err != nil {
		return nil, SessionOutput{}, err
	}
	patch, err := in.Changes.toPatch()
	if err != nil {
		return nil, SessionOutput{}, err
	}
	if patch.IsEmpty() {
		return nil, SessionOutput{}, invalidInput("changes must set at least one field")
	}
	info := h.svc.AutoSave.ScheduleAutoSave(in.ProjectID, id.UserID, id.TenantID, patch)
	return nil, toSessionOutput(info), nil
}

func (h *handler) forceAutosave(ctx context.Context, _ *sdkmcp.CallToolRequest, in ForceAutosaveInput) (*sdkmcp.CallToolResult, ProjectDetailOutput, error) {
	id, err := h.checkProject(ctx, in.ProjectID)
	if err != nil {
		return nil, ProjectDetailOutput{}, err
	}
	var patch *project.Patch
	if in.Changes != nil {
		p, err := in.Changes.toPatch()
		if err != nil {
			return nil, ProjectDetailOutput{}, err
		}
		patch = &p
	}
	if _, err := h.svc.AutoSave.ForceAutoSave(ctx, in.ProjectID, id.UserID, id.TenantID, patch, in.ExpectedVersion); err != nil {
		return nil, ProjectDetailOutput{}, MapError(err)
	}
	return h.reload(ctx, id, in.ProjectID)
}

func (h *handler) getAutosaveStatus(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDInput) (*sdkmcp.CallToolResult, SessionOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, SessionOutput{}, err
	}
	info, ok := h.svc.AutoSave.GetSessionInfo(in.ProjectID, id.UserID)
	if !ok {
		return nil, SessionOutput{}, &APIError{
			Code:         CodeNoSession,
			Message:      "no editor session for this project",
			RecoveryHint: "Call open_editor_session first",
		}
	}
	return nil, toSessionOutput(info), nil
}

func (h *handler) closeEditorSession(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDInput) (*sdkmcp.CallToolResult, CloseSessionOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, CloseSessionOutput{}, err
	}
	return nil, CloseSessionOutput{Closed: h.svc.AutoSave.StopSession(in.ProjectID, id.UserID)}, nil
}

// Versions

func (h *handler) createVersion(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateVersionInput) (*sdkmcp.CallToolResult, VersionOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, VersionOutput{}, err
	}
	if err := requireField("project_id", in.ProjectID); err != nil {
		return nil, VersionOutput{}, err
	}
	rec, err := h.svc.Versions.CreateVersion(ctx, id.TenantID, id.UserID, in.ProjectID, in.Summary)
	if err != nil {
		return nil, VersionOutput{}, MapError(err)
	}
	return nil, toVersionOutput(rec), nil
}

func (h *handler) getVersionHistory(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDInput) (*sdkmcp.CallToolResult, HistoryOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	records, err := h.svc.Versions.GetHistory(ctx, id.TenantID, id.UserID, in.ProjectID)
	if err != nil {
		return nil, HistoryOutput{}, MapError(err)
	}
	out := HistoryOutput{Versions: make([]VersionOutput, 0, len(records))}
	for i := range records {
		out.Versions = append(out.Versions, toVersionOutput(&records[i]))
	}
	return nil, out, nil
}

func (h *handler) restoreVersion(ctx context.Context, _ *sdkmcp.CallToolRequest, in VersionRefInput) (*sdkmcp.CallToolResult, VersionOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, VersionOutput{}, err
	}
	if err := requireField("version_id", in.VersionID); err != nil {
		return nil, VersionOutput{}, err
	}
	rec, err := h.svc.Versions.RestoreVersion(ctx, id.TenantID, id.UserID, in.ProjectID, in.VersionID)
	if err != nil {
		return nil, VersionOutput{}, MapError(err)
	}
	return nil, toVersionOutput(rec), nil
}

func (h *handler) lockForProduction(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDInput) (*sdkmcp.CallToolResult, VersionOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, VersionOutput{}, err
	}
	rec, err := h.svc.Versions.LockForProduction(ctx, id.TenantID, id.UserID, in.ProjectID)
	if err != nil {
		return nil, VersionOutput{}, MapError(err)
	}
	// Pending edits can no longer land on a locked project.
	h.svc.AutoSave.StopProjectSessions(in.ProjectID)
	return nil, toVersionOutput(rec), nil
}

func (h *handler) getProductionSnapshot(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDInput) (*sdkmcp.CallToolResult, ProductionSnapshotOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, ProductionSnapshotOutput{}, err
	}
	rec, err := h.svc.Versions.GetProductionSnapshot(ctx, id.TenantID, id.UserID, in.ProjectID)
	if err != nil {
		return nil, ProductionSnapshotOutput{}, MapError(err)
	}
	if rec == nil {
		return nil, ProductionSnapshotOutput{Locked: false}, nil
	}
	return nil, ProductionSnapshotOutput{Locked: true, Snapshot: toSnapshotOutput(rec)}, nil
}

// Pages

func (h *handler) initializePages(ctx context.Context, _ *sdkmcp.CallToolRequest, in InitializePagesInput) (*sdkmcp.CallToolResult, ProjectDetailOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, ProjectDetailOutput{}, err
	}
	count := in.Count
	if count == 0 {
		count = h.defaults.InitialCount
	}
	guards := h.defaults.IncludeGuards
	if in.IncludeGuards != nil {
		guards = *in.IncludeGuards
	}
	res, err := h.svc.Pages.InitializeProjectPages(ctx, id.TenantID, id.UserID, in.ProjectID, count, guards)
	return pageResult(res, err)
}

func (h *handler) addPagePair(ctx context.Context, _ *sdkmcp.CallToolRequest, in AddPagePairInput) (*sdkmcp.CallToolResult, ProjectDetailOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, ProjectDetailOutput{}, err
	}
	res, err := h.svc.Pages.AddPagePair(ctx, id.TenantID, id.UserID, in.ProjectID, pages.AddPairRequest{
		Position:   in.Position,
		PageType:   project.PageType(in.PageType),
		TemplateID: in.TemplateID,
	})
	return pageResult(res, err)
}

func (h *handler) removePagePair(ctx context.Context, _ *sdkmcp.CallToolRequest, in PageRefInput) (*sdkmcp.CallToolResult, ProjectDetailOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, ProjectDetailOutput{}, err
	}
	res, err := h.svc.Pages.RemovePagePair(ctx, id.TenantID, id.UserID, in.ProjectID, in.PageID)
	return pageResult(res, err)
}

func (h *handler) reorderPages(ctx context.Context, _ *sdkmcp.CallToolRequest, in ReorderPagesInput) (*sdkmcp.CallToolResult, ProjectDetailOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, ProjectDetailOutput{}, err
	}
	res, err := h.svc.Pages.ReorderPages(ctx, id.TenantID, id.UserID, in.ProjectID, in.PageIDs)
	return pageResult(res, err)
}

func (h *handler) duplicatePage(ctx context.Context, _ *sdkmcp.CallToolRequest, in PageRefInput) (*sdkmcp.CallToolResult, ProjectDetailOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, ProjectDetailOutput{}, err
	}
	res, err := h.svc.Pages.DuplicatePage(ctx, id.TenantID, id.UserID, in.ProjectID, in.PageID)
	return pageResult(res, err)
}

// Spine and cover

func (h *handler) calculateSpine(ctx context.Context, _ *sdkmcp.CallToolRequest, in CalculateSpineInput) (*sdkmcp.CallToolResult, SpineOutput, error) {
	if err := requireField("paper_id", in.PaperID); err != nil {
		return nil, SpineOutput{}, err
	}
	if err := requireField("cover_type_id", in.CoverTypeID); err != nil {
		return nil, SpineOutput{}, err
	}
	if in.PageCount <= 0 {
		return nil, SpineOutput{}, invalidInput("page_count must be positive")
	}
	width, err := h.svc.Spine.SpineWidth(ctx, in.PaperID, in.CoverTypeID, in.PageCount)
	if err != nil {
		return nil, SpineOutput{}, MapError(err)
	}
	return nil, SpineOutput{SpineWidth: width, PageCount: in.PageCount}, nil
}

func (h *handler) getCoverDimensions(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDInput) (*sdkmcp.CallToolResult, CoverOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, CoverOutput{}, err
	}
	proj, err := h.svc.Projects.Get(ctx, id.TenantID, id.UserID, in.ProjectID)
	if err != nil {
		return nil, CoverOutput{}, MapError(err)
	}
	dims := h.svc.Spine.CoverSpread(proj)
	return nil, CoverOutput{
		ProjectID:  proj.ID,
		Width:      dims.Width,
		Height:     dims.Height,
		SpineWidth: proj.SpineWidth,
		Bleed:      proj.Bleed,
	}, nil
}

// Activity

func (h *handler) getRecentActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in RecentActivityInput) (*sdkmcp.CallToolResult, ActivityOutput, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return nil, ActivityOutput{}, err
	}
	opts := activity.ListActivityOptions{ProjectID: in.ProjectID, Limit: in.Limit}
	if in.ActivityType != nil {
		typ := activity.ActivityType(*in.ActivityType)
		if !typ.IsValid() {
			return nil, ActivityOutput{}, invalidInput("unknown activity_type %q", *in.ActivityType)
		}
		opts.ActivityType = &typ
	}
	if in.Since != "" {
		since, err := time.Parse(time.RFC3339, in.Since)
		if err != nil {
			return nil, ActivityOutput{}, invalidInput("since must be an RFC 3339 timestamp")
		}
		opts.Since = &since
	}
	if in.ProjectID != "" {
		// Scope to projects the caller owns.
		if _, err := h.svc.Projects.Get(ctx, id.TenantID, id.UserID, in.ProjectID); err != nil {
			return nil, ActivityOutput{}, MapError(err)
		}
	} else {
		opts.UserID = &id.UserID
	}
	entries, err := h.svc.Activity.GetRecentActivity(ctx, id.TenantID, opts)
	if err != nil {
		return nil, ActivityOutput{}, MapError(err)
	}
	return nil, ActivityOutput{Entries: toActivityOutputs(entries)}, nil
}

// helpers

func (h *handler) checkProject(ctx context.Context, projectID string) (Identity, error) {
	id, err := identityFrom(ctx)
	if err != nil {
		return Identity{}, err
	}
	if err := requireField("project_id", projectID); err != nil {
		return Identity{}, err
	}
	if _, err := h.svc.Projects.Get(ctx, id.TenantID, id.UserID, projectID); err != nil {
		return Identity{}, MapError(err)
	}
	return id, nil
}

func (h *handler) reload(ctx context.Context, id Identity, projectID string) (*sdkmcp.CallToolResult, ProjectDetailOutput, error) {
	proj, pgs, err := h.svc.Projects.GetWithPages(ctx, id.TenantID, id.UserID, projectID)
	if err != nil {
		return nil, ProjectDetailOutput{}, MapError(err)
	}
	return nil, toDetailOutput(proj, pgs), nil
}

func pageResult(res *pages.Result, err error) (*sdkmcp.CallToolResult, ProjectDetailOutput, error) {
	if err != nil {
		return nil, ProjectDetailOutput{}, MapError(err)
	}
	return nil, toDetailOutput(res.Project, res.Pages), nil
}
