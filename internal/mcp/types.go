package mcp

import (
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/photobook/internal/domain/activity"
	"github.com/rpggio/photobook/internal/domain/autosave"
	"github.com/rpggio/photobook/internal/domain/catalog"
	"github.com/rpggio/photobook/internal/domain/pages"
	"github.com/rpggio/photobook/internal/domain/project"
	"github.com/rpggio/photobook/internal/domain/version"
)

// Tool inputs

type ListCatalogInput struct{}

type CreateProjectInput struct {
	Name             string         `json:"name" jsonschema:"Project display name"`
	ProductID        *string        `json:"product_id,omitempty" jsonschema:"Product identifier"`
	FormatID         *string        `json:"format_id,omitempty" jsonschema:"Format id from list_catalog; sets trim size and page limits"`
	PaperID          *string        `json:"paper_id,omitempty" jsonschema:"Paper id from list_catalog"`
	CoverTypeID      *string        `json:"cover_type_id,omitempty" jsonschema:"Cover type id from list_catalog"`
	Settings         map[string]any `json:"settings,omitempty" jsonschema:"Free-form editor settings"`
	InitialPageCount *int           `json:"initial_page_count,omitempty" jsonschema:"Number of content pages to seed (rounded up to a pair)"`
	IncludeGuards    *bool          `json:"include_guards,omitempty" jsonschema:"Add front and back guard pages"`
}

type ProjectIDInput struct {
	ProjectID string `json:"project_id" jsonschema:"Project ID"`
}

type ListProjectsInput struct {
	Status *string `json:"status,omitempty" jsonschema:"Only projects in this status"`
	Limit  int     `json:"limit,omitempty" jsonschema:"Maximum number of results"`
	Offset int     `json:"offset,omitempty" jsonschema:"Offset for pagination"`
}

type SearchProjectsInput struct {
	Query string `json:"query" jsonschema:"Words to match against project names"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results"`
}

// ElementInput is a layout element on a page.
type ElementInput struct {
	ID     string         `json:"id,omitempty" jsonschema:"Element ID (generated when empty)"`
	Type   string         `json:"type" jsonschema:"photo, text or shape"`
	X      float64        `json:"x,omitempty"`
	Y      float64        `json:"y,omitempty"`
	Width  float64        `json:"width,omitempty"`
	Height float64        `json:"height,omitempty"`
	ZIndex int            `json:"z_index,omitempty"`
	Props  map[string]any `json:"props,omitempty" jsonschema:"Element-specific properties such as image URL or text"`
}

// PageInput is one page of a full page list.
type PageInput struct {
	ID              string         `json:"id,omitempty" jsonschema:"Existing page ID; new pages may omit it"`
	PageType        string         `json:"page_type,omitempty" jsonschema:"regular, title, dedication, guard_front or guard_back"`
	SpreadID        string         `json:"spread_id,omitempty" jsonschema:"Pages sharing a spread form a pair"`
	TemplateID      *string        `json:"template_id,omitempty"`
	BackgroundColor string         `json:"background_color,omitempty"`
	Elements        []ElementInput `json:"elements,omitempty"`
}

// ChangesInput is a partial project update. Omitted fields are unchanged.
type ChangesInput struct {
	Name         *string        `json:"name,omitempty"`
	Status       *string        `json:"status,omitempty" jsonschema:"New lifecycle status"`
	ProductID    *string        `json:"product_id,omitempty"`
	FormatID     *string        `json:"format_id,omitempty" jsonschema:"Empty string clears the format"`
	PaperID      *string        `json:"paper_id,omitempty" jsonschema:"Empty string clears the paper"`
	CoverTypeID  *string        `json:"cover_type_id,omitempty" jsonschema:"Empty string clears the cover type"`
	Width        *float64       `json:"width,omitempty"`
	Height       *float64       `json:"height,omitempty"`
	Bleed        *float64       `json:"bleed,omitempty"`
	SafeMargin   *float64       `json:"safe_margin,omitempty"`
	GutterMargin *float64       `json:"gutter_margin,omitempty"`
	Settings     map[string]any `json:"settings,omitempty"`
	Pages        []PageInput    `json:"pages,omitempty" jsonschema:"Full ordered page list replacing the current one"`
}

type UpdateProjectInput struct {
	ProjectID       string       `json:"project_id" jsonschema:"Project ID"`
	ExpectedVersion *int64       `json:"expected_version,omitempty" jsonschema:"Reject the update unless the project is at this version"`
	Changes         ChangesInput `json:"changes" jsonschema:"Fields to change"`
}

type ScheduleAutosaveInput struct {
	ProjectID string       `json:"project_id" jsonschema:"Project ID"`
	Changes   ChangesInput `json:"changes" jsonschema:"Latest editor state; replaces any pending changes"`
}

type ForceAutosaveInput struct {
	ProjectID       string        `json:"project_id" jsonschema:"Project ID"`
	Changes         *ChangesInput `json:"changes,omitempty" jsonschema:"Changes to save now instead of the pending ones"`
	ExpectedVersion *int64        `json:"expected_version,omitempty" jsonschema:"Reject the save unless the project is at this version"`
}

type CreateVersionInput struct {
	ProjectID string `json:"project_id" jsonschema:"Project ID"`
	Summary   string `json:"summary,omitempty" jsonschema:"What changed since the last version"`
}

type VersionRefInput struct {
	ProjectID string `json:"project_id" jsonschema:"Project ID"`
	VersionID string `json:"version_id" jsonschema:"Version ID from get_version_history"`
}

type InitializePagesInput struct {
	ProjectID     string `json:"project_id" jsonschema:"Project ID"`
	Count         int    `json:"count,omitempty" jsonschema:"Number of content pages"`
	IncludeGuards *bool  `json:"include_guards,omitempty" jsonschema:"Add front and back guard pages"`
}

type AddPagePairInput struct {
	ProjectID  string  `json:"project_id" jsonschema:"Project ID"`
	Position   int     `json:"position,omitempty" jsonschema:"1-based page number the first new page takes; omit to append"`
	PageType   string  `json:"page_type,omitempty" jsonschema:"regular, title or dedication"`
	TemplateID *string `json:"template_id,omitempty"`
}

type PageRefInput struct {
	ProjectID string `json:"project_id" jsonschema:"Project ID"`
	PageID    string `json:"page_id" jsonschema:"Page ID"`
}

type ReorderPagesInput struct {
	ProjectID string   `json:"project_id" jsonschema:"Project ID"`
	PageIDs   []string `json:"page_ids" jsonschema:"Every page ID in the new order, guards first and last"`
}

type CalculateSpineInput struct {
	PaperID     string `json:"paper_id" jsonschema:"Paper id from list_catalog"`
	CoverTypeID string `json:"cover_type_id" jsonschema:"Cover type id from list_catalog"`
	PageCount   int    `json:"page_count" jsonschema:"Total page count"`
}

type RecentActivityInput struct {
	ProjectID    string  `json:"project_id,omitempty" jsonschema:"Only activity for this project"`
	ActivityType *string `json:"activity_type,omitempty" jsonschema:"Only this kind of activity, e.g. version_created"`
	Since        string  `json:"since,omitempty" jsonschema:"RFC 3339 timestamp; only activity at or after it"`
	Limit        int     `json:"limit,omitempty" jsonschema:"Maximum number of entries"`
}

// Tool outputs

type CatalogOutput struct {
	Formats    []catalog.Format    `json:"formats"`
	Papers     []catalog.Paper     `json:"papers"`
	CoverTypes []catalog.CoverType `json:"cover_types"`
}

type ProjectOutput struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Status          string         `json:"status"`
	ProductID       string         `json:"product_id,omitempty"`
	FormatID        string         `json:"format_id,omitempty"`
	PaperID         string         `json:"paper_id,omitempty"`
	CoverTypeID     string         `json:"cover_type_id,omitempty"`
	PageCount       int            `json:"page_count"`
	SpineWidth      float64        `json:"spine_width_mm"`
	Width           float64        `json:"width_mm"`
	Height          float64        `json:"height_mm"`
	Bleed           float64        `json:"bleed_mm"`
	SafeMargin      float64        `json:"safe_margin_mm"`
	GutterMargin    float64        `json:"gutter_margin_mm"`
	Settings        map[string]any `json:"settings"`
	CurrentVersion  int64          `json:"current_version"`
	LockedAt        string         `json:"locked_at,omitempty"`
	LockedVersionID string         `json:"locked_version_id,omitempty"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
}

type PageOutput struct {
	ID              string            `json:"id"`
	PageNumber      int               `json:"page_number"`
	PageType        string            `json:"page_type"`
	SpreadID        string            `json:"spread_id"`
	TemplateID      string            `json:"template_id,omitempty"`
	BackgroundColor string            `json:"background_color,omitempty"`
	Elements        []project.Element `json:"elements"`
}

type ProjectDetailOutput struct {
	Project          ProjectOutput `json:"project"`
	Pages            []PageOutput  `json:"pages"`
	DisplayPageCount int           `json:"display_page_count"`
}

type ProjectSummaryOutput struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	PageCount      int    `json:"page_count"`
	CurrentVersion int64  `json:"current_version"`
	UpdatedAt      string `json:"updated_at"`
}

type ProjectListOutput struct {
	Projects []ProjectSummaryOutput `json:"projects"`
}

type DeleteProjectOutput struct {
	Deleted        bool `json:"deleted"`
	ClosedSessions int  `json:"closed_sessions"`
}

type SessionOutput struct {
	ProjectID         string `json:"project_id"`
	State             string `json:"state"`
	HasPendingChanges bool   `json:"has_pending_changes"`
	RetryCount        int    `json:"retry_count"`
	LastSave          string `json:"last_save,omitempty"`
	LastActivity      string `json:"last_activity"`
	LastError         string `json:"last_error,omitempty"`
	FailedAt          string `json:"failed_at,omitempty"`
	LastVersion       int64  `json:"last_version"`
}

type CloseSessionOutput struct {
	Closed bool `json:"closed"`
}

type VersionOutput struct {
	ID             string `json:"id"`
	VersionNumber  int64  `json:"version_number"`
	ChangesSummary string `json:"changes_summary"`
	IsProduction   bool   `json:"is_production"`
	ProjectName    string `json:"project_name"`
	PageCount      int    `json:"page_count"`
	CreatedAt      string `json:"created_at"`
}

type HistoryOutput struct {
	Versions []VersionOutput `json:"versions"`
}

type SnapshotOutput struct {
	Version VersionOutput `json:"version"`
	Project ProjectOutput `json:"project"`
	Pages   []PageOutput  `json:"pages"`
}

type ProductionSnapshotOutput struct {
	Locked   bool            `json:"locked"`
	Snapshot *SnapshotOutput `json:"snapshot,omitempty"`
}

type SpineOutput struct {
	SpineWidth float64 `json:"spine_width_mm"`
	PageCount  int     `json:"page_count"`
}

type CoverOutput struct {
	ProjectID  string  `json:"project_id"`
	Width      float64 `json:"width_mm"`
	Height     float64 `json:"height_mm"`
	SpineWidth float64 `json:"spine_width_mm"`
	Bleed      float64 `json:"bleed_mm"`
}

type ActivityEntryOutput struct {
	ProjectID    string `json:"project_id"`
	UserID       string `json:"user_id,omitempty"`
	VersionID    string `json:"version_id,omitempty"`
	ActivityType string `json:"activity_type"`
	Summary      string `json:"summary"`
	Version      int64  `json:"version"`
	CreatedAt    string `json:"created_at"`
}

type ActivityOutput struct {
	Entries []ActivityEntryOutput `json:"entries"`
}

// Conversions

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toProjectOutput(p *project.Project) ProjectOutput {
	settings := p.Settings
	if settings == nil {
		settings = map[string]any{}
	}
	return ProjectOutput{
		ID:              p.ID,
		Name:            p.Name,
		Status:          string(p.Status),
		ProductID:       deref(p.ProductID),
		FormatID:        deref(p.FormatID),
		PaperID:         deref(p.PaperID),
		CoverTypeID:     deref(p.CoverTypeID),
		PageCount:       p.PageCount,
		SpineWidth:      p.SpineWidth,
		Width:           p.Width,
		Height:          p.Height,
		Bleed:           p.Bleed,
		SafeMargin:      p.SafeMargin,
		GutterMargin:    p.GutterMargin,
		Settings:        settings,
		CurrentVersion:  p.CurrentVersion,
		LockedAt:        formatTimePtr(p.LockedAt),
		LockedVersionID: deref(p.LockedVersionID),
		CreatedAt:       formatTime(p.CreatedAt),
		UpdatedAt:       formatTime(p.UpdatedAt),
	}
}

func toPageOutputs(in []project.Page) []PageOutput {
	out := make([]PageOutput, 0, len(in))
	for _, p := range in {
		elements := p.Elements
		if elements == nil {
			elements = []project.Element{}
		}
		out = append(out, PageOutput{
			ID:              p.ID,
			PageNumber:      p.PageNumber,
			PageType:        string(p.PageType),
			SpreadID:        p.SpreadID,
			TemplateID:      deref(p.TemplateID),
			BackgroundColor: p.BackgroundColor,
			Elements:        elements,
		})
	}
	return out
}

func toDetailOutput(p *project.Project, pgs []project.Page) ProjectDetailOutput {
	return ProjectDetailOutput{
		Project:          toProjectOutput(p),
		Pages:            toPageOutputs(pgs),
		DisplayPageCount: pages.DisplayPageCount(pgs),
	}
}

func toSummaryOutputs(in []project.Summary) []ProjectSummaryOutput {
	out := make([]ProjectSummaryOutput, 0, len(in))
	for _, s := range in {
		out = append(out, ProjectSummaryOutput{
			ID:             s.ID,
			Name:           s.Name,
			Status:         string(s.Status),
			PageCount:      s.PageCount,
			CurrentVersion: s.CurrentVersion,
			UpdatedAt:      formatTime(s.UpdatedAt),
		})
	}
	return out
}

func toSessionOutput(info autosave.SessionInfo) SessionOutput {
	return SessionOutput{
		ProjectID:         info.ProjectID,
		State:             string(info.State),
		HasPendingChanges: info.HasPendingChanges,
		RetryCount:        info.RetryCount,
		LastSave:          formatTimePtr(info.LastSave),
		LastActivity:      formatTime(info.LastActivity),
		LastError:         info.LastError,
		FailedAt:          formatTimePtr(info.FailedAt),
		LastVersion:       info.LastVersion,
	}
}

func toVersionOutput(rec *version.Record) VersionOutput {
	return VersionOutput{
		ID:             rec.ID,
		VersionNumber:  rec.VersionNumber,
		ChangesSummary: rec.ChangesSummary,
		IsProduction:   rec.IsProduction,
		ProjectName:    rec.Snapshot.Project.Name,
		PageCount:      len(rec.Snapshot.Pages),
		CreatedAt:      formatTime(rec.CreatedAt),
	}
}

func toSnapshotOutput(rec *version.Record) *SnapshotOutput {
	return &SnapshotOutput{
		Version: toVersionOutput(rec),
		Project: toProjectOutput(&rec.Snapshot.Project),
		Pages:   toPageOutputs(rec.Snapshot.Pages),
	}
}

func toActivityOutputs(in []activity.ActivityEntry) []ActivityEntryOutput {
	out := make([]ActivityEntryOutput, 0, len(in))
	for _, e := range in {
		out = append(out, ActivityEntryOutput{
			ProjectID:    e.ProjectID,
			UserID:       deref(e.UserID),
			VersionID:    deref(e.VersionID),
			ActivityType: string(e.ActivityType),
			Summary:      e.Summary,
			Version:      e.Version,
			CreatedAt:    formatTime(e.CreatedAt),
		})
	}
	return out
}

func (in ChangesInput) toPatch() (project.Patch, error) {
	patch := project.Patch{
		Name:         in.Name,
		ProductID:    in.ProductID,
		FormatID:     in.FormatID,
		PaperID:      in.PaperID,
		CoverTypeID:  in.CoverTypeID,
		Width:        in.Width,
		Height:       in.Height,
		Bleed:        in.Bleed,
		SafeMargin:   in.SafeMargin,
		GutterMargin: in.GutterMargin,
		Settings:     in.Settings,
	}
	if in.Status != nil {
		status := project.Status(*in.Status)
		if !status.IsValid() {
			return project.Patch{}, invalidInput("unknown status %q", *in.Status)
		}
		patch.Status = &status
	}
	if in.Pages != nil {
		patch.Pages = make([]project.Page, 0, len(in.Pages))
		for i, p := range in.Pages {
			page, err := p.toPage()
			if err != nil {
				return project.Patch{}, err
			}
			page.PageNumber = i + 1
			patch.Pages = append(patch.Pages, page)
		}
	}
	return patch, nil
}

func (in PageInput) toPage() (project.Page, error) {
	typ := project.PageType(in.PageType)
	if typ == "" {
		typ = project.PageRegular
	}
	if !typ.IsValid() {
		return project.Page{}, invalidInput("unknown page type %q", in.PageType)
	}
	elements := make([]project.Element, 0, len(in.Elements))
	for _, e := range in.Elements {
		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		elements = append(elements, project.Element{
			ID:     id,
			Type:   project.ElementType(e.Type),
			Frame:  project.Frame{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height},
			ZIndex: e.ZIndex,
			Props:  e.Props,
		})
	}
	return project.Page{
		ID:              in.ID,
		PageType:        typ,
		SpreadID:        in.SpreadID,
		TemplateID:      in.TemplateID,
		BackgroundColor: in.BackgroundColor,
		Elements:        elements,
	}, nil
}
