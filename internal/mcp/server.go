package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/photobook/internal/domain/activity"
	"github.com/rpggio/photobook/internal/domain/autosave"
	"github.com/rpggio/photobook/internal/domain/catalog"
	"github.com/rpggio/photobook/internal/domain/pages"
	"github.com/rpggio/photobook/internal/domain/project"
	"github.com/rpggio/photobook/internal/domain/spine"
	"github.com/rpggio/photobook/internal/domain/version"
)

// CatalogService defines catalog operations needed by MCP.
type CatalogService interface {
	List(ctx context.Context) (*catalog.Listing, error)
}

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, tenantID string, req project.CreateRequest) (*project.Project, []project.Page, error)
	Get(ctx context.Context, tenantID, ownerID, id string) (*project.Project, error)
	GetWithPages(ctx context.Context, tenantID, ownerID, id string) (*project.Project, []project.Page, error)
	List(ctx context.Context, tenantID, ownerID string, opts project.ListOptions) ([]project.Summary, error)
	Search(ctx context.Context, tenantID, ownerID, query string, limit int) ([]project.Summary, error)
	Update(ctx context.Context, tenantID string, req project.UpdateRequest) (*project.Project, error)
	Duplicate(ctx context.Context, tenantID, ownerID, projectID string) (*project.Project, []project.Page, error)
	Delete(ctx context.Context, tenantID, ownerID, projectID string) error
}

// PageService defines page structure operations needed by MCP.
type PageService interface {
	InitializeProjectPages(ctx context.Context, tenantID, ownerID, projectID string, count int, includeGuards bool) (*pages.Result, error)
	AddPagePair(ctx context.Context, tenantID, ownerID, projectID string, req pages.AddPairRequest) (*pages.Result, error)
	RemovePagePair(ctx context.Context, tenantID, ownerID, projectID, pageID string) (*pages.Result, error)
	ReorderPages(ctx context.Context, tenantID, ownerID, projectID string, orderedIDs []string) (*pages.Result, error)
	DuplicatePage(ctx context.Context, tenantID, ownerID, projectID, pageID string) (*pages.Result, error)
}

// VersionService defines version history operations needed by MCP.
type VersionService interface {
	CreateVersion(ctx context.Context, tenantID, ownerID, projectID, summary string) (*version.Record, error)
	GetHistory(ctx context.Context, tenantID, ownerID, projectID string) ([]version.Record, error)
	RestoreVersion(ctx context.Context, tenantID, ownerID, projectID, versionID string) (*version.Record, error)
	LockForProduction(ctx context.Context, tenantID, ownerID, projectID string) (*version.Record, error)
	GetProductionSnapshot(ctx context.Context, tenantID, ownerID, projectID string) (*version.Record, error)
}

// AutoSaveService defines editor session operations needed by MCP.
type AutoSaveService interface {
	StartSession(projectID, userID, tenantID string) autosave.SessionInfo
	ScheduleAutoSave(projectID, userID, tenantID string, patch project.Patch) autosave.SessionInfo
	ForceAutoSave(ctx context.Context, projectID, userID, tenantID string, patch *project.Patch, expectedVersion *int64) (*project.Project, error)
	StopSession(projectID, userID string) bool
	StopProjectSessions(projectID string) int
	GetSessionInfo(projectID, userID string) (autosave.SessionInfo, bool)
}

// SpineService defines spine and cover sizing needed by MCP.
type SpineService interface {
	SpineWidth(ctx context.Context, paperID, coverTypeID string, pageCount int) (float64, error)
	CoverSpread(proj *project.Project) spine.Dimensions
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Catalog  CatalogService
	Projects ProjectService
	Pages    PageService
	Versions VersionService
	AutoSave AutoSaveService
	Spine    SpineService
	Activity ActivityService
}

// PageDefaults seed new projects that don't ask for a page layout.
type PageDefaults struct {
	InitialCount  int
	IncludeGuards bool
}

// Config contains server configuration.
type Config struct {
	Services        Services
	Resolver        IdentityResolver
	AuthEnabled     bool
	TransportMode   string // "stdio" or "http"
	DefaultIdentity Identity
	PageDefaults    PageDefaults
	Version         string
	Logger          *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "photobook",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is a local, single-user transport and never authenticates.
	identity := noAuthMiddleware(cfg.DefaultIdentity)
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		identity = authMiddleware(cfg.Resolver)
	}
	// The first middleware is outermost, so traffic logs see the identity.
	server.AddReceivingMiddleware(identity, trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, newHandler(cfg.Services, cfg.PageDefaults, cfg.Logger))

	return server
}
