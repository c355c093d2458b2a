// Package app assembles the photobook services on top of a database.
package app

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/photobook/internal/config"
	"github.com/rpggio/photobook/internal/domain/activity"
	"github.com/rpggio/photobook/internal/domain/autosave"
	"github.com/rpggio/photobook/internal/domain/catalog"
	"github.com/rpggio/photobook/internal/domain/pages"
	"github.com/rpggio/photobook/internal/domain/project"
	"github.com/rpggio/photobook/internal/domain/spine"
	"github.com/rpggio/photobook/internal/domain/version"
	"github.com/rpggio/photobook/internal/mcp"
	"github.com/rpggio/photobook/internal/sqlite"
	"github.com/rpggio/photobook/internal/transport"
)

// Options carries the optional outbound integrations. Leave a field nil to
// disable it.
type Options struct {
	Publisher autosave.Publisher
	Archiver  version.Archiver
	Logger    *slog.Logger
}

// App holds the wired services.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	Catalog   *catalog.Service
	Projects  *project.Service
	Pages     *pages.Service
	Versions  *version.Service
	Scheduler *autosave.Scheduler
	Spine     *spine.Sizer
	Activity  *activity.Service
	APIKeys   *sqlite.APIKeyRepository
}

// New wires every service against db.
func New(db *sqlite.DB, cfg config.Config, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	activityRepo := sqlite.NewActivityRepository(db)
	catalogSvc := catalog.NewService(sqlite.NewCatalogRepository(db), logger)
	rules := pages.NewRules(catalogSvc)
	sizer := spine.NewSizer(catalogSvc, logger)
	projectSvc := project.NewService(sqlite.NewProjectRepository(db), rules, sizer, catalogSvc, activityRepo, logger)

	policy := version.Policy{
		KeepLatest:   cfg.Versions.KeepLatest,
		MaxAge:       cfg.Versions.MaxAge,
		HistoryLimit: cfg.Versions.HistoryLimit,
	}
	schedulerCfg := autosave.Config{
		Debounce:      cfg.AutoSave.Debounce,
		BaseBackoff:   cfg.AutoSave.BaseBackoff,
		MaxBackoff:    cfg.AutoSave.MaxBackoff,
		MaxRetries:    cfg.AutoSave.MaxRetries,
		SaveTimeout:   cfg.AutoSave.SaveTimeout,
		IdleTimeout:   cfg.AutoSave.IdleTimeout,
		SweepInterval: cfg.AutoSave.SweepInterval,
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		Catalog:   catalogSvc,
		Projects:  projectSvc,
		Pages:     pages.NewService(projectSvc, rules, logger),
		Versions:  version.NewService(sqlite.NewVersionRepository(db), projectSvc, opts.Archiver, activityRepo, policy, logger),
		Scheduler: autosave.NewScheduler(projectSvc, autosave.NewRegistry(), opts.Publisher, activityRepo, schedulerCfg, logger),
		Spine:     sizer,
		Activity:  activity.NewService(activityRepo, logger),
		APIKeys:   sqlite.NewAPIKeyRepository(db),
	}
}

// Services exposes the app to the MCP layer.
func (a *App) Services() mcp.Services {
	return mcp.Services{
		Catalog:  a.Catalog,
		Projects: a.Projects,
		Pages:    a.Pages,
		Versions: a.Versions,
		AutoSave: a.Scheduler,
		Spine:    a.Spine,
		Activity: a.Activity,
	}
}

// MCPServer builds the MCP server for the configured transport.
func (a *App) MCPServer(buildVersion string) *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Services:      a.Services(),
		Resolver:      transport.NewKeyResolver(a.APIKeys),
		AuthEnabled:   a.cfg.Auth.Enabled,
		TransportMode: a.cfg.Transport.Mode,
		DefaultIdentity: mcp.Identity{
			TenantID: a.cfg.Auth.DefaultTenant,
			UserID:   a.cfg.Auth.DefaultUser,
		},
		PageDefaults: mcp.PageDefaults{
			InitialCount:  a.cfg.Pages.InitialCount,
			IncludeGuards: a.cfg.Pages.IncludeGuards,
		},
		Version: buildVersion,
		Logger:  a.logger,
	})
}

// Close stops background autosave work.
func (a *App) Close() {
	a.Scheduler.Close()
}
