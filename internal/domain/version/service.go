package version

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/photobook/internal/domain/activity"
	"github.com/rpggio/photobook/internal/domain/project"
	"github.com/rpggio/photobook/internal/repository"
)

// Service manages version snapshots, restores and the production lock.
type Service struct {
	repo       Repository
	projects   ProjectReader
	archiver   Archiver
	activities project.ActivityLogger
	policy     Policy
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new version service. archiver and activities may be nil.
func NewService(repo Repository, projects ProjectReader, archiver Archiver, activities project.ActivityLogger, policy Policy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if policy.HistoryLimit <= 0 {
		policy.HistoryLimit = DefaultPolicy.HistoryLimit
	}
	return &Service{
		repo:       repo,
		projects:   projects,
		archiver:   archiver,
		activities: activities,
		policy:     policy,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateVersion snapshots the project and its pages as the next version.
// The project's CurrentVersion advances by one; it is not set to the
// record's VersionNumber and the two are generally different.
func (s *Service) CreateVersion(ctx context.Context, tenantID, ownerID, projectID, summary string) (*Record, error) {
	proj, pages, err := s.projects.GetWithPages(ctx, tenantID, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	if summary == "" {
		summary = "Manual save"
	}

	rec, err := s.commit(ctx, tenantID, proj.Clone(), pages, false, uuid.NewString(), summary, false)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, tenantID, ownerID, rec, activity.TypeVersionCreated, fmt.Sprintf("Version %d: %s", rec.VersionNumber, summary))
	s.sweep(ctx, tenantID, projectID)
	return rec, nil
}

// GetHistory returns the most recent versions, newest first.
func (s *Service) GetHistory(ctx context.Context, tenantID, ownerID, projectID string) ([]Record, error) {
	if _, err := s.projects.Get(ctx, tenantID, ownerID, projectID); err != nil {
		return nil, err
	}
	records, err := s.repo.List(ctx, tenantID, projectID, s.policy.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: listing versions: %w", project.ErrTransientStore, err)
	}
	return records, nil
}

// GetVersion fetches one version of a project.
func (s *Service) GetVersion(ctx context.Context, tenantID, ownerID, projectID, versionID string) (*Record, error) {
	if _, err := s.projects.Get(ctx, tenantID, ownerID, projectID); err != nil {
		return nil, err
	}
	return s.get(ctx, tenantID, projectID, versionID)
}

// RestoreVersion replaces the live project with a snapshot and records the
// restore as a new version. The project returns to draft and any lock is
// cleared.
func (s *Service) RestoreVersion(ctx context.Context, tenantID, ownerID, projectID, versionID string) (*Record, error) {
	current, _, err := s.projects.GetWithPages(ctx, tenantID, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	src, err := s.get(ctx, tenantID, projectID, versionID)
	if err != nil {
		return nil, err
	}

	snap := src.Snapshot.Project
	restored := current.Clone()
	restored.Name = snap.Name
	restored.ProductID = snap.ProductID
	restored.FormatID = snap.FormatID
	restored.PaperID = snap.PaperID
	restored.CoverTypeID = snap.CoverTypeID
	restored.SpineWidth = snap.SpineWidth
	restored.Width = snap.Width
	restored.Height = snap.Height
	restored.Bleed = snap.Bleed
	restored.SafeMargin = snap.SafeMargin
	restored.GutterMargin = snap.GutterMargin
	restored.Settings = snap.Settings
	restored.Status = project.StatusDraft
	restored.LockedAt = nil
	restored.LockedVersionID = nil
	restored = restored.Clone()

	pages := project.ClonePages(src.Snapshot.Pages)
	if pages == nil {
		pages = []project.Page{}
	}
	for i := range pages {
		pages[i].ProjectID = current.ID
	}
	restored.PageCount = len(pages)

	summary := fmt.Sprintf("Restored from version %d", src.VersionNumber)
	rec, err := s.commit(ctx, tenantID, restored, pages, true, uuid.NewString(), summary, false)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, tenantID, ownerID, rec, activity.TypeVersionRestored, summary)
	s.sweep(ctx, tenantID, projectID)
	return rec, nil
}

// LockForProduction snapshots the project as its production version and
// freezes it.
func (s *Service) LockForProduction(ctx context.Context, tenantID, ownerID, projectID string) (*Record, error) {
	current, pages, err := s.projects.GetWithPages(ctx, tenantID, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	if current.IsLocked() {
		return nil, ErrAlreadyLocked
	}

	recID := uuid.NewString()
	lockedAt := s.now()
	locked := current.Clone()
	locked.Status = project.StatusLocked
	locked.LockedAt = &lockedAt
	locked.LockedVersionID = &recID

	rec, err := s.commit(ctx, tenantID, locked, pages, false, recID, "Locked for production", true)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, tenantID, ownerID, rec, activity.TypeProductionLocked, fmt.Sprintf("Version %d locked for production", rec.VersionNumber))

	if s.archiver != nil {
		if err := s.archiver.ArchiveSnapshot(ctx, rec); err != nil {
			s.logger.Warn("archiving production snapshot failed", "project_id", projectID, "version_id", rec.ID, "error", err)
		}
	}
	s.sweep(ctx, tenantID, projectID)
	return rec, nil
}

// IsLocked reports whether the project holds a production lock.
func (s *Service) IsLocked(ctx context.Context, tenantID, ownerID, projectID string) (bool, error) {
	proj, err := s.projects.Get(ctx, tenantID, ownerID, projectID)
	if err != nil {
		return false, err
	}
	return proj.IsLocked(), nil
}

// GetProductionSnapshot returns the locked snapshot, or nil when the project
// isn't locked.
func (s *Service) GetProductionSnapshot(ctx context.Context, tenantID, ownerID, projectID string) (*Record, error) {
	proj, err := s.projects.Get(ctx, tenantID, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	if proj.LockedVersionID == nil {
		return nil, nil
	}
	return s.get(ctx, tenantID, projectID, *proj.LockedVersionID)
}

// ApplyRetention deletes expired versions and returns their ids.
func (s *Service) ApplyRetention(ctx context.Context, tenantID, projectID string) ([]string, error) {
	records, err := s.repo.List(ctx, tenantID, projectID, 0)
	if err != nil {
		return nil, fmt.Errorf("listing versions for retention: %w", err)
	}
	expired := SelectExpired(records, s.now(), s.policy)
	if len(expired) == 0 {
		return nil, nil
	}
	if err := s.repo.Delete(ctx, tenantID, projectID, expired); err != nil {
		return nil, fmt.Errorf("deleting expired versions: %w", err)
	}
	return expired, nil
}

func (s *Service) commit(ctx context.Context, tenantID string, next *project.Project, pages []project.Page, replacePages bool, recID, summary string, production bool) (*Record, error) {
	expected := next.CurrentVersion
	now := s.now()
	next.CurrentVersion = expected + 1
	next.UpdatedAt = now

	rec := &Record{
		ID:        recID,
		TenantID:  tenantID,
		ProjectID: next.ID,
		Snapshot: Snapshot{
			Project: *next.Clone(),
			Pages:   project.ClonePages(pages),
		},
		ChangesSummary: summary,
		IsProduction:   production,
		CreatedAt:      now,
	}
	if rec.Snapshot.Pages == nil {
		rec.Snapshot.Pages = []project.Page{}
	}

	var write []project.Page
	if replacePages {
		write = pages
	}
	if err := s.repo.Commit(ctx, tenantID, next, write, rec, expected); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, &project.ConflictError{ProjectID: next.ID, ExpectedVersion: expected, CurrentVersion: s.latestVersion(ctx, tenantID, next)}
		case errors.Is(err, repository.ErrNotFound):
			return nil, project.ErrProjectNotFound
		case errors.Is(err, repository.ErrDuplicate), errors.Is(err, repository.ErrForeignKeyViolation):
			return nil, fmt.Errorf("%w: committing version: %w", project.ErrInvalidInput, err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("committing version: %w", err)
		default:
			return nil, fmt.Errorf("%w: committing version: %w", project.ErrTransientStore, err)
		}
	}
	rec.Snapshot.Project.CurrentVersion = next.CurrentVersion
	return rec, nil
}

func (s *Service) latestVersion(ctx context.Context, tenantID string, proj *project.Project) int64 {
	latest, err := s.projects.Get(ctx, tenantID, proj.OwnerID, proj.ID)
	if err != nil {
		return proj.CurrentVersion - 1
	}
	return latest.CurrentVersion
}

func (s *Service) get(ctx context.Context, tenantID, projectID, versionID string) (*Record, error) {
	rec, err := s.repo.Get(ctx, tenantID, projectID, versionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("%w: getting version: %w", project.ErrTransientStore, err)
	}
	return rec, nil
}

// sweep runs retention after a write. Failures only log; the version itself
// is already committed.
func (s *Service) sweep(ctx context.Context, tenantID, projectID string) {
	deleted, err := s.ApplyRetention(ctx, tenantID, projectID)
	if err != nil {
		s.logger.Warn("version retention failed", "project_id", projectID, "error", err)
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("version retention", "project_id", projectID, "deleted", len(deleted))
	}
}

func (s *Service) logActivity(ctx context.Context, tenantID, ownerID string, rec *Record, typ activity.ActivityType, summary string) {
	if s.activities == nil {
		return
	}
	versionID := rec.ID
	_ = s.activities.Log(ctx, tenantID, &activity.ActivityEntry{
		ProjectID:    rec.ProjectID,
		UserID:       &ownerID,
		VersionID:    &versionID,
		ActivityType: typ,
		Summary:      summary,
		CreatedAt:    rec.CreatedAt,
		Version:      rec.Snapshot.Project.CurrentVersion,
	})
}
