package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/photobook/internal/domain/activity"
	"github.com/rpggio/photobook/internal/domain/catalog"
	"github.com/rpggio/photobook/internal/repository"
)

// DefaultInitialPageCount is the number of regular pages seeded when a
// create request doesn't ask for a count.
const DefaultInitialPageCount = 20

// Service handles project aggregate operations.
type Service struct {
	repo       Repository
	invariants PageInvariants
	sizer      SpineSizer
	formats    FormatLookup
	activities ActivityLogger
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new project service. sizer, formats and activities
// may be nil.
func NewService(repo Repository, invariants PageInvariants, sizer SpineSizer, formats FormatLookup, activities ActivityLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:       repo,
		invariants: invariants,
		sizer:      sizer,
		formats:    formats,
		activities: activities,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	ID               string
	OwnerID          string
	Name             string
	ProductID        *string
	FormatID         *string
	PaperID          *string
	CoverTypeID      *string
	Settings         map[string]any
	InitialPageCount int
	IncludeGuards    bool
}

// UpdateRequest defines an optimistic-concurrency update. A nil
// ExpectedVersion skips the caller-side version check; the store write is
// still compare-and-swap against the version that was read.
type UpdateRequest struct {
	ProjectID       string
	OwnerID         string
	Patch           Patch
	ExpectedVersion *int64
}

// Create creates a new project and seeds its pages.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Project, []Page, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.OwnerID) == "" {
		return nil, nil, ErrInvalidInput
	}
	if req.InitialPageCount < 0 {
		return nil, nil, fmt.Errorf("%w: negative page count", ErrInvalidInput)
	}

	id := req.ID
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	now := s.now()
	proj := &Project{
		ID:          id,
		TenantID:    tenantID,
		OwnerID:     req.OwnerID,
		Name:        req.Name,
		Status:      StatusDraft,
		ProductID:   nonEmpty(req.ProductID),
		FormatID:    nonEmpty(req.FormatID),
		PaperID:     nonEmpty(req.PaperID),
		CoverTypeID: nonEmpty(req.CoverTypeID),
		Settings:    cloneMap(req.Settings),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if proj.Settings == nil {
		proj.Settings = map[string]any{}
	}
	if err := s.applyFormat(ctx, proj); err != nil {
		return nil, nil, err
	}

	count := req.InitialPageCount
	if count == 0 {
		count = DefaultInitialPageCount
	}
	pages, err := s.invariants.InitialPages(ctx, proj, count, req.IncludeGuards)
	if err != nil {
		return nil, nil, err
	}
	proj.PageCount = len(pages)
	if err := s.recalculateSpine(ctx, proj); err != nil {
		return nil, nil, err
	}

	if err := s.repo.Create(ctx, tenantID, proj, pages); err != nil {
		return nil, nil, s.storeError("creating project", err)
	}

	s.logActivity(ctx, tenantID, proj, activity.TypeProjectCreated, fmt.Sprintf("Created %q with %d pages", proj.Name, proj.PageCount))
	return proj, pages, nil
}

// Get fetches a project by ID for its owner.
func (s *Service) Get(ctx context.Context, tenantID, ownerID, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, tenantID, ownerID, id)
	if err != nil {
		return nil, s.storeError("getting project", err)
	}
	return proj, nil
}

// GetWithPages fetches a project and its pages in page order.
func (s *Service) GetWithPages(ctx context.Context, tenantID, ownerID, id string) (*Project, []Page, error) {
	proj, err := s.Get(ctx, tenantID, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	pages, err := s.repo.ListPages(ctx, tenantID, proj.ID)
	if err != nil {
		return nil, nil, s.storeError("listing pages", err)
	}
	return proj, pages, nil
}

// List returns project summaries for an owner.
func (s *Service) List(ctx context.Context, tenantID, ownerID string, opts ListOptions) ([]Summary, error) {
	list, err := s.repo.List(ctx, tenantID, ownerID, opts)
	if err != nil {
		return nil, s.storeError("listing projects", err)
	}
	return list, nil
}

// Search finds an owner's projects by name.
func (s *Service) Search(ctx context.Context, tenantID, ownerID, query string, limit int) ([]Summary, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidInput)
	}
	list, err := s.repo.Search(ctx, tenantID, ownerID, query, limit)
	if err != nil {
		return nil, s.storeError("searching projects", err)
	}
	return list, nil
}

// Update applies a patch under optimistic concurrency and bumps
// CurrentVersion by exactly one. Without an ExpectedVersion the write is
// last-writer-wins: a lost compare-and-swap is reapplied once on the fresh
// row before it surfaces as a conflict.
func (s *Service) Update(ctx context.Context, tenantID string, req UpdateRequest) (*Project, error) {
	next, current, err := s.tryUpdate(ctx, tenantID, req)
	if errors.Is(err, repository.ErrConflict) && req.ExpectedVersion == nil {
		s.logger.Debug("unchecked update lost race, reapplying", "tenant_id", tenantID, "project_id", req.ProjectID)
		next, current, err = s.tryUpdate(ctx, tenantID, req)
	}
	if errors.Is(err, repository.ErrConflict) {
		return nil, s.lostRace(ctx, tenantID, req.OwnerID, current)
	}
	if err != nil {
		return nil, err
	}

	if req.Patch.Pages != nil {
		s.logActivity(ctx, tenantID, next, activity.TypePagesChanged, fmt.Sprintf("Page layout now has %d pages", next.PageCount))
	} else {
		s.logActivity(ctx, tenantID, next, activity.TypeProjectUpdated, "Project updated")
	}

	s.logger.Debug("project updated", "tenant_id", tenantID, "project_id", next.ID, "version", next.CurrentVersion)
	return next, nil
}

// tryUpdate makes one compare-and-swap attempt. A lost race comes back as
// repository.ErrConflict together with the row the attempt was based on.
func (s *Service) tryUpdate(ctx context.Context, tenantID string, req UpdateRequest) (*Project, *Project, error) {
	current, err := s.Get(ctx, tenantID, req.OwnerID, req.ProjectID)
	if err != nil {
		return nil, nil, err
	}

	if req.ExpectedVersion != nil && *req.ExpectedVersion != current.CurrentVersion {
		s.logActivity(ctx, tenantID, current, activity.TypeConflictDetected,
			fmt.Sprintf("Rejected write at version %d; current is %d", *req.ExpectedVersion, current.CurrentVersion))
		return nil, nil, &ConflictError{
			ProjectID:       current.ID,
			ExpectedVersion: *req.ExpectedVersion,
			CurrentVersion:  current.CurrentVersion,
		}
	}

	patch := req.Patch
	if current.IsLocked() && patch.TouchesContent() {
		return nil, nil, ErrProjectLocked
	}
	if patch.Status != nil {
		if err := checkStatusChange(current, *patch.Status); err != nil {
			return nil, nil, err
		}
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}

	next := current.Clone()
	if err := s.applyPatch(ctx, next, patch); err != nil {
		return nil, nil, err
	}

	var pages []Page
	if patch.Pages != nil {
		before, err := s.repo.ListPages(ctx, tenantID, current.ID)
		if err != nil {
			return nil, nil, s.storeError("listing pages", err)
		}
		pages = normalizePages(next.ID, patch.Pages)
		if err := s.invariants.ValidateStructure(ctx, next, before, pages); err != nil {
			return nil, nil, err
		}
		next.PageCount = len(pages)
	}

	if err := s.recalculateSpine(ctx, next); err != nil {
		return nil, nil, err
	}
	next.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, tenantID, next, pages, current.CurrentVersion); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, current, repository.ErrConflict
		}
		return nil, nil, s.storeError("saving project", err)
	}
	return next, current, nil
}

// Duplicate deep-copies a project, including its pages, under a fresh id
// starting again at version zero.
func (s *Service) Duplicate(ctx context.Context, tenantID, ownerID, projectID string) (*Project, []Page, error) {
	src, srcPages, err := s.GetWithPages(ctx, tenantID, ownerID, projectID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	dup := src.Clone()
	dup.ID = uuid.NewString()
	dup.Name = src.Name + " (copy)"
	dup.Status = StatusDraft
	dup.CurrentVersion = 0
	dup.LockedAt = nil
	dup.LockedVersionID = nil
	dup.CreatedAt = now
	dup.UpdatedAt = now

	spreads := make(map[string]string)
	pages := make([]Page, len(srcPages))
	for i, p := range srcPages {
		cp := p.Clone()
		cp.ID = uuid.NewString()
		cp.ProjectID = dup.ID
		spread, ok := spreads[p.SpreadID]
		if !ok {
			spread = uuid.NewString()
			spreads[p.SpreadID] = spread
		}
		cp.SpreadID = spread
		pages[i] = cp
	}

	if err := s.repo.Create(ctx, tenantID, dup, pages); err != nil {
		return nil, nil, s.storeError("duplicating project", err)
	}

	s.logActivity(ctx, tenantID, dup, activity.TypeProjectDuplicated, fmt.Sprintf("Duplicated from %s", src.ID))
	return dup, pages, nil
}

// Delete removes a project with its pages and version history.
func (s *Service) Delete(ctx context.Context, tenantID, ownerID, projectID string) error {
	proj, err := s.Get(ctx, tenantID, ownerID, projectID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tenantID, ownerID, projectID); err != nil {
		return s.storeError("deleting project", err)
	}
	s.logActivity(ctx, tenantID, proj, activity.TypeProjectDeleted, fmt.Sprintf("Deleted %q", proj.Name))
	return nil
}

func (s *Service) applyPatch(ctx context.Context, proj *Project, patch Patch) error {
	if patch.Name != nil {
		proj.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Status != nil {
		proj.Status = *patch.Status
	}
	if patch.ProductID != nil {
		proj.ProductID = nonEmpty(patch.ProductID)
	}
	if patch.FormatID != nil {
		proj.FormatID = nonEmpty(patch.FormatID)
		if err := s.applyFormat(ctx, proj); err != nil {
			return err
		}
	}
	if patch.PaperID != nil {
		proj.PaperID = nonEmpty(patch.PaperID)
	}
	if patch.CoverTypeID != nil {
		proj.CoverTypeID = nonEmpty(patch.CoverTypeID)
	}
	for _, dim := range []struct {
		src *float64
		dst *float64
	}{
		{patch.Width, &proj.Width},
		{patch.Height, &proj.Height},
		{patch.Bleed, &proj.Bleed},
		{patch.SafeMargin, &proj.SafeMargin},
		{patch.GutterMargin, &proj.GutterMargin},
	} {
		if dim.src == nil {
			continue
		}
		if *dim.src < 0 {
			return fmt.Errorf("%w: negative dimension", ErrInvalidInput)
		}
		*dim.dst = *dim.src
	}
	if patch.Settings != nil {
		proj.Settings = cloneMap(patch.Settings)
	}
	return nil
}

// applyFormat copies the trim size and margins of the bound format.
func (s *Service) applyFormat(ctx context.Context, proj *Project) error {
	if proj.FormatID == nil || s.formats == nil {
		return nil
	}
	f, err := s.formats.Format(ctx, *proj.FormatID)
	if err != nil {
		return catalogError(err)
	}
	proj.Width = f.WidthMM
	proj.Height = f.HeightMM
	proj.Bleed = f.BleedMM
	proj.SafeMargin = f.SafeMarginMM
	proj.GutterMargin = f.GutterMarginMM
	return nil
}

func (s *Service) recalculateSpine(ctx context.Context, proj *Project) error {
	if s.sizer == nil || proj.PaperID == nil || proj.CoverTypeID == nil {
		return nil
	}
	width, err := s.sizer.SpineWidth(ctx, *proj.PaperID, *proj.CoverTypeID, proj.PageCount)
	if err != nil {
		return catalogError(err)
	}
	proj.SpineWidth = width
	return nil
}

// lostRace builds the conflict for a write that lost the compare-and-swap
// to a concurrent writer after the version check passed.
func (s *Service) lostRace(ctx context.Context, tenantID, ownerID string, read *Project) error {
	conflict := &ConflictError{ProjectID: read.ID, ExpectedVersion: read.CurrentVersion, CurrentVersion: read.CurrentVersion}
	if latest, err := s.repo.Get(ctx, tenantID, ownerID, read.ID); err == nil {
		conflict.CurrentVersion = latest.CurrentVersion
	}
	s.logActivity(ctx, tenantID, read, activity.TypeConflictDetected, "Concurrent write detected while saving")
	return conflict
}

func (s *Service) storeError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrProjectNotFound
	case errors.Is(err, repository.ErrInvalidInput), errors.Is(err, repository.ErrForeignKeyViolation), errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %s: %w", ErrInvalidInput, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrTransientStore, op, err)
	}
}

func (s *Service) logActivity(ctx context.Context, tenantID string, proj *Project, typ activity.ActivityType, summary string) {
	if s.activities == nil {
		return
	}
	owner := proj.OwnerID
	_ = s.activities.Log(ctx, tenantID, &activity.ActivityEntry{
		ProjectID:    proj.ID,
		UserID:       &owner,
		ActivityType: typ,
		Summary:      summary,
		CreatedAt:    s.now(),
		Version:      proj.CurrentVersion,
	})
}

func checkStatusChange(current *Project, next Status) error {
	if !next.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, next)
	}
	if next == StatusLocked {
		return fmt.Errorf("%w: projects are locked through the production lock", ErrInvalidOperation)
	}
	if current.IsLocked() {
		switch next {
		case StatusProduction, StatusSubmitted, StatusCompleted:
			return nil
		default:
			return ErrProjectLocked
		}
	}
	return nil
}

func catalogError(err error) error {
	if errors.Is(err, catalog.ErrFormatNotFound) || errors.Is(err, catalog.ErrPaperNotFound) || errors.Is(err, catalog.ErrCoverTypeNotFound) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return fmt.Errorf("%w: catalog lookup: %w", ErrTransientStore, err)
}

// normalizePages fills defaults on incoming pages without reordering them.
func normalizePages(projectID string, in []Page) []Page {
	pages := ClonePages(in)
	for i := range pages {
		pages[i].ProjectID = projectID
		if strings.TrimSpace(pages[i].ID) == "" {
			pages[i].ID = uuid.NewString()
		}
		if pages[i].PageType == "" {
			pages[i].PageType = PageRegular
		}
		if pages[i].Elements == nil {
			pages[i].Elements = []Element{}
		}
	}
	return pages
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
