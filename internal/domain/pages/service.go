package pages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/rpggio/photobook/internal/domain/project"
)

// Aggregate is the project write path every page operation commits through.
type Aggregate interface {
	GetWithPages(ctx context.Context, tenantID, ownerID, id string) (*project.Project, []project.Page, error)
	Update(ctx context.Context, tenantID string, req project.UpdateRequest) (*project.Project, error)
}

// Service performs page-pair operations.
type Service struct {
	aggregate Aggregate
	rules     *Rules
	logger    *slog.Logger
}

// NewService creates a new page service.
func NewService(aggregate Aggregate, rules *Rules, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{aggregate: aggregate, rules: rules, logger: logger}
}

// Result is the project and its pages after a page operation.
type Result struct {
	Project *project.Project `json:"project"`
	Pages   []project.Page   `json:"pages"`
}

// AddPairRequest describes a page pair insertion. Position is the 1-based
// page number the first new page takes; zero or out-of-range positions
// append before the back guard.
type AddPairRequest struct {
	Position   int
	PageType   project.PageType
	TemplateID *string
}

// AddPagePair inserts two pages sharing a new spread.
func (s *Service) AddPagePair(ctx context.Context, tenantID, ownerID, projectID string, req AddPairRequest) (*Result, error) {
	proj, current, err := s.aggregate.GetWithPages(ctx, tenantID, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	typ := req.PageType
	if typ == "" {
		typ = project.PageRegular
	}
	if !typ.IsValid() || typ.IsGuard() {
		return nil, fmt.Errorf("%w: cannot add pages of type %q", ErrInvalidPage, typ)
	}
	lim, err := s.rules.Limits(ctx, proj)
	if err != nil {
		return nil, err
	}
	if len(current)+2 > lim.MaxPages {
		return nil, fmt.Errorf("%w: maximum is %d pages", ErrPageLimit, lim.MaxPages)
	}

	at := insertionIndex(current, req.Position)
	spread := uuid.NewString()
	pair := make([]project.Page, 2)
	for i := range pair {
		p := newPage(proj.ID, typ, spread)
		if req.TemplateID != nil {
			id := *req.TemplateID
			p.TemplateID = &id
		}
		pair[i] = p
	}

	next := make([]project.Page, 0, len(current)+2)
	next = append(next, project.ClonePages(current[:at])...)
	next = append(next, pair...)
	next = append(next, project.ClonePages(current[at:])...)
	return s.commit(ctx, tenantID, ownerID, proj, Renumber(next))
}

// RemovePagePair removes a page together with the other half of its spread.
func (s *Service) RemovePagePair(ctx context.Context, tenantID, ownerID, projectID, pageID string) (*Result, error) {
	proj, current, err := s.aggregate.GetWithPages(ctx, tenantID, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(current, pageID)
	if idx < 0 {
		return nil, ErrPageNotFound
	}
	if current[idx].PageType.IsGuard() {
		return nil, ErrGuardPage
	}
	lim, err := s.rules.Limits(ctx, proj)
	if err != nil {
		return nil, err
	}
	if len(current)-2 < lim.MinPages {
		return nil, fmt.Errorf("%w: minimum is %d pages", ErrPageLimit, lim.MinPages)
	}

	partner := partnerIndex(current, idx)
	if partner < 0 {
		return nil, ErrNoPartner
	}

	next := make([]project.Page, 0, len(current)-2)
	for i, p := range current {
		if i == idx || i == partner {
			continue
		}
		next = append(next, p.Clone())
	}
	return s.commit(ctx, tenantID, ownerID, proj, Renumber(next))
}

// ReorderPages reassigns page numbers to follow orderedIDs. Page content is
// untouched.
func (s *Service) ReorderPages(ctx context.Context, tenantID, ownerID, projectID string, orderedIDs []string) (*Result, error) {
	proj, current, err := s.aggregate.GetWithPages(ctx, tenantID, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	if len(orderedIDs) != len(current) {
		return nil, fmt.Errorf("%w: got %d ids for %d pages", ErrPageSetMismatch, len(orderedIDs), len(current))
	}
	byID := make(map[string]project.Page, len(current))
	for _, p := range current {
		byID[p.ID] = p
	}

	next := make([]project.Page, 0, len(current))
	used := make(map[string]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown page %s", ErrPageSetMismatch, id)
		}
		if _, dup := used[id]; dup {
			return nil, fmt.Errorf("%w: page %s listed twice", ErrPageSetMismatch, id)
		}
		used[id] = struct{}{}
		next = append(next, p.Clone())
	}
	for i, p := range next {
		if p.PageType == project.PageGuardFront && i != 0 {
			return nil, fmt.Errorf("%w: front guard must stay first", ErrGuardPage)
		}
		if p.PageType == project.PageGuardBack && i != len(next)-1 {
			return nil, fmt.Errorf("%w: back guard must stay last", ErrGuardPage)
		}
	}
	return s.commit(ctx, tenantID, ownerID, proj, Renumber(next))
}

// DuplicatePage inserts an exact copy of a page plus a blank page directly
// after it. The two new pages form their own spread.
func (s *Service) DuplicatePage(ctx context.Context, tenantID, ownerID, projectID, pageID string) (*Result, error) {
	proj, current, err := s.aggregate.GetWithPages(ctx, tenantID, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(current, pageID)
	if idx < 0 {
		return nil, ErrPageNotFound
	}
	src := current[idx]
	if src.PageType.IsGuard() {
		return nil, ErrGuardPage
	}
	lim, err := s.rules.Limits(ctx, proj)
	if err != nil {
		return nil, err
	}
	if len(current)+2 > lim.MaxPages {
		return nil, fmt.Errorf("%w: maximum is %d pages", ErrPageLimit, lim.MaxPages)
	}

	spread := uuid.NewString()
	cp := src.Clone()
	cp.ID = uuid.NewString()
	cp.SpreadID = spread
	blank := newPage(proj.ID, project.PageRegular, spread)

	next := make([]project.Page, 0, len(current)+2)
	next = append(next, project.ClonePages(current[:idx+1])...)
	next = append(next, cp, blank)
	next = append(next, project.ClonePages(current[idx+1:])...)
	return s.commit(ctx, tenantID, ownerID, proj, Renumber(next))
}

// InitializeProjectPages seeds an empty project with its starting pages.
func (s *Service) InitializeProjectPages(ctx context.Context, tenantID, ownerID, projectID string, count int, includeGuards bool) (*Result, error) {
	proj, current, err := s.aggregate.GetWithPages(ctx, tenantID, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	if len(current) > 0 {
		return nil, ErrAlreadyInitialized
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative page count", project.ErrInvalidInput)
	}
	seeded, err := s.rules.InitialPages(ctx, proj, count, includeGuards)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, tenantID, ownerID, proj, seeded)
}

func (s *Service) commit(ctx context.Context, tenantID, ownerID string, proj *project.Project, next []project.Page) (*Result, error) {
	expected := proj.CurrentVersion
	updated, err := s.aggregate.Update(ctx, tenantID, project.UpdateRequest{
		ProjectID:       proj.ID,
		OwnerID:         ownerID,
		Patch:           project.Patch{Pages: next},
		ExpectedVersion: &expected,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("pages committed", "project_id", proj.ID, "pages", len(next), "version", updated.CurrentVersion)
	return &Result{Project: updated, Pages: next}, nil
}

// insertionIndex maps a 1-based position to a slice index that keeps guard
// pages at the ends.
func insertionIndex(pages []project.Page, position int) int {
	lo, hi := 0, len(pages)
	if len(pages) > 0 && pages[0].PageType == project.PageGuardFront {
		lo = 1
	}
	if len(pages) > 0 && pages[len(pages)-1].PageType == project.PageGuardBack {
		hi = len(pages) - 1
	}
	if position <= 0 {
		return hi
	}
	at := position - 1
	if at < lo {
		return lo
	}
	if at > hi {
		return hi
	}
	return at
}

// partnerIndex finds the other half of the spread at idx. Pages are paired
// by SpreadID; a page alone in its spread falls back to its neighbour by
// position parity among non-guard pages.
func partnerIndex(pages []project.Page, idx int) int {
	target := pages[idx]
	for i, p := range pages {
		if i != idx && p.SpreadID == target.SpreadID && !p.PageType.IsGuard() {
			return i
		}
	}

	var content []int
	pos := -1
	for i, p := range pages {
		if p.PageType.IsGuard() {
			continue
		}
		if i == idx {
			pos = len(content)
		}
		content = append(content, i)
	}
	candidates := []int{pos + 1, pos - 1}
	if pos%2 == 1 {
		candidates = []int{pos - 1, pos + 1}
	}
	for _, c := range candidates {
		if c >= 0 && c < len(content) {
			return content[c]
		}
	}
	return -1
}

func indexOf(pages []project.Page, id string) int {
	for i, p := range pages {
		if p.ID == id {
			return i
		}
	}
	return -1
}
