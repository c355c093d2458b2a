// Package pages maintains the structural invariants of a project's page
// collection: dense numbering, whole-pair changes and fixed guard pages.
package pages

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rpggio/photobook/internal/domain/catalog"
	"github.com/rpggio/photobook/internal/domain/project"
)

// LimitSource resolves the page bounds of a format.
type LimitSource interface {
	PageLimits(ctx context.Context, formatID *string) (catalog.Limits, error)
}

// Rules validates page collections. It implements project.PageInvariants.
type Rules struct {
	limits LimitSource
}

// NewRules creates page rules backed by the given limit source.
func NewRules(limits LimitSource) *Rules {
	return &Rules{limits: limits}
}

// Limits returns the page bounds for a project.
func (r *Rules) Limits(ctx context.Context, proj *project.Project) (catalog.Limits, error) {
	if r.limits == nil {
		return catalog.DefaultLimits, nil
	}
	lim, err := r.limits.PageLimits(ctx, proj.FormatID)
	if err != nil {
		if errors.Is(err, catalog.ErrFormatNotFound) {
			return catalog.Limits{}, fmt.Errorf("%w: %w", project.ErrInvalidInput, err)
		}
		return catalog.Limits{}, fmt.Errorf("%w: resolving page limits: %w", project.ErrTransientStore, err)
	}
	return lim, nil
}

// ValidateStructure checks a proposed page collection against the current one.
func (r *Rules) ValidateStructure(ctx context.Context, proj *project.Project, before, after []project.Page) error {
	seen := make(map[string]struct{}, len(after))
	for i, p := range after {
		if p.ID == "" || p.SpreadID == "" || !p.PageType.IsValid() {
			return fmt.Errorf("%w: page %d", ErrInvalidPage, i+1)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidPage, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.PageNumber != i+1 {
			return fmt.Errorf("%w: position %d has number %d", ErrInvalidNumbering, i+1, p.PageNumber)
		}
		if p.PageType == project.PageGuardFront && i != 0 {
			return fmt.Errorf("%w: front guard must be the first page", ErrGuardPage)
		}
		if p.PageType == project.PageGuardBack && i != len(after)-1 {
			return fmt.Errorf("%w: back guard must be the last page", ErrGuardPage)
		}
	}

	afterByID := make(map[string]project.Page, len(after))
	for _, p := range after {
		afterByID[p.ID] = p
	}
	for _, p := range before {
		if !p.PageType.IsGuard() {
			continue
		}
		if q, ok := afterByID[p.ID]; !ok || q.PageType != p.PageType {
			return fmt.Errorf("%w: guard %s removed", ErrGuardPage, p.ID)
		}
	}

	delta := len(after) - len(before)
	if len(before) > 0 && delta%2 != 0 {
		return ErrOddPageDelta
	}
	if delta == 0 {
		return nil
	}

	lim, err := r.Limits(ctx, proj)
	if err != nil {
		return err
	}
	if delta > 0 && len(after) > lim.MaxPages {
		return fmt.Errorf("%w: %d pages exceeds maximum %d", ErrPageLimit, len(after), lim.MaxPages)
	}
	if delta < 0 && len(after) < lim.MinPages {
		return fmt.Errorf("%w: %d pages is below minimum %d", ErrPageLimit, len(after), lim.MinPages)
	}
	return nil
}

// InitialPages builds the seed pages for a new project, checking them
// against the project's limits.
func (r *Rules) InitialPages(ctx context.Context, proj *project.Project, count int, includeGuards bool) ([]project.Page, error) {
	seeded := Seed(proj.ID, count, includeGuards)
	lim, err := r.Limits(ctx, proj)
	if err != nil {
		return nil, err
	}
	if len(seeded) > lim.MaxPages || len(seeded) < lim.MinPages {
		return nil, fmt.Errorf("%w: %d pages outside %d..%d", ErrPageLimit, len(seeded), lim.MinPages, lim.MaxPages)
	}
	return seeded, nil
}

// Seed returns guard_front, count regular pages and guard_back, or only the
// regular pages when guards are excluded. Regular pages are paired into
// spreads in order.
func Seed(projectID string, count int, includeGuards bool) []project.Page {
	out := make([]project.Page, 0, count+2)
	if includeGuards {
		out = append(out, newPage(projectID, project.PageGuardFront, uuid.NewString()))
	}
	var spread string
	for i := 0; i < count; i++ {
		if i%2 == 0 {
			spread = uuid.NewString()
		}
		out = append(out, newPage(projectID, project.PageRegular, spread))
	}
	if includeGuards {
		out = append(out, newPage(projectID, project.PageGuardBack, uuid.NewString()))
	}
	return Renumber(out)
}

// Renumber assigns PageNumber = index+1 in place and returns pages.
func Renumber(pages []project.Page) []project.Page {
	for i := range pages {
		pages[i].PageNumber = i + 1
	}
	return pages
}

// DisplayPageCount counts the pages a reader sees as content pages.
func DisplayPageCount(pages []project.Page) int {
	n := 0
	for _, p := range pages {
		switch p.PageType {
		case project.PageGuardFront, project.PageGuardBack, project.PageTitle, project.PageDedication:
		default:
			n++
		}
	}
	return n
}

// TotalPageCount counts every page, as printing and pricing do.
func TotalPageCount(pages []project.Page) int {
	return len(pages)
}

func newPage(projectID string, typ project.PageType, spread string) project.Page {
	return project.Page{
		ID:              uuid.NewString(),
		ProjectID:       projectID,
		PageType:        typ,
		SpreadID:        spread,
		Elements:        []project.Element{},
		BackgroundColor: "#FFFFFF",
	}
}
