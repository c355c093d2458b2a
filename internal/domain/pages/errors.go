package pages

import (
	"fmt"

	"github.com/rpggio/photobook/internal/domain/project"
)

var (
	// ErrPageNotFound indicates the page isn't part of the project.
	ErrPageNotFound = fmt.Errorf("page %w", project.ErrNotFound)
	// ErrPageLimit indicates the change would leave the format's page bounds.
	ErrPageLimit = fmt.Errorf("%w: page count out of bounds", project.ErrInvalidOperation)
	// ErrGuardPage indicates an attempt to remove, duplicate or move a guard page.
	ErrGuardPage = fmt.Errorf("%w: guard pages are fixed", project.ErrInvalidOperation)
	// ErrPageSetMismatch indicates a reorder whose ids differ from the current pages.
	ErrPageSetMismatch = fmt.Errorf("%w: page ids do not match the project's pages", project.ErrInvalidOperation)
	// ErrOddPageDelta indicates a structural change that doesn't add or remove whole pairs.
	ErrOddPageDelta = fmt.Errorf("%w: pages must be added or removed in pairs", project.ErrInvalidOperation)
	// ErrInvalidNumbering indicates page numbers that aren't a dense 1..N run.
	ErrInvalidNumbering = fmt.Errorf("%w: page numbers must run 1..N", project.ErrInvalidOperation)
	// ErrInvalidPage indicates a page with a missing id, unknown type or missing spread.
	ErrInvalidPage = fmt.Errorf("%w: invalid page", project.ErrInvalidOperation)
	// ErrNoPartner indicates no page could be paired with the target.
	ErrNoPartner = fmt.Errorf("%w: page has no removable partner", project.ErrInvalidOperation)
	// ErrAlreadyInitialized indicates the project already has pages.
	ErrAlreadyInitialized = fmt.Errorf("%w: project pages already initialized", project.ErrInvalidOperation)
)
