package version

import (
	"fmt"

	"github.com/rpggio/photobook/internal/domain/project"
)

var (
	// ErrVersionNotFound indicates the version doesn't exist for the project.
	ErrVersionNotFound = fmt.Errorf("version %w", project.ErrNotFound)
	// ErrAlreadyLocked indicates the project already holds a production lock.
	ErrAlreadyLocked = fmt.Errorf("%w: project is already locked for production", project.ErrConflict)
)
