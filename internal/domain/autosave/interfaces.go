package autosave

import (
	"context"

	"github.com/rpggio/photobook/internal/domain/project"
)

// Saver is the project write path. *project.Service satisfies it.
type Saver interface {
	Get(ctx context.Context, tenantID, ownerID, id string) (*project.Project, error)
	Update(ctx context.Context, tenantID string, req project.UpdateRequest) (*project.Project, error)
}

// Publisher announces save outcomes to other processes.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}
