package activity

import "context"

// Repository stores activity entries per tenant.
type Repository interface {
	// Log inserts entry and fills in its ID.
	Log(ctx context.Context, tenantID string, entry *ActivityEntry) error
	// List returns entries matching opts, newest first.
	List(ctx context.Context, tenantID string, opts ListActivityOptions) ([]ActivityEntry, error)
}
