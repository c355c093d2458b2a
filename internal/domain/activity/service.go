package activity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	// DefaultListLimit caps listings that don't ask for a limit.
	DefaultListLimit = 50
	// MaxListLimit caps every listing.
	MaxListLimit = 200
)

// Service records and reads the per-project audit trail.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// LogActivity stores entry, stamping CreatedAt when it is unset.
func (s *Service) LogActivity(ctx context.Context, tenantID string, entry *ActivityEntry) error {
	if entry == nil || strings.TrimSpace(entry.ProjectID) == "" {
		return ErrInvalidInput
	}
	if !entry.ActivityType.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidInput, entry.ActivityType)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if err := s.repo.Log(ctx, tenantID, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists matching entries, newest first. The limit
// defaults to DefaultListLimit and never exceeds MaxListLimit.
func (s *Service) GetRecentActivity(ctx context.Context, tenantID string, opts ListActivityOptions) ([]ActivityEntry, error) {
	if opts.ActivityType != nil && !opts.ActivityType.IsValid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, *opts.ActivityType)
	}
	switch {
	case opts.Limit <= 0:
		opts.Limit = DefaultListLimit
	case opts.Limit > MaxListLimit:
		opts.Limit = MaxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	entries, err := s.repo.List(ctx, tenantID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	s.logger.Debug("activity listed", "tenant_id", tenantID, "project_id", opts.ProjectID, "count", len(entries))
	return entries, nil
}
