package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/photobook/internal/repository"
)

// Service answers format, paper and cover-type lookups.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new catalog service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// Listing groups every catalog entry.
type Listing struct {
	Formats    []Format    `json:"formats"`
	Papers     []Paper     `json:"papers"`
	CoverTypes []CoverType `json:"cover_types"`
}

// Format fetches a format by ID.
func (s *Service) Format(ctx context.Context, id string) (*Format, error) {
	f, err := s.repo.GetFormat(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFormatNotFound, id)
		}
		return nil, fmt.Errorf("getting format: %w", err)
	}
	return f, nil
}

// Paper fetches a paper stock by ID.
func (s *Service) Paper(ctx context.Context, id string) (*Paper, error) {
	p, err := s.repo.GetPaper(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPaperNotFound, id)
		}
		return nil, fmt.Errorf("getting paper: %w", err)
	}
	return p, nil
}

// CoverType fetches a cover type by ID.
func (s *Service) CoverType(ctx context.Context, id string) (*CoverType, error) {
	c, err := s.repo.GetCoverType(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCoverTypeNotFound, id)
		}
		return nil, fmt.Errorf("getting cover type: %w", err)
	}
	return c, nil
}

// PageLimits returns the page bounds of the given format, or DefaultLimits
// when no format is bound.
func (s *Service) PageLimits(ctx context.Context, formatID *string) (Limits, error) {
	if formatID == nil || strings.TrimSpace(*formatID) == "" {
		return DefaultLimits, nil
	}
	f, err := s.Format(ctx, *formatID)
	if err != nil {
		return Limits{}, err
	}
	return Limits{MinPages: f.MinPages, MaxPages: f.MaxPages}, nil
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) (*Listing, error) {
	formats, err := s.repo.ListFormats(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing formats: %w", err)
	}
	papers, err := s.repo.ListPapers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	covers, err := s.repo.ListCoverTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing cover types: %w", err)
	}
	return &Listing{Formats: formats, Papers: papers, CoverTypes: covers}, nil
}
