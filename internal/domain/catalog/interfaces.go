package catalog

import "context"

// Repository provides read access to the product catalog.
type Repository interface {
	GetFormat(ctx context.Context, id string) (*Format, error)
	GetPaper(ctx context.Context, id string) (*Paper, error)
	GetCoverType(ctx context.Context, id string) (*CoverType, error)
	ListFormats(ctx context.Context) ([]Format, error)
	ListPapers(ctx context.Context) ([]Paper, error)
	ListCoverTypes(ctx context.Context) ([]CoverType, error)
}
