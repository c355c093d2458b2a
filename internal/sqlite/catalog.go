package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/photobook/internal/domain/catalog"
	"github.com/rpggio/photobook/internal/repository"
)

// CatalogRepository implements catalog.Repository for SQLite
type CatalogRepository struct {
	db *DB
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const formatColumns = `id, name, width_mm, height_mm, bleed_mm, safe_margin_mm, gutter_margin_mm, min_pages, max_pages`

// GetFormat retrieves a format by ID
func (r *CatalogRepository) GetFormat(ctx context.Context, id string) (*catalog.Format, error) {
	var f catalog.Format
	err := r.db.QueryRowContext(ctx, `SELECT `+formatColumns+` FROM formats WHERE id = ?`, id).Scan(
		&f.ID, &f.Name, &f.WidthMM, &f.HeightMM, &f.BleedMM,
		&f.SafeMarginMM, &f.GutterMarginMM, &f.MinPages, &f.MaxPages,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get format: %w", mapError(err))
	}
	return &f, nil
}

// GetPaper retrieves a paper by ID
func (r *CatalogRepository) GetPaper(ctx context.Context, id string) (*catalog.Paper, error) {
	var p catalog.Paper
	err := r.db.QueryRowContext(ctx, `SELECT id, name, thickness_mm FROM papers WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.ThicknessMM)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get paper: %w", mapError(err))
	}
	return &p, nil
}

// GetCoverType retrieves a cover type by ID
func (r *CatalogRepository) GetCoverType(ctx context.Context, id string) (*catalog.CoverType, error) {
	var c catalog.CoverType
	err := r.db.QueryRowContext(ctx, `SELECT id, name, binding_tolerance_mm FROM cover_types WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.BindingToleranceMM)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cover type: %w", mapError(err))
	}
	return &c, nil
}

// ListFormats returns every format ordered by name
func (r *CatalogRepository) ListFormats(ctx context.Context) ([]catalog.Format, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+formatColumns+` FROM formats ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list formats: %w", mapError(err))
	}
	defer rows.Close()

	formats := []catalog.Format{}
	for rows.Next() {
		var f catalog.Format
		if err := rows.Scan(
			&f.ID, &f.Name, &f.WidthMM, &f.HeightMM, &f.BleedMM,
			&f.SafeMarginMM, &f.GutterMarginMM, &f.MinPages, &f.MaxPages,
		); err != nil {
			return nil, fmt.Errorf("failed to scan format: %w", err)
		}
		formats = append(formats, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating format rows: %w", err)
	}
	return formats, nil
}

// ListPapers returns every paper ordered by name
func (r *CatalogRepository) ListPapers(ctx context.Context) ([]catalog.Paper, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, thickness_mm FROM papers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list papers: %w", mapError(err))
	}
	defer rows.Close()

	papers := []catalog.Paper{}
	for rows.Next() {
		var p catalog.Paper
		if err := rows.Scan(&p.ID, &p.Name, &p.ThicknessMM); err != nil {
			return nil, fmt.Errorf("failed to scan paper: %w", err)
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating paper rows: %w", err)
	}
	return papers, nil
}

// ListCoverTypes returns every cover type ordered by name
func (r *CatalogRepository) ListCoverTypes(ctx context.Context) ([]catalog.CoverType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, binding_tolerance_mm FROM cover_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cover types: %w", mapError(err))
	}
	defer rows.Close()

	covers := []catalog.CoverType{}
	for rows.Next() {
		var c catalog.CoverType
		if err := rows.Scan(&c.ID, &c.Name, &c.BindingToleranceMM); err != nil {
			return nil, fmt.Errorf("failed to scan cover type: %w", err)
		}
		covers = append(covers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cover type rows: %w", err)
	}
	return covers, nil
}
