package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/photobook/internal/domain/project"
	"github.com/rpggio/photobook/internal/repository"
)

const projectColumns = `
	id, tenant_id, owner_id, name, status,
	product_id, format_id, paper_id, cover_type_id,
	page_count, spine_width, width, height, bleed, safe_margin, gutter_margin,
	settings, current_version, locked_at, locked_version_id, created_at, updated_at`

const pageColumns = `
	id, project_id, page_number, page_type, template_id, spread_id, elements, background_color`

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a project and its initial pages in one transaction
func (r *ProjectRepository) Create(ctx context.Context, tenantID string, proj *project.Project, pages []project.Page) error {
	settings, err := marshalSettings(proj.Settings)
	if err != nil {
		return err
	}

	err = r.db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		query := `INSERT INTO projects (` + projectColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, query,
			proj.ID,
			tenantID,
			proj.OwnerID,
			proj.Name,
			proj.Status,
			proj.ProductID,
			proj.FormatID,
			proj.PaperID,
			proj.CoverTypeID,
			proj.PageCount,
			proj.SpineWidth,
			proj.Width,
			proj.Height,
			proj.Bleed,
			proj.SafeMargin,
			proj.GutterMargin,
			settings,
			proj.CurrentVersion,
			proj.LockedAt,
			proj.LockedVersionID,
			proj.CreatedAt,
			proj.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create project: %w", mapError(err))
		}
		return insertPagesTx(ctx, tx, proj.ID, pages)
	})
	if err != nil {
		return err
	}

	proj.TenantID = tenantID
	return nil
}

// Get retrieves a project owned by ownerID
func (r *ProjectRepository) Get(ctx context.Context, tenantID, ownerID, id string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + `
		FROM projects
		WHERE id = ? AND tenant_id = ? AND owner_id = ?`

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, id, tenantID, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", mapError(err))
	}
	return proj, nil
}

// ListPages returns a project's pages in page order
func (r *ProjectRepository) ListPages(ctx context.Context, tenantID, projectID string) ([]project.Page, error) {
	return listPages(ctx, r.db, tenantID, projectID)
}

// List returns an owner's projects, most recently updated first
func (r *ProjectRepository) List(ctx context.Context, tenantID, ownerID string, opts project.ListOptions) ([]project.Summary, error) {
	query := `
		SELECT id, name, status, page_count, current_version, updated_at
		FROM projects
		WHERE tenant_id = ? AND owner_id = ?
	`
	args := []any{tenantID, ownerID}
	if opts.Status != nil {
		query += " AND status = ?"
		args = append(args, *opts.Status)
	}
	query += " ORDER BY updated_at DESC, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", mapError(err))
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// Save writes proj under a compare-and-swap on current_version and, when
// pages is non-nil, replaces the whole page set in the same transaction.
func (r *ProjectRepository) Save(ctx context.Context, tenantID string, proj *project.Project, pages []project.Page, expectedVersion int64) error {
	err := r.db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		if err := updateProjectTx(ctx, tx, tenantID, proj, expectedVersion); err != nil {
			return err
		}
		if pages != nil {
			return replacePagesTx(ctx, tx, proj.ID, pages)
		}
		return nil
	})
	if err != nil {
		return err
	}

	proj.CurrentVersion = expectedVersion + 1
	return nil
}

// Delete removes a project. Pages and versions go with it by cascade.
func (r *ProjectRepository) Delete(ctx context.Context, tenantID, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE id = ? AND tenant_id = ? AND owner_id = ?`,
		id, tenantID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", mapError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// updateProjectTx writes every mutable column and bumps current_version to
// expectedVersion+1, but only if the stored version still equals
// expectedVersion.
func updateProjectTx(ctx context.Context, tx DBTX, tenantID string, proj *project.Project, expectedVersion int64) error {
	settings, err := marshalSettings(proj.Settings)
	if err != nil {
		return err
	}

	query := `
		UPDATE projects SET
			name = ?, status = ?,
			product_id = ?, format_id = ?, paper_id = ?, cover_type_id = ?,
			page_count = ?, spine_width = ?, width = ?, height = ?,
			bleed = ?, safe_margin = ?, gutter_margin = ?,
			settings = ?, current_version = ?,
			locked_at = ?, locked_version_id = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ? AND current_version = ?
	`
	result, err := tx.ExecContext(ctx, query,
		proj.Name,
		proj.Status,
		proj.ProductID,
		proj.FormatID,
		proj.PaperID,
		proj.CoverTypeID,
		proj.PageCount,
		proj.SpineWidth,
		proj.Width,
		proj.Height,
		proj.Bleed,
		proj.SafeMargin,
		proj.GutterMargin,
		settings,
		expectedVersion+1,
		proj.LockedAt,
		proj.LockedVersionID,
		proj.UpdatedAt,
		proj.ID,
		tenantID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", mapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM projects WHERE id = ? AND tenant_id = ?)`,
		proj.ID, tenantID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check project existence: %w", mapError(err))
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

// replacePagesTx deletes every page of the project and inserts pages.
func replacePagesTx(ctx context.Context, tx DBTX, projectID string, pages []project.Page) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to clear pages: %w", mapError(err))
	}
	return insertPagesTx(ctx, tx, projectID, pages)
}

func insertPagesTx(ctx context.Context, tx DBTX, projectID string, pages []project.Page) error {
	query := `INSERT INTO pages (` + pageColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, p := range pages {
		elements := p.Elements
		if elements == nil {
			elements = []project.Element{}
		}
		raw, err := json.Marshal(elements)
		if err != nil {
			return fmt.Errorf("failed to encode elements of page %s: %w", p.ID, err)
		}
		background := p.BackgroundColor
		if background == "" {
			background = "#FFFFFF"
		}
		if _, err := tx.ExecContext(ctx, query,
			p.ID,
			projectID,
			p.PageNumber,
			p.PageType,
			p.TemplateID,
			p.SpreadID,
			string(raw),
			background,
		); err != nil {
			return fmt.Errorf("failed to insert page %d: %w", p.PageNumber, mapError(err))
		}
	}
	return nil
}

func listPages(ctx context.Context, q DBTX, tenantID, projectID string) ([]project.Page, error) {
	query := `
		SELECT ` + pageColumns + `
		FROM pages
		WHERE project_id = ?
		  AND EXISTS (SELECT 1 FROM projects WHERE projects.id = pages.project_id AND projects.tenant_id = ?)
		ORDER BY page_number
	`
	rows, err := q.QueryContext(ctx, query, projectID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", mapError(err))
	}
	defer rows.Close()

	pages := []project.Page{}
	for rows.Next() {
		var p project.Page
		var templateID sql.NullString
		var elements string
		if err := rows.Scan(
			&p.ID,
			&p.ProjectID,
			&p.PageNumber,
			&p.PageType,
			&templateID,
			&p.SpreadID,
			&elements,
			&p.BackgroundColor,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		if templateID.Valid {
			p.TemplateID = &templateID.String
		}
		if err := json.Unmarshal([]byte(elements), &p.Elements); err != nil {
			return nil, fmt.Errorf("failed to decode elements of page %s: %w", p.ID, err)
		}
		if p.Elements == nil {
			p.Elements = []project.Element{}
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating page rows: %w", err)
	}
	return pages, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*project.Project, error) {
	var proj project.Project
	var productID, formatID, paperID, coverTypeID, lockedVersionID sql.NullString
	var lockedAt sql.NullTime
	var settings string

	if err := row.Scan(
		&proj.ID,
		&proj.TenantID,
		&proj.OwnerID,
		&proj.Name,
		&proj.Status,
		&productID,
		&formatID,
		&paperID,
		&coverTypeID,
		&proj.PageCount,
		&proj.SpineWidth,
		&proj.Width,
		&proj.Height,
		&proj.Bleed,
		&proj.SafeMargin,
		&proj.GutterMargin,
		&settings,
		&proj.CurrentVersion,
		&lockedAt,
		&lockedVersionID,
		&proj.CreatedAt,
		&proj.UpdatedAt,
	); err != nil {
		return nil, err
	}

	proj.ProductID = nullString(productID)
	proj.FormatID = nullString(formatID)
	proj.PaperID = nullString(paperID)
	proj.CoverTypeID = nullString(coverTypeID)
	proj.LockedVersionID = nullString(lockedVersionID)
	if lockedAt.Valid {
		t := lockedAt.Time
		proj.LockedAt = &t
	}
	if err := json.Unmarshal([]byte(settings), &proj.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if proj.Settings == nil {
		proj.Settings = map[string]any{}
	}
	return &proj, nil
}

func scanSummaries(rows *sql.Rows) ([]project.Summary, error) {
	summaries := []project.Summary{}
	for rows.Next() {
		var s project.Summary
		if err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Status,
			&s.PageCount,
			&s.CurrentVersion,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return summaries, nil
}

func marshalSettings(settings map[string]any) (string, error) {
	if settings == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("%w: settings: %w", repository.ErrInvalidInput, err)
	}
	return string(raw), nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
