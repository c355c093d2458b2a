package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/photobook/internal/domain/project"
	"github.com/rpggio/photobook/internal/domain/version"
	"github.com/rpggio/photobook/internal/repository"
)

// VersionRepository implements version.Repository for SQLite
type VersionRepository struct {
	db *DB
}

// NewVersionRepository creates a new VersionRepository
func NewVersionRepository(db *DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// Commit applies the project write and appends rec atomically. The version
// number is MAX+1 for the project, read inside the same transaction.
func (r *VersionRepository) Commit(ctx context.Context, tenantID string, proj *project.Project, pages []project.Page, rec *version.Record, expectedVersion int64) error {
	var number int64
	err := r.db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		if err := updateProjectTx(ctx, tx, tenantID, proj, expectedVersion); err != nil {
			return err
		}
		if pages != nil {
			if err := replacePagesTx(ctx, tx, proj.ID, pages); err != nil {
				return err
			}
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(version_number), 0) + 1 FROM project_versions WHERE project_id = ?`,
			proj.ID).Scan(&number); err != nil {
			return fmt.Errorf("failed to allocate version number: %w", mapError(err))
		}

		snapshot, err := json.Marshal(rec.Snapshot)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}

		query := `
			INSERT INTO project_versions (
				id, tenant_id, project_id, version_number, snapshot,
				changes_summary, is_production, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, query,
			rec.ID,
			tenantID,
			proj.ID,
			number,
			string(snapshot),
			rec.ChangesSummary,
			rec.IsProduction,
			rec.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert version: %w", mapError(err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	proj.CurrentVersion = expectedVersion + 1
	rec.TenantID = tenantID
	rec.ProjectID = proj.ID
	rec.VersionNumber = number
	return nil
}

// List returns a project's versions, newest first
func (r *VersionRepository) List(ctx context.Context, tenantID, projectID string, limit int) ([]version.Record, error) {
	query := `
		SELECT id, tenant_id, project_id, version_number, snapshot, changes_summary, is_production, created_at
		FROM project_versions
		WHERE tenant_id = ? AND project_id = ?
		ORDER BY version_number DESC
	`
	args := []any{tenantID, projectID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", mapError(err))
	}
	defer rows.Close()

	records := []version.Record{}
	for rows.Next() {
		rec, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating version rows: %w", err)
	}
	return records, nil
}

// Get retrieves one version of a project
func (r *VersionRepository) Get(ctx context.Context, tenantID, projectID, id string) (*version.Record, error) {
	query := `
		SELECT id, tenant_id, project_id, version_number, snapshot, changes_summary, is_production, created_at
		FROM project_versions
		WHERE id = ? AND tenant_id = ? AND project_id = ?
	`
	rec, err := scanVersion(r.db.QueryRowContext(ctx, query, id, tenantID, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the given versions. Production versions are never deleted.
func (r *VersionRepository) Delete(ctx context.Context, tenantID, projectID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := []any{tenantID, projectID}
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	query := fmt.Sprintf(`
		DELETE FROM project_versions
		WHERE tenant_id = ? AND project_id = ? AND is_production = 0
		  AND id NOT IN (SELECT locked_version_id FROM projects WHERE id = project_versions.project_id AND locked_version_id IS NOT NULL)
		  AND id IN (%s)
	`, strings.Join(placeholders, ","))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete versions: %w", mapError(err))
	}
	return nil
}

func scanVersion(row rowScanner) (*version.Record, error) {
	var rec version.Record
	var snapshot string
	if err := row.Scan(
		&rec.ID,
		&rec.TenantID,
		&rec.ProjectID,
		&rec.VersionNumber,
		&snapshot,
		&rec.ChangesSummary,
		&rec.IsProduction,
		&rec.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan version: %w", err)
	}
	if err := json.Unmarshal([]byte(snapshot), &rec.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", rec.ID, err)
	}
	if rec.Snapshot.Pages == nil {
		rec.Snapshot.Pages = []project.Page{}
	}
	return &rec, nil
}
