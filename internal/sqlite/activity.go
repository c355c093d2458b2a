package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/photobook/internal/domain/activity"
)

// ActivityRepository stores the per-project audit trail in activity_log.
type ActivityRepository struct {
	db *DB
}

func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts entry and fills in its ID, TenantID and CreatedAt.
func (r *ActivityRepository) Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log (
			tenant_id, project_id, user_id, version_id,
			activity_type, summary, details, created_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		tenantID,
		entry.ProjectID,
		entry.UserID,
		entry.VersionID,
		entry.ActivityType,
		entry.Summary,
		entry.Details,
		createdAt,
		entry.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", mapError(err))
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	entry.TenantID = tenantID
	entry.CreatedAt = createdAt
	return nil
}

// List returns entries matching opts, newest first. Entries logged in the
// same instant come back in reverse insertion order.
func (r *ActivityRepository) List(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	where := []string{"tenant_id = ?"}
	args := []any{tenantID}
	filter := func(clause string, value any) {
		where = append(where, clause)
		args = append(args, value)
	}

	if opts.ProjectID != "" {
		filter("project_id = ?", opts.ProjectID)
	}
	if opts.UserID != nil {
		filter("user_id = ?", *opts.UserID)
	}
	if opts.VersionID != nil {
		filter("version_id = ?", *opts.VersionID)
	}
	if opts.ActivityType != nil {
		filter("activity_type = ?", *opts.ActivityType)
	}
	if opts.Since != nil {
		filter("created_at >= ?", *opts.Since)
	}

	query := `
		SELECT
			id, tenant_id, project_id, user_id, version_id,
			activity_type, summary, details, created_at, version
		FROM activity_log
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, max(opts.Offset, 0))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", mapError(err))
	}
	defer rows.Close()

	entries := []activity.ActivityEntry{}
	for rows.Next() {
		var (
			entry     activity.ActivityEntry
			userID    sql.NullString
			versionID sql.NullString
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.TenantID,
			&entry.ProjectID,
			&userID,
			&versionID,
			&entry.ActivityType,
			&entry.Summary,
			&entry.Details,
			&entry.CreatedAt,
			&entry.Version,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entry.UserID = nullString(userID)
		entry.VersionID = nullString(versionID)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return entries, nil
}
