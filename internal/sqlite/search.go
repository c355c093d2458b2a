package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpggio/photobook/internal/domain/project"
)

// Search finds an owner's projects whose name matches every term of query
// as a prefix, best matches first.
func (r *ProjectRepository) Search(ctx context.Context, tenantID, ownerID, query string, limit int) ([]project.Summary, error) {
	match := ftsQuery(query)
	if match == "" {
		return []project.Summary{}, nil
	}

	baseQuery := `
		SELECT p.id, p.name, p.status, p.page_count, p.current_version, p.updated_at
		FROM projects_fts
		JOIN projects p ON p.rowid = projects_fts.rowid
		WHERE p.tenant_id = ? AND p.owner_id = ? AND projects_fts MATCH ?
		ORDER BY projects_fts.rank, p.updated_at DESC
	`
	args := []any{tenantID, ownerID, match}
	if limit > 0 {
		baseQuery += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search projects: %w", mapError(err))
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// ftsQuery quotes each term so user input can't break FTS5 syntax.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(term, `"`, `""`)+`"*`)
	}
	return strings.Join(quoted, " ")
}
