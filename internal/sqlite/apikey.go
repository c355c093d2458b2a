package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/photobook/internal/repository"
)

// APIKey is a stored credential. Only the hash of the token is kept.
type APIKey struct {
	KeyHash     string
	TenantID    string
	UserID      string
	Description string
	CreatedAt   time.Time
	LastUsed    *time.Time
}

// APIKeyRepository stores hashed API keys
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create stores a hashed key
func (r *APIKeyRepository) Create(ctx context.Context, key *APIKey) error {
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (key_hash, tenant_id, user_id, created_at, description)
		VALUES (?, ?, ?, ?, ?)
	`, key.KeyHash, key.TenantID, key.UserID, key.CreatedAt, key.Description)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", mapError(err))
	}
	return nil
}

// Resolve looks up the owner of a key hash and records its use
func (r *APIKeyRepository) Resolve(ctx context.Context, keyHash string) (tenantID, userID string, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT tenant_id, user_id FROM api_keys WHERE key_hash = ?`, keyHash).
		Scan(&tenantID, &userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", repository.ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve api key: %w", mapError(err))
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now(), keyHash); err != nil {
		return "", "", fmt.Errorf("failed to touch api key: %w", mapError(err))
	}
	return tenantID, userID, nil
}

// List returns a tenant's keys, newest first
func (r *APIKeyRepository) List(ctx context.Context, tenantID string) ([]APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT key_hash, tenant_id, user_id, description, created_at, last_used
		FROM api_keys
		WHERE tenant_id = ?
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", mapError(err))
	}
	defer rows.Close()

	keys := []APIKey{}
	for rows.Next() {
		var k APIKey
		var lastUsed sql.NullTime
		if err := rows.Scan(&k.KeyHash, &k.TenantID, &k.UserID, &k.Description, &k.CreatedAt, &lastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		if lastUsed.Valid {
			t := lastUsed.Time
			k.LastUsed = &t
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating api key rows: %w", err)
	}
	return keys, nil
}
