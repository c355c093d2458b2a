package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/photobook/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRepository_CreateResolve(t *testing.T) {
	db := NewTestDB(t)
	repo := NewAPIKeyRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &APIKey{
		KeyHash:     "hash-1",
		TenantID:    "tenant1",
		UserID:      "u1",
		Description: "laptop",
	}))

	tenantID, userID, err := repo.Resolve(ctx, "hash-1")
	require.NoError(t, err)
	require.Equal(t, "tenant1", tenantID)
	require.Equal(t, "u1", userID)

	keys, err := repo.List(ctx, "tenant1")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.NotNil(t, keys[0].LastUsed)
	require.Equal(t, "laptop", keys[0].Description)

	_, _, err = repo.Resolve(ctx, "unknown")
	require.ErrorIs(t, err, repository.ErrNotFound)

	err = repo.Create(ctx, &APIKey{KeyHash: "hash-1", TenantID: "tenant2", UserID: "u2"})
	require.ErrorIs(t, err, repository.ErrDuplicate)
}
