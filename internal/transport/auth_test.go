package transport

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/photobook/internal/repository"
)

type stubKeyStore struct {
	keys map[string][2]string
	err  error
}

func (s *stubKeyStore) Resolve(_ context.Context, keyHash string) (string, string, error) {
	if s.err != nil {
		return "", "", s.err
	}
	owner, ok := s.keys[keyHash]
	if !ok {
		return "", "", repository.ErrNotFound
	}
	return owner[0], owner[1], nil
}

func TestKeyResolver(t *testing.T) {
	store := &stubKeyStore{keys: map[string][2]string{
		HashToken("token"): {"tenant1", "alice"},
	}}
	resolver := NewKeyResolver(store)

	id, err := resolver.ResolveIdentity(context.Background(), "token")
	require.NoError(t, err)
	require.Equal(t, "tenant1", id.TenantID)
	require.Equal(t, "alice", id.UserID)

	_, err = resolver.ResolveIdentity(context.Background(), "other")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = resolver.ResolveIdentity(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestKeyResolver_StoreError(t *testing.T) {
	resolver := NewKeyResolver(&stubKeyStore{err: errors.New("db closed")})

	_, err := resolver.ResolveIdentity(context.Background(), "token")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnauthorized)
	require.ErrorContains(t, err, "db closed")
}

func TestHashToken(t *testing.T) {
	require.Equal(t, HashToken("abc"), HashToken("abc"))
	require.NotEqual(t, HashToken("abc"), HashToken("abd"))
	require.Len(t, HashToken("abc"), 64)
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(a, tokenPrefix))
	require.Len(t, a, len(tokenPrefix)+48)
	require.NotEqual(t, a, b)
}
