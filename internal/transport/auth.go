package transport

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rpggio/photobook/internal/mcp"
	"github.com/rpggio/photobook/internal/repository"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// tokenPrefix marks photobook API keys so they're recognisable in config files.
const tokenPrefix = "pbk_"

// KeyStore looks up the owner of a hashed API key.
type KeyStore interface {
	Resolve(ctx context.Context, keyHash string) (tenantID, userID string, err error)
}

// KeyResolver resolves bearer tokens to identities through a KeyStore.
type KeyResolver struct {
	keys KeyStore
}

// NewKeyResolver creates a resolver backed by keys.
func NewKeyResolver(keys KeyStore) *KeyResolver {
	return &KeyResolver{keys: keys}
}

// ResolveIdentity implements mcp.IdentityResolver.
func (r *KeyResolver) ResolveIdentity(ctx context.Context, token string) (mcp.Identity, error) {
	if token == "" {
		return mcp.Identity{}, ErrUnauthorized
	}
	tenantID, userID, err := r.keys.Resolve(ctx, HashToken(token))
	if errors.Is(err, repository.ErrNotFound) {
		return mcp.Identity{}, ErrUnauthorized
	}
	if err != nil {
		return mcp.Identity{}, fmt.Errorf("resolve api key: %w", err)
	}
	if tenantID == "" || userID == "" {
		return mcp.Identity{}, ErrUnauthorized
	}
	return mcp.Identity{TenantID: tenantID, UserID: userID}, nil
}

// HashToken returns the hex sha256 of token, the form keys are stored in.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GenerateToken returns a new random API key.
func GenerateToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return tokenPrefix + hex.EncodeToString(buf), nil
}
