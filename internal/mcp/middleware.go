package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Identity is the tenant and user a request acts for.
type Identity struct {
	TenantID string
	UserID   string
}

type contextKey int

const identityKey contextKey = iota

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// identityFrom extracts the identity injected by the auth middleware.
func identityFrom(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.TenantID == "" || id.UserID == "" {
		return Identity{}, errors.New("unauthorized: no identity on request")
	}
	return id, nil
}

// IdentityResolver resolves an identity from a bearer token.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (Identity, error)
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver IdentityResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol methods
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}

			id, err := resolver.ResolveIdentity(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}
			if id.TenantID == "" || id.UserID == "" {
				return nil, fmt.Errorf("unauthorized: invalid bearer token")
			}

			return next(WithIdentity(ctx, id), method, req)
		}
	}
}

// noAuthMiddleware injects the default identity when auth is disabled.
func noAuthMiddleware(id Identity) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(WithIdentity(ctx, id), method, req)
		}
	}
}
