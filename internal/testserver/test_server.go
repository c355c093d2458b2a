// Package testserver runs the full photobook MCP stack against an in-memory
// database for end-to-end tests.
package testserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/photobook/internal/app"
	"github.com/rpggio/photobook/internal/config"
	"github.com/rpggio/photobook/internal/sqlite"
	"github.com/rpggio/photobook/internal/transport"
)

// TestServer is a running HTTP photobook server with API key auth.
type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	App    *app.App
}

// Config returns the configuration test servers run with: short autosave
// timings and no outbound integrations.
func Config() config.Config {
	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	cfg.AutoSave.Debounce = 20 * time.Millisecond
	cfg.AutoSave.BaseBackoff = 10 * time.Millisecond
	cfg.AutoSave.MaxBackoff = 50 * time.Millisecond
	return cfg
}

// New starts an HTTP server with auth enabled.
func New(t *testing.T) *TestServer {
	t.Helper()

	cfg := Config()
	cfg.Transport.Mode = "http"
	cfg.Auth.Enabled = true

	db := sqlite.NewTestDB(t)
	a := app.New(db, cfg, app.Options{})
	server := httptest.NewServer(transport.NewRouter(a.MCPServer("test"), time.Minute))

	t.Cleanup(func() {
		server.Close()
		a.Close()
	})

	return &TestServer{Server: server, DB: db, App: a}
}

// AddAPIKey registers token for tenantID/userID.
func (ts *TestServer) AddAPIKey(t *testing.T, token, tenantID, userID string) {
	t.Helper()
	require.NoError(t, ts.App.APIKeys.Create(context.Background(), &sqlite.APIKey{
		KeyHash:  transport.HashToken(token),
		TenantID: tenantID,
		UserID:   userID,
	}))
}

// Connect opens an MCP client session that sends token as a bearer token.
// An empty token sends no Authorization header.
func (ts *TestServer) Connect(t *testing.T, token string) *sdkmcp.ClientSession {
	t.Helper()

	httpClient := &http.Client{Transport: bearerTransport{token: token, base: http.DefaultTransport}}
	return connect(t, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: httpClient,
	})
}

// NewInMemory connects a client to a server over in-memory transports, the
// way a local stdio editor would: no auth, the default identity.
func NewInMemory(t *testing.T) (*sdkmcp.ClientSession, *app.App) {
	t.Helper()

	cfg := Config()
	db := sqlite.NewTestDB(t)
	a := app.New(db, cfg, app.Options{})
	t.Cleanup(a.Close)

	ctx := context.Background()
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	ss, err := a.MCPServer("test").Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	return connect(t, clientTransport), a
}

func connect(t *testing.T, tr sdkmcp.Transport) *sdkmcp.ClientSession {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, tr, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if b.token == "" {
		return b.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(clone)
}
