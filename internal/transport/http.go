package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultSessionTimeout = 30 * time.Minute
	shutdownTimeout       = 5 * time.Second
)

// NewRouter serves the MCP streamable HTTP endpoint at /mcp and a liveness
// check at /health.
func NewRouter(server *sdkmcp.Server, sessionTimeout time.Duration) http.Handler {
	if sessionTimeout <= 0 {
		sessionTimeout = defaultSessionTimeout
	}
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: sessionTimeout,
		},
	)

	router := http.NewServeMux()
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/", mcpHandler)
	router.HandleFunc("/health", handleHealth)
	return router
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// RunHTTP serves handler on host:port until ctx is canceled, then shuts down
// gracefully.
func RunHTTP(ctx context.Context, logger *slog.Logger, handler http.Handler, host string, port int) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// RunStdio serves the MCP server over stdin/stdout until stdin closes or ctx
// is canceled.
func RunStdio(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("starting stdio transport", "auth", "disabled")
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}
