package mcp

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func TestFormatPayload(t *testing.T) {
	require.Equal(t, "<nil>", formatPayload(nil))
	require.Equal(t, `{"a":1}`, formatPayload(map[string]int{"a": 1}))

	long := formatPayload(strings.Repeat("x", maxLoggedPayload*2))
	require.True(t, strings.HasSuffix(long, "bytes)"))
	require.Less(t, len(long), maxLoggedPayload+32)

	require.Equal(t, "chan int", formatPayload(make(chan int)))
}

func TestTrafficLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mw := trafficLoggingMiddleware(logger, "inbound")(func(context.Context, string, sdkmcp.Request) (sdkmcp.Result, error) {
		return &sdkmcp.CallToolResult{IsError: true}, nil
	})
	req := &sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{Name: "get_project"}}
	_, err := mw(authedCtx(), "tools/call", req)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "mcp request")
	require.Contains(t, out, "mcp response")
	require.Contains(t, out, "tool=get_project")
	require.Contains(t, out, "user_id=u1")
	require.Contains(t, out, "tool_error=true")
}

func TestTrafficLogging_SkipsWhenNotDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	called := false
	mw := trafficLoggingMiddleware(logger, "inbound")(func(context.Context, string, sdkmcp.Request) (sdkmcp.Result, error) {
		called = true
		return nil, nil
	})
	_, err := mw(context.Background(), "ping", &sdkmcp.CallToolRequest{})
	require.NoError(t, err)
	require.True(t, called)
	require.Empty(t, buf.String())
}
