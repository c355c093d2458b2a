package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxLoggedPayload bounds logged params and results. Full page lists with
// their elements easily run to hundreds of kilobytes.
const maxLoggedPayload = 2048

// trafficLoggingMiddleware logs each MCP exchange at debug level.
func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			attrs := []any{"direction", direction, "method", method, "session_id", safeSessionID(req)}
			if tool := toolName(req); tool != "" {
				attrs = append(attrs, "tool", tool)
			}
			if id, err := identityFrom(ctx); err == nil {
				attrs = append(attrs, "tenant_id", id.TenantID, "user_id", id.UserID)
			}
			logger.Debug("mcp request", append(attrs, "params", formatPayload(safeParams(req)))...)

			start := time.Now()
			result, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				return result, err
			}

			attrs = append(attrs, "elapsed", time.Since(start), "result", formatPayload(result))
			if err != nil {
				attrs = append(attrs, "error", err)
			}
			if res, ok := result.(*sdkmcp.CallToolResult); ok && res != nil && res.IsError {
				attrs = append(attrs, "tool_error", true)
			}
			logger.Debug("mcp response", attrs...)
			return result, err
		}
	}
}

func toolName(req sdkmcp.Request) string {
	params, ok := safeParams(req).(*sdkmcp.CallToolParamsRaw)
	if !ok || params == nil {
		return ""
	}
	return params.Name
}

func safeSessionID(req sdkmcp.Request) (id string) {
	if req == nil {
		return ""
	}
	// Requests built outside a live session panic on GetSession.
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	session := req.GetSession()
	if session == nil {
		return ""
	}
	return session.ID()
}

func safeParams(req sdkmcp.Request) (params any) {
	if req == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			params = nil
		}
	}()
	return req.GetParams()
}

func formatPayload(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	if len(data) > maxLoggedPayload {
		return fmt.Sprintf("%s...(%d bytes)", data[:maxLoggedPayload], len(data))
	}
	return string(data)
}
