package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// clientLoggerName identifies this server in client log notifications.
const clientLoggerName = "mcp-bookstore"

// sessionLogger abstracts the ServerSession.Log method for testability.
type sessionLogger interface {
	Log(ctx context.Context, params *mcp.LoggingMessageParams) error
}

// ToolLoggingConfig configures tool call logging.
type ToolLoggingConfig struct {
	// ClientNotifications also reports failed tool calls to the client as
	// log notifications. Clients only receive them after logging/setLevel.
	ClientNotifications bool `yaml:"client_notifications"`
}

// MCPToolLoggingMiddleware logs every tools/call with a request ID, the
// tool name, its duration and the outcome.
func MCPToolLoggingMiddleware(logger *slog.Logger, cfg ToolLoggingConfig) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodToolsCall {
				return next(ctx, method, req)
			}

			toolName, nameErr := extractToolName(req)
			if nameErr != nil {
				toolName = "unknown"
			}
			start := time.Now()

			result, err := next(ctx, method, req)

			call := toolCall{
				requestID: uuid.NewString(),
				tool:      toolName,
				duration:  time.Since(start),
				failed:    err != nil || isErrorResult(result),
			}
			logToolCall(ctx, loggerOrDefault(logger), call, err)

			if cfg.ClientNotifications && call.failed {
				if sl := sessionOf(req); sl != nil {
					emitClientLog(ctx, sl, call)
				}
			}
			return result, err
		}
	}
}

// toolCall describes one finished tools/call.
type toolCall struct {
	requestID string
	tool      string
	duration  time.Duration
	failed    bool
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func logToolCall(ctx context.Context, logger *slog.Logger, call toolCall, err error) {
	attrs := []any{
		"request_id", call.requestID,
		"tool", call.tool,
		"duration_ms", call.duration.Milliseconds(),
	}
	switch {
	case err != nil:
		logger.ErrorContext(ctx, "tool call failed", append(attrs, "error", err)...)
	case call.failed:
		logger.WarnContext(ctx, "tool returned an error", attrs...)
	default:
		logger.InfoContext(ctx, "tool call", attrs...)
	}
}

func isErrorResult(result mcp.Result) bool {
	r, ok := result.(*mcp.CallToolResult)
	return ok && r != nil && r.IsError
}

// sessionOf returns the server session behind req, or nil.
func sessionOf(req mcp.Request) sessionLogger {
	if req == nil {
		return nil
	}
	s, ok := req.GetSession().(*mcp.ServerSession)
	if !ok || s == nil {
		return nil
	}
	return s
}

// emitClientLog sends a warning notification for a failed call. Delivery is
// best-effort.
func emitClientLog(ctx context.Context, logger sessionLogger, call toolCall) {
	msg := fmt.Sprintf("%s failed after %dms (request %s)", call.tool, call.duration.Milliseconds(), call.requestID)
	if err := logger.Log(ctx, &mcp.LoggingMessageParams{
		Level:  "warning",
		Logger: clientLoggerName,
		Data:   msg,
	}); err != nil {
		slog.Debug("client logging: failed to send log notification", "error", err)
	}
}
