package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bluesky-social/indigo/xrpc"
)

const (
	rateLimitGuidance = "Bluesky rate limit reached. Wait a few minutes before trying again"
	timeoutGuidance   = "The request to Bluesky timed out. Check your connection and try again"
	authGuidance      = "Bluesky rejected the session. Log in again with an app password"
)

// Classify converts any error into an MCPError. Errors that already carry a
// code are returned unchanged; remote failures are mapped by status code
// first and by message pattern second.
func Classify(err error) *MCPError {
	if err == nil {
		return nil
	}

	if mcpErr, ok := As(err); ok {
		return mcpErr
	}

	var xrpcErr *xrpc.Error
	if stderrors.As(err, &xrpcErr) {
		switch xrpcErr.StatusCode {
		case http.StatusTooManyRequests:
			return Wrap(err, RateLimited, rateLimitGuidance)
		case http.StatusUnauthorized:
			return Wrap(err, Unauthorized, authGuidance)
		case http.StatusGatewayTimeout, http.StatusRequestTimeout:
			return Wrap(err, Timeout, timeoutGuidance)
		}
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, Timeout, timeoutGuidance)
	}
	if stderrors.Is(err, context.Canceled) {
		return Wrap(err, Timeout, "The request was cancelled")
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "ratelimit") || strings.Contains(msg, "status 429"):
		return Wrap(err, RateLimited, rateLimitGuidance)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") || strings.Contains(msg, "deadline exceeded"):
		return Wrap(err, Timeout, timeoutGuidance)
	case strings.Contains(msg, "expiredtoken") || strings.Contains(msg, "invalid token") || strings.Contains(msg, "authentication required"):
		return Wrap(err, Unauthorized, authGuidance)
	}

	if xrpcErr != nil {
		return Wrap(err, RemoteError, fmt.Sprintf("Bluesky returned status %d", xrpcErr.StatusCode))
	}

	return Wrap(err, InternalError, "Unknown error")
}
