package cli

import (
	"context"

	"github.com/oyin-bo/autothread/internal/mcp"
	"github.com/oyin-bo/autothread/pkg/errors"
)

// MCPToolAdapter wraps an MCP tool for CLI use
type MCPToolAdapter struct {
	tool      mcp.Tool
	errorCode errors.ErrorCode
}

// NewMCPToolAdapter creates a new adapter for an MCP tool. Results flagged
// as errors are returned as errors with the given code so the process exits
// non-zero.
func NewMCPToolAdapter(tool mcp.Tool, errorCode errors.ErrorCode) *MCPToolAdapter {
	return &MCPToolAdapter{tool: tool, errorCode: errorCode}
}

// Execute runs the tool and returns markdown output
func (a *MCPToolAdapter) Execute(ctx context.Context, args interface{}) (string, error) {
	argsMap, err := ConvertToMap(args)
	if err != nil {
		return "", err
	}

	return callTool(ctx, a.tool, argsMap, a.errorCode)
}

func callTool(ctx context.Context, tool mcp.Tool, args map[string]interface{}, errorCode errors.ErrorCode) (string, error) {
	result, err := tool.Call(ctx, args)
	if err != nil {
		return "", err
	}

	text := ""
	if result != nil && len(result.Content) > 0 && result.Content[0].Type == "text" {
		text = result.Content[0].Text
	}
	if result != nil && result.IsError {
		return "", errors.NewMCPError(errorCode, text)
	}
	return text, nil
}

// RequireSession runs ensure before execute, for commands that post
func RequireSession(ensure func(ctx context.Context) error, execute ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, args interface{}) (string, error) {
		if err := ensure(ctx); err != nil {
			return "", err
		}
		return execute(ctx, args)
	}
}
