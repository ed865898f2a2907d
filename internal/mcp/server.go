// Package mcp provides the MCP server implementation
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oyin-bo/autothread/pkg/errors"
)

// maxMessageSize bounds one JSON-RPC line; draft content can be long
const maxMessageSize = 8 * 1024 * 1024

// Tool represents a tool that can be called via MCP
type Tool interface {
	Name() string
	Description() string
	InputSchema() InputSchema
	Call(ctx context.Context, args map[string]interface{}) (*ToolResult, error)
}

// Server represents an MCP server
type Server struct {
	name    string
	version string
	tools   map[string]Tool
	logger  *zap.Logger
}

// NewServer creates a new MCP server
func NewServer(name, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		name:    name,
		version: version,
		tools:   make(map[string]Tool),
		logger:  logger,
	}
}

// RegisterTool registers a tool with the server
func (s *Server) RegisterTool(tool Tool) {
	s.tools[tool.Name()] = tool
	s.logger.Debug("registered tool", zap.String("tool", tool.Name()))
}

// ServeStdio starts the server in stdio mode
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads newline-delimited JSON-RPC messages from r and writes
// responses to w until r is exhausted or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		response := s.handleMessage(ctx, []byte(line))
		if response == nil {
			continue
		}
		if err := encoder.Encode(response); err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	return nil
}

// handleMessage returns nil for notifications
func (s *Server) handleMessage(ctx context.Context, line []byte) *JSONRPCResponse {
	var request JSONRPCRequest
	if err := json.Unmarshal(line, &request); err != nil {
		s.logger.Warn("failed to decode request", zap.Error(err))
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			Error:   &RPCError{Code: codeParseError, Message: "Parse error"},
		}
	}

	if request.ID == nil {
		s.logger.Debug("notification received", zap.String("method", request.Method))
		return nil
	}

	return s.handleRequest(ctx, &request)
}

// handleRequest processes a JSON-RPC request
func (s *Server) handleRequest(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	response := &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
	}

	switch req.Method {
	case "initialize":
		var params InitializeParams
		if len(req.Params) > 0 {
			_ = json.Unmarshal(req.Params, &params)
		}
		if params.ClientInfo != nil {
			s.logger.Info("client connected",
				zap.String("client", params.ClientInfo.Name),
				zap.String("client_version", params.ClientInfo.Version))
		}

		response.Result = &InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo: ServerInfo{
				Name:    s.name,
				Version: s.version,
			},
		}
	case "ping":
		response.Result = struct{}{}
	case "tools/list":
		response.Result = s.listTools()
	case "tools/call":
		result, rpcErr := s.callTool(ctx, req.Params)
		if rpcErr != nil {
			response.Error = rpcErr
		} else {
			response.Result = result
		}
	case "":
		response.Error = &RPCError{Code: codeInvalidRequest, Message: "Missing method"}
	default:
		response.Error = &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("Method not found: %s", req.Method)}
	}

	return response
}

// listTools returns information about all registered tools, sorted by name
func (s *Server) listTools() *ListToolsResult {
	tools := make([]ToolInfo, 0, len(s.tools))
	for _, tool := range s.tools {
		tools = append(tools, ToolInfo{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.InputSchema(),
		})
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return &ListToolsResult{Tools: tools}
}

// callTool executes a tool call. Errors returned by the tool are turned into
// an error result so the client always receives a well-formed response.
func (s *Server) callTool(ctx context.Context, params json.RawMessage) (result *ToolResult, rpcErr *RPCError) {
	var toolParams ToolCallParams
	if err := json.Unmarshal(params, &toolParams); err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("Failed to parse tool parameters: %v", err)}
	}

	tool, exists := s.tools[toolParams.Name]
	if !exists {
		return nil, &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("Tool not found: %s", toolParams.Name)}
	}

	logger := s.logger.With(zap.String("tool", toolParams.Name))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("tool panicked", zap.Any("panic", r), zap.Stack("stack"))
			result = ErrorResult(errors.NewMCPError(errors.InternalError, fmt.Sprintf("Unknown error: %v", r)))
			rpcErr = nil
		}
	}()

	if toolParams.Arguments == nil {
		toolParams.Arguments = map[string]interface{}{}
	}

	result, err := tool.Call(ctx, toolParams.Arguments)
	if err != nil {
		mcpErr := errors.Classify(err)
		logger.Info("tool call failed",
			zap.String("code", string(mcpErr.Code)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return ErrorResult(mcpErr), nil
	}
	if result == nil {
		result = TextResult("")
	}

	logger.Info("tool call completed",
		zap.Bool("is_error", result.IsError),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// ErrorResult renders an error as a uniform text result with isError set
func ErrorResult(err error) *ToolResult {
	mcpErr := errors.Classify(err)
	result := TextResult(fmt.Sprintf("Error: %s", mcpErr.Message))
	result.IsError = true
	return result
}
