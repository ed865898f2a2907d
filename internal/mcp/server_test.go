package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/oyin-bo/autothread/pkg/errors"
)

type mockTool struct {
	name        string
	description string
	call        func(ctx context.Context, args map[string]interface{}) (*ToolResult, error)
}

func (m *mockTool) Name() string        { return m.name }
func (m *mockTool) Description() string { return m.description }
func (m *mockTool) InputSchema() InputSchema {
	return InputSchema{Type: "object", Properties: map[string]PropertySchema{}}
}
func (m *mockTool) Call(ctx context.Context, args map[string]interface{}) (*ToolResult, error) {
	if m.call != nil {
		return m.call(ctx, args)
	}
	return TextResult("ok"), nil
}

// roundTrip feeds newline-delimited requests through Serve and returns the
// decoded responses
func roundTrip(t *testing.T, server *Server, requests ...string) []JSONRPCResponse {
	t.Helper()

	var out bytes.Buffer
	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	if err := server.Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	var responses []JSONRPCResponse
	decoder := json.NewDecoder(&out)
	for decoder.More() {
		var resp JSONRPCResponse
		if err := decoder.Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		responses = append(responses, resp)
	}
	return responses
}

func TestToolsListResponse(t *testing.T) {
	server := NewServer("test", "0.0.1", nil)

	result := server.listTools()
	if result == nil || result.Tools == nil {
		t.Fatal("Tools list should not be nil")
	}
	if len(result.Tools) != 0 {
		t.Errorf("Expected 0 tools in empty server, got %d", len(result.Tools))
	}

	server.RegisterTool(&mockTool{name: "zeta"})
	server.RegisterTool(&mockTool{name: "alpha"})
	server.RegisterTool(&mockTool{name: "mid"})

	result = server.listTools()
	names := []string{result.Tools[0].Name, result.Tools[1].Name, result.Tools[2].Name}
	if strings.Join(names, ",") != "alpha,mid,zeta" {
		t.Errorf("Expected tools sorted by name, got %v", names)
	}
}

func TestServe_InitializeAndNotifications(t *testing.T) {
	server := NewServer("autothread", "1.2.3", nil)

	responses := roundTrip(t, server,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"clientInfo":{"name":"test-client"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	)

	if len(responses) != 2 {
		t.Fatalf("Expected 2 responses (notification unanswered), got %d", len(responses))
	}

	result, _ := json.Marshal(responses[0].Result)
	var init InitializeResult
	json.Unmarshal(result, &init)
	if init.ServerInfo.Name != "autothread" || init.ProtocolVersion != ProtocolVersion {
		t.Errorf("Unexpected initialize result %s", result)
	}
	if responses[1].Error != nil {
		t.Errorf("Expected ping to succeed, got %v", responses[1].Error)
	}
}

func TestServe_ToolCall(t *testing.T) {
	server := NewServer("test", "0.0.1", nil)
	server.RegisterTool(&mockTool{
		name: "echo",
		call: func(ctx context.Context, args map[string]interface{}) (*ToolResult, error) {
			return TextResult(fmt.Sprintf("echo: %v", args["text"])), nil
		},
	})

	responses := roundTrip(t, server,
		`{"jsonrpc":"2.0","id":"a","method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`,
	)

	raw, _ := json.Marshal(responses[0].Result)
	var result ToolResult
	json.Unmarshal(raw, &result)
	if len(result.Content) != 1 || result.Content[0].Text != "echo: hi" || result.IsError {
		t.Errorf("Unexpected result %s", raw)
	}
}

func TestServe_ToolErrorsBecomeResults(t *testing.T) {
	server := NewServer("test", "0.0.1", nil)
	server.RegisterTool(&mockTool{
		name: "invalid",
		call: func(ctx context.Context, args map[string]interface{}) (*ToolResult, error) {
			return nil, errors.NewMCPError(errors.InvalidInput, "Invalid arguments:\n- content: is required")
		},
	})
	server.RegisterTool(&mockTool{
		name: "unknown",
		call: func(ctx context.Context, args map[string]interface{}) (*ToolResult, error) {
			return nil, fmt.Errorf("something odd")
		},
	})
	server.RegisterTool(&mockTool{
		name: "panics",
		call: func(ctx context.Context, args map[string]interface{}) (*ToolResult, error) {
			panic("boom")
		},
	})

	responses := roundTrip(t, server,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"invalid","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"unknown"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"panics"}}`,
	)

	expected := []string{
		"Error: Invalid arguments:\n- content: is required",
		"Error: Unknown error: something odd",
		"Error: Unknown error: boom",
	}
	for i, resp := range responses {
		if resp.Error != nil {
			t.Errorf("Response %d: expected a result, got RPC error %v", i, resp.Error)
			continue
		}
		raw, _ := json.Marshal(resp.Result)
		var result ToolResult
		json.Unmarshal(raw, &result)
		if !result.IsError {
			t.Errorf("Response %d: expected isError", i)
		}
		if len(result.Content) != 1 || result.Content[0].Text != expected[i] {
			t.Errorf("Response %d: expected %q, got %s", i, expected[i], raw)
		}
	}
}

func TestServe_ProtocolErrors(t *testing.T) {
	server := NewServer("test", "0.0.1", nil)

	responses := roundTrip(t, server,
		`{not json`,
		`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"missing"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	)

	if len(responses) != 4 {
		t.Fatalf("Expected 4 responses, got %d", len(responses))
	}
	codes := []int{codeParseError, codeMethodNotFound, codeInvalidParams}
	for i, code := range codes {
		if responses[i].Error == nil || responses[i].Error.Code != code {
			t.Errorf("Response %d: expected error code %d, got %+v", i, code, responses[i].Error)
		}
	}
	if responses[3].Error != nil {
		t.Error("Expected server to keep serving after a malformed line")
	}
}

func TestSchemaFor(t *testing.T) {
	type args struct {
		Content string `json:"content" jsonschema:"required,description=Text to post"`
		Limit   int    `json:"limit,omitempty" jsonschema:"description=Maximum results,minimum=1,maximum=50,default=10"`
	}

	schema := SchemaFor(&args{})
	if schema.Type != "object" {
		t.Errorf("Expected object schema, got %s", schema.Type)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "content" {
		t.Errorf("Expected [content] required, got %v", schema.Required)
	}

	content := schema.Properties["content"]
	if content.Type != "string" || content.Description != "Text to post" {
		t.Errorf("Unexpected content property %+v", content)
	}

	limit := schema.Properties["limit"]
	if limit.Type != "integer" || limit.Minimum != "1" || limit.Maximum != "50" {
		t.Errorf("Unexpected limit property %+v", limit)
	}
}
