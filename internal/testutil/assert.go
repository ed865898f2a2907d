package testutil

import (
	"strings"

	"github.com/oyin-bo/autothread/internal/mcp"
)

// Fataler is the subset of testing.TB the assertion helpers need
type Fataler interface {
	Fatalf(format string, args ...interface{})
}

// AssertToolResult is a helper to validate ToolResult structure. It returns
// the text of the single content item.
func AssertToolResult(t Fataler, result *mcp.ToolResult, wantError bool, expectedTextContains ...string) string {
	if result == nil {
		t.Fatalf("ToolResult is nil")
		return ""
	}

	if len(result.Content) != 1 {
		t.Fatalf("Expected exactly one content item, got %d", len(result.Content))
		return ""
	}

	item := result.Content[0]
	if item.Type != "text" {
		t.Fatalf("Expected content type 'text', got '%s'", item.Type)
	}
	if result.IsError != wantError {
		t.Fatalf("Expected isError=%v, got %v: %s", wantError, result.IsError, item.Text)
	}

	for _, want := range expectedTextContains {
		if !strings.Contains(item.Text, want) {
			t.Fatalf("Expected content to contain '%s', got: %s", want, item.Text)
		}
	}
	return item.Text
}
