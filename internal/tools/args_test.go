package tools

import (
	"strings"
	"testing"

	"github.com/oyin-bo/autothread/pkg/errors"
)

func TestDecodeArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]interface{}
		dst      interface{}
		wantErrs []string
	}{
		{
			name: "valid draft",
			args: map[string]interface{}{"content": "Hello", "title": "Greeting"},
			dst:  &CreateDraftArgs{},
		},
		{
			name:     "missing content",
			args:     map[string]interface{}{},
			dst:      &CreateDraftArgs{},
			wantErrs: []string{"content: is required"},
		},
		{
			name:     "blank content",
			args:     map[string]interface{}{"content": "  \n\t "},
			dst:      &CreateDraftArgs{},
			wantErrs: []string{"content: is required"},
		},
		{
			name:     "every failing field listed",
			args:     map[string]interface{}{"title": strings.Repeat("t", 201)},
			dst:      &CreateDraftArgs{},
			wantErrs: []string{"content: is required", "title: must be at most 200 characters"},
		},
		{
			name:     "wrong type",
			args:     map[string]interface{}{"content": 42},
			dst:      &CreateDraftArgs{},
			wantErrs: []string{"content: must be a string"},
		},
		{
			name: "limit omitted",
			args: map[string]interface{}{},
			dst:  &ListDraftsArgs{},
		},
		{
			name:     "limit too small",
			args:     map[string]interface{}{"limit": 0},
			dst:      &ListDraftsArgs{},
			wantErrs: []string{"limit: must be at least 1"},
		},
		{
			name:     "limit too large",
			args:     map[string]interface{}{"limit": 51},
			dst:      &ListDraftsArgs{},
			wantErrs: []string{"limit: must be at most 50"},
		},
		{
			name:     "limit not a number",
			args:     map[string]interface{}{"limit": "ten"},
			dst:      &ListDraftsArgs{},
			wantErrs: []string{"limit: must be an integer"},
		},
		{
			name:     "missing draft id",
			args:     map[string]interface{}{"draftId": ""},
			dst:      &PublishDraftArgs{},
			wantErrs: []string{"draftId: is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeArgs(tt.args, tt.dst)
			if len(tt.wantErrs) == 0 {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}

			if !errors.HasCode(err, errors.InvalidInput) {
				t.Fatalf("Expected invalid_input error, got %v", err)
			}
			mcpErr, _ := errors.As(err)
			if !strings.HasPrefix(mcpErr.Message, "Invalid arguments:\n- ") {
				t.Errorf("Unexpected message format: %q", mcpErr.Message)
			}
			for _, want := range tt.wantErrs {
				if !strings.Contains(mcpErr.Message, want) {
					t.Errorf("Expected message to contain %q, got %q", want, mcpErr.Message)
				}
			}
		})
	}
}

func TestDecodeArgs_LimitValue(t *testing.T) {
	var input ListDraftsArgs
	if err := decodeArgs(map[string]interface{}{"limit": float64(25)}, &input); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if input.Limit == nil || *input.Limit != 25 {
		t.Errorf("Expected limit 25, got %v", input.Limit)
	}
}
