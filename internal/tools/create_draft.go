package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/oyin-bo/autothread/internal/drafts"
	"github.com/oyin-bo/autothread/internal/mcp"
)

// CreateDraftTool splits long content into a thread-sized draft
type CreateDraftTool struct {
	store *drafts.Store
}

// NewCreateDraftTool creates a new create-draft tool
func NewCreateDraftTool(store *drafts.Store) *CreateDraftTool {
	return &CreateDraftTool{store: store}
}

// Name returns the tool name
func (t *CreateDraftTool) Name() string {
	return "bluesky_create_draft"
}

// Description returns the tool description
func (t *CreateDraftTool) Description() string {
	return "Create a draft from long-form content. The content is split into posts of at most 300 characters, " +
		"breaking at paragraphs, then sentences, then words. Review the preview, then publish it as a thread with bluesky_publish_draft."
}

// InputSchema returns the JSON schema for tool input
func (t *CreateDraftTool) InputSchema() mcp.InputSchema {
	return mcp.SchemaFor(&CreateDraftArgs{})
}

// Call executes the create-draft tool
func (t *CreateDraftTool) Call(ctx context.Context, args map[string]interface{}) (*mcp.ToolResult, error) {
	var input CreateDraftArgs
	if err := decodeArgs(args, &input); err != nil {
		return nil, err
	}

	draft, err := t.store.Create(input.Content, input.Title)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("# Draft Created\n\n")
	fmt.Fprintf(&sb, "**Draft ID:** %s\n", draft.ID)
	if draft.Title != "" {
		fmt.Fprintf(&sb, "**Title:** %s\n", draft.Title)
	}
	fmt.Fprintf(&sb, "**Thread length:** %s\n\n", pluralize(len(draft.Chunks), "post", "posts"))

	sb.WriteString("## Preview\n\n")
	formatChunks(&sb, draft.Chunks, 0)

	fmt.Fprintf(&sb, "Publish with `bluesky_publish_draft` using draftId `%s`.\n", draft.ID)

	return mcp.TextResult(sb.String()), nil
}
