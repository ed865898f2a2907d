package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/oyin-bo/autothread/internal/drafts"
	"github.com/oyin-bo/autothread/internal/mcp"
)

// GetDraftTool shows a draft in full
type GetDraftTool struct {
	store *drafts.Store
}

// NewGetDraftTool creates a new get-draft tool
func NewGetDraftTool(store *drafts.Store) *GetDraftTool {
	return &GetDraftTool{store: store}
}

// Name returns the tool name
func (t *GetDraftTool) Name() string {
	return "bluesky_get_draft"
}

// Description returns the tool description
func (t *GetDraftTool) Description() string {
	return "Show a draft with every post of the planned thread, including progress of an interrupted publish."
}

// InputSchema returns the JSON schema for tool input
func (t *GetDraftTool) InputSchema() mcp.InputSchema {
	return mcp.SchemaFor(&GetDraftArgs{})
}

// Call executes the get-draft tool
func (t *GetDraftTool) Call(ctx context.Context, args map[string]interface{}) (*mcp.ToolResult, error) {
	var input GetDraftArgs
	if err := decodeArgs(args, &input); err != nil {
		return nil, err
	}

	draft, ok := t.store.Get(input.DraftID)
	if !ok {
		return mcp.TextResult(fmt.Sprintf("Draft %s not found.", input.DraftID)), nil
	}
	published := t.store.Checkpoint(draft.ID)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Draft %s\n\n", draft.ID)
	fmt.Fprintf(&sb, "**Title:** %s\n", draft.DisplayTitle())
	fmt.Fprintf(&sb, "**Created:** %s\n", FormatTimestamp(draft.CreatedAt))
	fmt.Fprintf(&sb, "**Thread length:** %s\n", pluralize(len(draft.Chunks), "post", "posts"))

	if len(published) > 0 {
		fmt.Fprintf(&sb, "**Published so far:** %d of %d (publishing again resumes at post %d)\n\n",
			len(published), len(draft.Chunks), len(published)+1)
		formatPostList(&sb, published)
	}
	sb.WriteString("\n## Posts\n\n")
	formatChunks(&sb, draft.Chunks, len(published))

	return mcp.TextResult(strings.TrimRight(sb.String(), "\n") + "\n"), nil
}
