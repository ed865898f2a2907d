package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/oyin-bo/autothread/internal/drafts"
	"github.com/oyin-bo/autothread/internal/mcp"
)

// ListDraftsTool summarises the drafts held in memory
type ListDraftsTool struct {
	store        *drafts.Store
	defaultLimit int
}

// NewListDraftsTool creates a new list-drafts tool. A non-positive
// defaultLimit falls back to 10.
func NewListDraftsTool(store *drafts.Store, defaultLimit int) *ListDraftsTool {
	if defaultLimit <= 0 || defaultLimit > 50 {
		defaultLimit = 10
	}
	return &ListDraftsTool{store: store, defaultLimit: defaultLimit}
}

// Name returns the tool name
func (t *ListDraftsTool) Name() string {
	return "bluesky_list_drafts"
}

// Description returns the tool description
func (t *ListDraftsTool) Description() string {
	return "List unpublished drafts in creation order with their id, title, creation time, post count and a short preview."
}

// InputSchema returns the JSON schema for tool input
func (t *ListDraftsTool) InputSchema() mcp.InputSchema {
	return mcp.SchemaFor(&ListDraftsArgs{})
}

// Call executes the list-drafts tool
func (t *ListDraftsTool) Call(ctx context.Context, args map[string]interface{}) (*mcp.ToolResult, error) {
	var input ListDraftsArgs
	if err := decodeArgs(args, &input); err != nil {
		return nil, err
	}

	limit := t.defaultLimit
	if input.Limit != nil {
		limit = *input.Limit
	}

	list, total := t.store.List(limit)
	if total == 0 {
		return mcp.TextResult("No drafts found."), nil
	}

	var sb strings.Builder
	sb.WriteString("# Drafts\n\n")
	fmt.Fprintf(&sb, "Showing %d of %d drafts\n\n", len(list), total)

	for _, draft := range list {
		fmt.Fprintf(&sb, "## %s · %s\n\n", draft.ID, draft.DisplayTitle())
		fmt.Fprintf(&sb, "**Created:** %s\n", FormatTimestamp(draft.CreatedAt))
		fmt.Fprintf(&sb, "**Posts:** %d\n", len(draft.Chunks))
		if published := len(t.store.Checkpoint(draft.ID)); published > 0 {
			fmt.Fprintf(&sb, "**Published so far:** %d of %d\n", published, len(draft.Chunks))
		}
		sb.WriteString("\n")
		sb.WriteString(BlockquoteContent(draft.Preview(listPreviewLength)))
		sb.WriteString("\n\n")
	}

	return mcp.TextResult(strings.TrimRight(sb.String(), "\n") + "\n"), nil
}
