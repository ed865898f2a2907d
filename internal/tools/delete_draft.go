package tools

import (
	"context"
	"fmt"

	"github.com/oyin-bo/autothread/internal/drafts"
	"github.com/oyin-bo/autothread/internal/mcp"
)

// DeleteDraftTool discards a draft without publishing it
type DeleteDraftTool struct {
	store *drafts.Store
}

// NewDeleteDraftTool creates a new delete-draft tool
func NewDeleteDraftTool(store *drafts.Store) *DeleteDraftTool {
	return &DeleteDraftTool{store: store}
}

// Name returns the tool name
func (t *DeleteDraftTool) Name() string {
	return "bluesky_delete_draft"
}

// Description returns the tool description
func (t *DeleteDraftTool) Description() string {
	return "Discard a draft. Posts already published from it stay on Bluesky."
}

// InputSchema returns the JSON schema for tool input
func (t *DeleteDraftTool) InputSchema() mcp.InputSchema {
	return mcp.SchemaFor(&DeleteDraftArgs{})
}

// Call executes the delete-draft tool. It waits for a publish of the same
// draft to finish first.
func (t *DeleteDraftTool) Call(ctx context.Context, args map[string]interface{}) (*mcp.ToolResult, error) {
	var input DeleteDraftArgs
	if err := decodeArgs(args, &input); err != nil {
		return nil, err
	}

	unlock := t.store.Lock(input.DraftID)
	defer unlock()

	if !t.store.Delete(input.DraftID) {
		return mcp.TextResult(fmt.Sprintf("Draft %s not found.", input.DraftID)), nil
	}
	return mcp.TextResult(fmt.Sprintf("Draft %s deleted.", input.DraftID)), nil
}
