package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/oyin-bo/autothread/internal/bluesky"
	"github.com/oyin-bo/autothread/internal/mcp"
	"github.com/oyin-bo/autothread/internal/thread"
	"github.com/oyin-bo/autothread/pkg/errors"
)

// ThreadPublisher publishes a stored draft as a thread
type ThreadPublisher interface {
	Publish(ctx context.Context, draftID string) (*thread.Result, error)
}

// PublishDraftTool posts a draft as a reply chain
type PublishDraftTool struct {
	publisher ThreadPublisher
}

// NewPublishDraftTool creates a new publish-draft tool
func NewPublishDraftTool(publisher ThreadPublisher) *PublishDraftTool {
	return &PublishDraftTool{publisher: publisher}
}

// Name returns the tool name
func (t *PublishDraftTool) Name() string {
	return "bluesky_publish_draft"
}

// Description returns the tool description
func (t *PublishDraftTool) Description() string {
	return "Publish a draft as a Bluesky thread, each post replying to the previous one. " +
		"If a post fails part-way, the draft is kept and publishing it again continues after the last published post."
}

// InputSchema returns the JSON schema for tool input
func (t *PublishDraftTool) InputSchema() mcp.InputSchema {
	return mcp.SchemaFor(&PublishDraftArgs{})
}

// Call executes the publish-draft tool
func (t *PublishDraftTool) Call(ctx context.Context, args map[string]interface{}) (*mcp.ToolResult, error) {
	var input PublishDraftArgs
	if err := decodeArgs(args, &input); err != nil {
		return nil, err
	}

	result, err := t.publisher.Publish(ctx, input.DraftID)
	if err != nil {
		if errors.HasCode(err, errors.NotFound) {
			return mcp.TextResult(fmt.Sprintf("Draft %s not found.", input.DraftID)), nil
		}
		return nil, err
	}

	if !result.Succeeded() {
		return formatPartialPublish(result), nil
	}
	return mcp.TextResult(FormatPublished(result)), nil
}

// FormatPublished renders a fully published thread as markdown
func FormatPublished(result *thread.Result) string {
	var sb strings.Builder
	sb.WriteString("# Thread Published\n\n")
	fmt.Fprintf(&sb, "**Draft ID:** %s (removed from drafts)\n", result.DraftID)
	fmt.Fprintf(&sb, "**Posts:** %d\n", result.Total)
	fmt.Fprintf(&sb, "**Thread root:** %s\n", result.RootURI())
	if url := bluesky.WebURL(result.RootURI()); url != "" {
		fmt.Fprintf(&sb, "**View:** %s\n", url)
	}
	if result.Resumed > 0 {
		fmt.Fprintf(&sb, "**Resumed:** posts 1-%d were published by an earlier attempt\n", result.Resumed)
	}
	sb.WriteString("\n")
	formatPostList(&sb, result.Posts)
	return sb.String()
}

func formatPartialPublish(result *thread.Result) *mcp.ToolResult {
	message := "Unknown error"
	if result.Err != nil {
		message = result.Err.Message
	}

	var sb strings.Builder
	sb.WriteString("# Thread Partially Published\n\n")
	fmt.Fprintf(&sb, "Post %d of %d failed: %s\n\n", result.FailedIndex, result.Total, message)
	fmt.Fprintf(&sb, "**Published:** %d of %d posts\n", len(result.Posts), result.Total)
	if len(result.Posts) > 0 {
		sb.WriteString("\n")
		formatPostList(&sb, result.Posts)
	}
	fmt.Fprintf(&sb, "\nDraft %s was kept. Publish it again to continue from post %d.\n",
		result.DraftID, result.FailedIndex)

	toolResult := mcp.TextResult(sb.String())
	toolResult.IsError = true
	return toolResult
}
