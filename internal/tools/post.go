package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/oyin-bo/autothread/internal/bluesky"
	"github.com/oyin-bo/autothread/internal/mcp"
	"github.com/oyin-bo/autothread/internal/segment"
)

// PostClient is the part of the Bluesky client the post tool uses
type PostClient interface {
	Post(ctx context.Context, text string, reply *bluesky.ReplyRef) (*bluesky.StrongRef, error)
	ReplyTo(ctx context.Context, uri string) (*bluesky.ReplyRef, error)
}

// PostTool implements the post tool for creating single posts
type PostTool struct {
	client PostClient
}

// NewPostTool creates a new post tool
func NewPostTool(client PostClient) *PostTool {
	return &PostTool{client: client}
}

// Name returns the tool name
func (t *PostTool) Name() string {
	return "bluesky_post"
}

// Description returns the tool description
func (t *PostTool) Description() string {
	return fmt.Sprintf("Create a single post on Bluesky (max %d characters), optionally as a reply. "+
		"Use bluesky_create_draft for longer content.", segment.MaxPostLength)
}

// InputSchema returns the JSON schema for tool input
func (t *PostTool) InputSchema() mcp.InputSchema {
	return mcp.SchemaFor(&PostArgs{})
}

// Call executes the post tool
func (t *PostTool) Call(ctx context.Context, args map[string]interface{}) (*mcp.ToolResult, error) {
	var input PostArgs
	if err := decodeArgs(args, &input); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(input.Text)
	replyTo := strings.TrimSpace(input.ReplyTo)

	var reply *bluesky.ReplyRef
	if replyTo != "" {
		var err error
		if reply, err = t.client.ReplyTo(ctx, replyTo); err != nil {
			return nil, err
		}
	}

	ref, err := t.client.Post(ctx, text, reply)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("# Post Created\n\n")
	if reply != nil {
		fmt.Fprintf(&sb, "**Reply to:** %s\n\n", reply.Parent.URI)
	}
	sb.WriteString(BlockquoteContent(text))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "**Post URI:** %s\n", ref.URI)
	if url := bluesky.WebURL(ref.URI); url != "" {
		fmt.Fprintf(&sb, "**View:** %s\n", url)
	}

	return mcp.TextResult(sb.String()), nil
}
