package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/oyin-bo/autothread/internal/bluesky"
	"github.com/oyin-bo/autothread/internal/drafts"
	"github.com/oyin-bo/autothread/internal/segment"
)

// listPreviewLength bounds the content preview shown per draft in listings
const listPreviewLength = 50

// BlockquoteContent prefixes every line with "> " for Markdown blockquote
func BlockquoteContent(text string) string {
	if text == "" {
		return "> \n"
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = fmt.Sprintf("> %s", line)
	}

	return strings.Join(lines, "\n")
}

// FormatTimestamp renders a time as ISO 8601 UTC without fractional seconds
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// formatChunks renders every chunk with its 1-based index and grapheme size
func formatChunks(sb *strings.Builder, chunks []string, published int) {
	total := len(chunks)
	for i, chunk := range chunks {
		fmt.Fprintf(sb, "### %d/%d (%d characters)", i+1, total, segment.Length(chunk))
		if i < published {
			sb.WriteString(" · published")
		}
		sb.WriteString("\n\n")
		sb.WriteString(BlockquoteContent(chunk))
		sb.WriteString("\n\n")
	}
}

// formatPostList renders published posts as a numbered list with web links
func formatPostList(sb *strings.Builder, posts []drafts.PublishedPost) {
	for i, post := range posts {
		if url := bluesky.WebURL(post.URI); url != "" {
			fmt.Fprintf(sb, "%d. %s (%s)\n", i+1, post.URI, url)
		} else {
			fmt.Fprintf(sb, "%d. %s\n", i+1, post.URI)
		}
	}
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
