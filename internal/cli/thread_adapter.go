package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oyin-bo/autothread/internal/drafts"
	"github.com/oyin-bo/autothread/internal/segment"
	"github.com/oyin-bo/autothread/internal/thread"
	"github.com/oyin-bo/autothread/internal/tools"
	"github.com/oyin-bo/autothread/pkg/errors"
)

// readContent returns the inline content, or the file contents when file is
// set ("-" reads stdin)
func readContent(content, file string, stdin io.Reader) (string, error) {
	if content != "" && file != "" {
		return "", errors.NewMCPError(errors.InvalidInput, "use either --content or --file, not both")
	}

	switch file {
	case "":
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		content = string(data)
	default:
		data, err := os.ReadFile(file)
		if err != nil {
			return "", errors.Wrap(err, errors.InvalidInput, "Failed to read content file")
		}
		content = string(data)
	}

	if strings.TrimSpace(content) == "" {
		return "", errors.NewMCPError(errors.InvalidInput, "no content given: pass --content or --file")
	}
	return content, nil
}

// SplitAdapter previews how text would be split into a thread. Nothing is
// stored or posted.
type SplitAdapter struct {
	stdin io.Reader
}

// NewSplitAdapter creates a new split preview adapter
func NewSplitAdapter() *SplitAdapter {
	return &SplitAdapter{stdin: os.Stdin}
}

// Execute runs the split preview
func (a *SplitAdapter) Execute(ctx context.Context, args interface{}) (string, error) {
	splitArgs, ok := args.(*SplitArgs)
	if !ok {
		return "", fmt.Errorf("invalid arguments type for split")
	}

	limit := splitArgs.Limit
	if limit == 0 {
		limit = segment.MaxPostLength
	}
	if limit < 1 || limit > segment.MaxPostLength {
		return "", errors.NewMCPError(errors.InvalidInput,
			fmt.Sprintf("limit must be between 1 and %d", segment.MaxPostLength))
	}

	content, err := readContent(splitArgs.Content, splitArgs.File, a.stdin)
	if err != nil {
		return "", err
	}

	chunks := segment.SplitWithLimit(content, limit)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Thread of %d posts (limit %d characters)\n", len(chunks), limit)
	for i, chunk := range chunks {
		fmt.Fprintf(&sb, "\n--- %d/%d (%d characters) ---\n%s\n", i+1, len(chunks), segment.Length(chunk), chunk)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// ThreadAdapter creates a draft and publishes it in one step. The draft
// lives only as long as the command, so nothing is left to resume after a
// failure.
type ThreadAdapter struct {
	store     *drafts.Store
	publisher tools.ThreadPublisher
	stdin     io.Reader
}

// NewThreadAdapter creates a new thread adapter
func NewThreadAdapter(store *drafts.Store, publisher tools.ThreadPublisher) *ThreadAdapter {
	return &ThreadAdapter{store: store, publisher: publisher, stdin: os.Stdin}
}

// Execute runs the thread command
func (a *ThreadAdapter) Execute(ctx context.Context, args interface{}) (string, error) {
	threadArgs, ok := args.(*ThreadArgs)
	if !ok {
		return "", fmt.Errorf("invalid arguments type for thread")
	}

	content, err := readContent(threadArgs.Content, threadArgs.File, a.stdin)
	if err != nil {
		return "", err
	}

	draft, err := a.store.Create(content, threadArgs.Title)
	if err != nil {
		return "", err
	}

	result, err := a.publisher.Publish(ctx, draft.ID)
	if err != nil {
		a.store.Delete(draft.ID)
		return "", err
	}
	if !result.Succeeded() {
		a.store.Delete(draft.ID)
		return "", errors.NewMCPErrorWithData(errors.PartialPublish, formatThreadFailure(result),
			map[string]interface{}{"published": result.URIs(), "failedIndex": result.FailedIndex})
	}
	return tools.FormatPublished(result), nil
}

// formatThreadFailure reports a partial publish from a one-shot run
func formatThreadFailure(result *thread.Result) string {
	message := "unknown error"
	if result.Err != nil {
		message = result.Err.Message
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Post %d of %d failed: %s\n", result.FailedIndex, result.Total, message)

	if len(result.Posts) == 0 {
		sb.WriteString("Nothing was published. Running the command again is safe.")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Published %d of %d posts:\n", len(result.Posts), result.Total)
	for i, uri := range result.URIs() {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, uri)
	}
	fmt.Fprintf(&sb, "The draft is not kept after this command exits. "+
		"Running the command again with the same content will post %s again; "+
		"delete them first or post the rest with 'autothread post --reply-to %s'.",
		pluralPosts(len(result.Posts)), result.Posts[len(result.Posts)-1].URI)
	return sb.String()
}

func pluralPosts(n int) string {
	if n == 1 {
		return "this post"
	}
	return fmt.Sprintf("these %d posts", n)
}
