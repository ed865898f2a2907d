package bluesky

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	appbsky "github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/atproto/syntax"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
	"go.uber.org/zap"

	"github.com/oyin-bo/autothread/internal/segment"
	"github.com/oyin-bo/autothread/pkg/errors"
)

const userAgent = "autothread/1.0"

// Refresher obtains a fresh session when the current access token expires
type Refresher func(ctx context.Context) (*xrpc.AuthInfo, error)

// Client provides the posting and record lookups the thread publisher needs
type Client struct {
	httpClient *http.Client
	host       string
	logger     *zap.Logger

	mu        sync.RWMutex
	auth      *xrpc.AuthInfo
	refresher Refresher
}

// NewClient creates a client for the given PDS host. auth may be nil for
// unauthenticated lookups.
func NewClient(host string, timeout time.Duration, auth *xrpc.AuthInfo, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		host:       strings.TrimRight(host, "/"),
		logger:     logger,
		auth:       auth,
	}
}

// SetRefresher installs the callback used after an ExpiredToken response
func (c *Client) SetRefresher(fn Refresher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresher = fn
}

// SetAuth replaces the session used for authenticated calls
func (c *Client) SetAuth(auth *xrpc.AuthInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = auth
}

// DID returns the DID of the logged-in account, or ""
func (c *Client) DID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.auth == nil {
		return ""
	}
	return c.auth.Did
}

// Handle returns the handle of the logged-in account, or ""
func (c *Client) Handle() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.auth == nil {
		return ""
	}
	return c.auth.Handle
}

func (c *Client) lexClient() *xrpc.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ua := userAgent
	xc := &xrpc.Client{
		Client:    c.httpClient,
		Host:      c.host,
		UserAgent: &ua,
	}
	if c.auth != nil {
		auth := *c.auth
		xc.Auth = &auth
	}
	return xc
}

// withSession runs call and, if the access token has expired, refreshes the
// session once and runs it again.
func (c *Client) withSession(ctx context.Context, call func(xc *xrpc.Client) error) error {
	err := call(c.lexClient())
	if err == nil || !isExpiredToken(err) {
		return err
	}

	c.mu.RLock()
	refresh := c.refresher
	c.mu.RUnlock()
	if refresh == nil {
		return err
	}

	c.logger.Info("access token expired, refreshing session")
	auth, refreshErr := refresh(ctx)
	if refreshErr != nil {
		return fmt.Errorf("failed to refresh session: %w", refreshErr)
	}
	c.SetAuth(auth)

	return call(c.lexClient())
}

// Post creates a post, optionally as a reply. Links, mentions and hashtags
// are attached as facets. Text over the grapheme limit is rejected with the
// exact overage before anything is sent.
func (c *Client) Post(ctx context.Context, text string, reply *ReplyRef) (*StrongRef, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.NewMCPError(errors.InvalidInput, "post text cannot be empty")
	}
	if n := segment.Length(text); n > segment.MaxPostLength {
		overage := n - segment.MaxPostLength
		return nil, errors.NewMCPErrorWithData(errors.LengthExceeded,
			fmt.Sprintf("Post is %d characters, %d over the %d character limit", n, overage, segment.MaxPostLength),
			map[string]int{"length": n, "limit": segment.MaxPostLength, "overage": overage})
	}

	did := c.DID()
	if did == "" {
		return nil, errors.NewMCPError(errors.Unauthorized, "Not logged in to Bluesky")
	}

	record := &appbsky.FeedPost{
		CreatedAt: syntax.DatetimeNow().String(),
		Text:      text,
		Facets:    DetectFacets(ctx, text, c.ResolveHandle),
		Reply:     reply.toLex(),
	}

	var out *comatproto.RepoCreateRecord_Output
	err := c.withSession(ctx, func(xc *xrpc.Client) error {
		var err error
		out, err = comatproto.RepoCreateRecord(ctx, xc, &comatproto.RepoCreateRecord_Input{
			Collection: PostCollection,
			Repo:       did,
			Record:     &lexutil.LexiconTypeDecoder{Val: record},
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	if err := ValidateCID(out.Cid); err != nil {
		return nil, fmt.Errorf("createRecord response: %w", err)
	}

	c.logger.Debug("post created",
		zap.String("uri", out.Uri),
		zap.Bool("reply", record.Reply != nil),
		zap.Int("facets", len(record.Facets)))

	return &StrongRef{URI: out.Uri, CID: out.Cid}, nil
}

// GetPost fetches a post record by at:// URI or bsky.app URL
func (c *Client) GetPost(ctx context.Context, uri string) (*PostRecord, error) {
	ref, err := ParsePostURI(uri)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "Invalid post URI")
	}

	var out *comatproto.RepoGetRecord_Output
	err = c.withSession(ctx, func(xc *xrpc.Client) error {
		var err error
		out, err = comatproto.RepoGetRecord(ctx, xc, "", ref.Collection, ref.Repo, ref.RKey)
		return err
	})
	if err != nil {
		if isRecordNotFound(err) {
			return nil, errors.Wrap(err, errors.NotFound, fmt.Sprintf("Post not found: %s", uri))
		}
		return nil, fmt.Errorf("failed to get record %s: %w", uri, err)
	}

	if out.Cid == nil {
		return nil, errors.NewMCPError(errors.NotFound, fmt.Sprintf("Post %s has no content identifier yet", uri))
	}
	if err := ValidateCID(*out.Cid); err != nil {
		return nil, fmt.Errorf("getRecord response: %w", err)
	}

	record := &PostRecord{URI: out.Uri, CID: *out.Cid}
	if out.Value != nil {
		if post, ok := out.Value.Val.(*appbsky.FeedPost); ok {
			record.Text = post.Text
			record.Reply = replyFromLex(post.Reply)
		}
	}
	return record, nil
}

// ResolveCID returns the content identifier of the post at uri
func (c *Client) ResolveCID(ctx context.Context, uri string) (string, error) {
	record, err := c.GetPost(ctx, uri)
	if err != nil {
		return "", err
	}
	return record.CID, nil
}

// ReplyTo builds the reply reference for answering the post at uri. The root
// is inherited from the target when the target is itself a reply.
func (c *Client) ReplyTo(ctx context.Context, uri string) (*ReplyRef, error) {
	target, err := c.GetPost(ctx, uri)
	if err != nil {
		return nil, err
	}

	parent := &StrongRef{URI: target.URI, CID: target.CID}
	root := parent
	if target.Reply != nil && target.Reply.Root != nil {
		root = target.Reply.Root
	}
	return &ReplyRef{Root: root, Parent: parent}, nil
}

// ResolveHandle maps a handle to its DID
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	handle = NormalizeHandle(handle)
	if IsLikelyDID(handle) {
		return handle, nil
	}

	var out *comatproto.IdentityResolveHandle_Output
	err := c.withSession(ctx, func(xc *xrpc.Client) error {
		var err error
		out, err = comatproto.IdentityResolveHandle(ctx, xc, handle)
		return err
	})
	if err != nil {
		c.logger.Debug("handle did not resolve", zap.String("handle", handle), zap.Error(err))
		return "", fmt.Errorf("failed to resolve handle %s: %w", handle, err)
	}
	return out.Did, nil
}

func isExpiredToken(err error) bool {
	var xrpcErr *xrpc.Error
	if !stderrors.As(err, &xrpcErr) {
		return false
	}
	return strings.Contains(err.Error(), "ExpiredToken")
}

func isRecordNotFound(err error) bool {
	var xrpcErr *xrpc.Error
	if !stderrors.As(err, &xrpcErr) {
		return false
	}
	return xrpcErr.StatusCode == http.StatusNotFound || strings.Contains(err.Error(), "RecordNotFound")
}
