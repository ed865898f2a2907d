// Package thread publishes drafts as reply chains
package thread

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/oyin-bo/autothread/internal/bluesky"
	"github.com/oyin-bo/autothread/internal/drafts"
	"github.com/oyin-bo/autothread/pkg/errors"
)

// Poster is the slice of the remote API the publisher needs
type Poster interface {
	Post(ctx context.Context, text string, reply *bluesky.ReplyRef) (*bluesky.StrongRef, error)
	ResolveCID(ctx context.Context, uri string) (string, error)
}

// Options tunes pacing between dependent posts
type Options struct {
	// Delay is the pause after each successful post
	Delay time.Duration

	// ResolveTimeout bounds how long a fresh post may take to become
	// resolvable before it can be replied to
	ResolveTimeout time.Duration

	ResolveAttempts uint
	RetryDelay      time.Duration
}

// DefaultOptions returns the pacing used against the public network
func DefaultOptions() Options {
	return Options{
		Delay:           500 * time.Millisecond,
		ResolveTimeout:  10 * time.Second,
		ResolveAttempts: 5,
		RetryDelay:      250 * time.Millisecond,
	}
}

// Result describes one publish attempt
type Result struct {
	DraftID string
	Total   int
	Posts   []drafts.PublishedPost

	// Resumed counts posts carried over from an earlier failed attempt
	Resumed int

	// FailedIndex is the 1-based chunk that failed, 0 on success
	FailedIndex int
	Err         *errors.MCPError
}

// Succeeded reports whether every chunk was published
func (r *Result) Succeeded() bool {
	return r.Err == nil && len(r.Posts) == r.Total
}

// RootURI returns the first post of the thread, or ""
func (r *Result) RootURI() string {
	if len(r.Posts) == 0 {
		return ""
	}
	return r.Posts[0].URI
}

// URIs returns the published post URIs in thread order
func (r *Result) URIs() []string {
	uris := make([]string, len(r.Posts))
	for i, p := range r.Posts {
		uris[i] = p.URI
	}
	return uris
}

// Publisher posts draft chunks in order, each replying to the previous one
type Publisher struct {
	store  *drafts.Store
	poster Poster
	opts   Options
	logger *zap.Logger
	group  singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the context of one shared publish run. It is cancelled only
// once every caller waiting on the run has given up.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewPublisher creates a publisher over the given store and remote API
func NewPublisher(store *drafts.Store, poster Poster, opts Options, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ResolveAttempts == 0 {
		opts.ResolveAttempts = 1
	}
	if opts.ResolveTimeout <= 0 {
		opts.ResolveTimeout = DefaultOptions().ResolveTimeout
	}
	return &Publisher{
		store:  store,
		poster: poster,
		opts:    opts,
		logger:  logger,
		flights: make(map[string]*flight),
	}
}

// Publish posts every unpublished chunk of the draft as a thread. A missing
// or empty draft is reported as an error with no side effects. A failure
// part-way through is not an error: the returned Result carries the failing
// index, and the draft is kept with a checkpoint so a later call resumes
// after the last published chunk. On full success the draft is deleted.
//
// Concurrent calls for the same draft share a single run. A caller whose
// context ends while others still wait gets a timeout error and the run
// carries on; the run itself is cancelled when its last waiter gives up.
func (p *Publisher) Publish(ctx context.Context, draftID string) (*Result, error) {
	if ctx.Err() != nil {
		return p.publish(ctx, draftID)
	}

	f := p.join(ctx, draftID)
	ch := p.group.DoChan(draftID, func() (interface{}, error) {
		return p.publish(f.ctx, draftID)
	})

	select {
	case res := <-ch:
		p.leave(draftID, f)
		return flightResult(res)
	case <-ctx.Done():
	}

	if !p.leave(draftID, f) {
		p.logger.Info("caller stopped waiting, publish continues",
			zap.String("draft_id", draftID), zap.Error(ctx.Err()))
		return nil, errors.Wrap(ctx.Err(), errors.Timeout,
			fmt.Sprintf("Stopped waiting for draft %s; it is still being published for another request", draftID))
	}
	return flightResult(<-ch)
}

func (p *Publisher) join(ctx context.Context, draftID string) *flight {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, ok := p.flights[draftID]
	if !ok {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: runCtx, cancel: cancel}
		p.flights[draftID] = f
	} else {
		p.logger.Debug("joined in-flight publish", zap.String("draft_id", draftID))
	}
	f.waiters++
	return f
}

// leave drops one waiter and reports whether it was the last one, in which
// case the run is cancelled
func (p *Publisher) leave(draftID string, f *flight) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return false
	}
	f.cancel()
	if p.flights[draftID] == f {
		delete(p.flights, draftID)
	}
	return true
}

func flightResult(res singleflight.Result) (*Result, error) {
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Val.(*Result), nil
}

func (p *Publisher) publish(ctx context.Context, draftID string) (*Result, error) {
	unlock := p.store.Lock(draftID)
	defer unlock()

	draft, ok := p.store.Get(draftID)
	if !ok {
		return nil, errors.NewMCPError(errors.NotFound, fmt.Sprintf("Draft %s not found", draftID))
	}
	if len(draft.Chunks) == 0 {
		return nil, errors.NewMCPError(errors.InvalidInput, fmt.Sprintf("Draft %s has no content to publish", draftID))
	}

	posts := p.store.Checkpoint(draftID)
	if len(posts) > len(draft.Chunks) {
		posts = posts[:len(draft.Chunks)]
	}

	result := &Result{
		DraftID: draftID,
		Total:   len(draft.Chunks),
		Resumed: len(posts),
	}

	logger := p.logger.With(zap.String("draft_id", draftID), zap.Int("chunks", len(draft.Chunks)))
	if len(posts) > 0 {
		logger.Info("resuming publish from checkpoint", zap.Int("published", len(posts)))
	}

	var root *bluesky.StrongRef
	if len(posts) > 0 {
		root = &bluesky.StrongRef{URI: posts[0].URI}
	}
	rootResolved := false
	justPosted := false

	for i := len(posts); i < len(draft.Chunks); i++ {
		if justPosted {
			if err := p.pause(ctx); err != nil {
				return p.fail(result, posts, i, err, logger), nil
			}
		}
		if err := ctx.Err(); err != nil {
			return p.fail(result, posts, i, err, logger), nil
		}

		var reply *bluesky.ReplyRef
		if i > 0 {
			if !rootResolved {
				cid, err := p.resolve(ctx, root.URI)
				if err != nil {
					return p.fail(result, posts, i, err, logger), nil
				}
				root.CID = cid
				rootResolved = true
			}

			parent := &bluesky.StrongRef{URI: posts[i-1].URI, CID: root.CID}
			if parent.URI != root.URI {
				cid, err := p.resolve(ctx, parent.URI)
				if err != nil {
					return p.fail(result, posts, i, err, logger), nil
				}
				parent.CID = cid
			}
			reply = &bluesky.ReplyRef{Root: root, Parent: parent}
		}

		ref, err := p.poster.Post(ctx, draft.Chunks[i], reply)
		if err != nil {
			return p.fail(result, posts, i, err, logger), nil
		}
		posts = append(posts, drafts.PublishedPost{URI: ref.URI, CID: ref.CID})
		justPosted = true

		if i == 0 {
			root = &bluesky.StrongRef{URI: ref.URI}
		}
		logger.Debug("chunk published", zap.Int("index", i+1), zap.String("uri", ref.URI))
	}

	result.Posts = posts
	p.store.Delete(draftID)

	logger.Info("thread published", zap.String("root_uri", result.RootURI()))
	return result, nil
}

// fail records the posts published so far as a checkpoint and turns err into
// a partial-failure result for chunk index i (0-based).
func (p *Publisher) fail(result *Result, posts []drafts.PublishedPost, i int, err error, logger *zap.Logger) *Result {
	result.Posts = posts
	result.FailedIndex = i + 1
	result.Err = errors.Classify(err)

	p.store.SaveCheckpoint(result.DraftID, posts)

	logger.Warn("publish stopped",
		zap.Int("failed_index", result.FailedIndex),
		zap.Int("published", len(posts)),
		zap.String("code", string(result.Err.Code)),
		zap.Error(err))
	return result
}

func (p *Publisher) pause(ctx context.Context) error {
	if p.opts.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.opts.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// resolve polls for the content identifier of a freshly created post until
// it becomes readable or ResolveTimeout elapses.
func (p *Publisher) resolve(ctx context.Context, uri string) (string, error) {
	resolveCtx, cancel := context.WithTimeout(ctx, p.opts.ResolveTimeout)
	defer cancel()

	var (
		resolved string
		lastErr  error
	)
	err := retry.Do(
		func() error {
			cid, err := p.poster.ResolveCID(resolveCtx, uri)
			if err != nil {
				lastErr = err
				return err
			}
			resolved = cid
			return nil
		},
		retry.Attempts(p.opts.ResolveAttempts),
		retry.Delay(p.opts.RetryDelay),
		retry.MaxDelay(p.opts.ResolveTimeout),
		retry.MaxJitter(p.opts.RetryDelay),
		retry.Context(resolveCtx),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Debug("post not yet resolvable, retrying",
				zap.String("uri", uri),
				zap.Uint("attempt", n),
				zap.Error(err))
		}),
		retry.RetryIf(func(err error) bool {
			return errors.HasCode(err, errors.NotFound) || errors.Classify(err).Code == errors.Timeout
		}),
	)
	if err == nil {
		return resolved, nil
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if lastErr == nil {
		lastErr = err
	}
	if errors.HasCode(lastErr, errors.NotFound) || resolveCtx.Err() != nil {
		return "", errors.Wrap(lastErr, errors.ParentUnresolvable,
			fmt.Sprintf("Post %s did not become resolvable within %s", uri, p.opts.ResolveTimeout))
	}
	return "", lastErr
}
