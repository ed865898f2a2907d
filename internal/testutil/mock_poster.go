// Package testutil provides testing utilities and mocks
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/oyin-bo/autothread/internal/bluesky"
	"github.com/oyin-bo/autothread/pkg/errors"
)

// MockCID is a well-formed content identifier returned for every mock post
const MockCID = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"

// MockPoster is a mock implementation of the remote posting API for testing
type MockPoster struct {
	mu sync.Mutex

	// PostFn, when set, replaces the default behaviour of Post
	PostFn func(ctx context.Context, call int, text string, reply *bluesky.ReplyRef) (*bluesky.StrongRef, error)

	// FailOn makes the Nth Post call (1-based, counted over the mock's life) fail
	FailOn map[int]error

	// Unindexed makes ResolveCID report not-found this many times per URI
	// before succeeding
	Unindexed map[string]int

	// ReplyToFn, when set, replaces the default behaviour of ReplyTo
	ReplyToFn func(ctx context.Context, uri string) (*bluesky.ReplyRef, error)

	calls        int
	posts        []PostCall
	resolveCalls []string
	known        map[string]string
}

// PostCall records a successful call to Post
type PostCall struct {
	Text  string
	Reply *bluesky.ReplyRef
	Ref   *bluesky.StrongRef
}

// NewMockPoster creates a new mock poster
func NewMockPoster() *MockPoster {
	return &MockPoster{
		FailOn:    map[int]error{},
		Unindexed: map[string]int{},
		known:     map[string]string{},
	}
}

// Post mocks post creation
func (m *MockPoster) Post(ctx context.Context, text string, reply *bluesky.ReplyRef) (*bluesky.StrongRef, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	failure := m.FailOn[call]
	postFn := m.PostFn
	m.mu.Unlock()

	if failure != nil {
		return nil, failure
	}

	var ref *bluesky.StrongRef
	if postFn != nil {
		var err error
		if ref, err = postFn(ctx, call, text, reply); err != nil {
			return nil, err
		}
	} else {
		ref = &bluesky.StrongRef{
			URI: bluesky.MakePostURI("did:plc:mock", fmt.Sprintf("post%d", call)),
			CID: MockCID,
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, PostCall{Text: text, Reply: reply, Ref: ref})
	m.known[ref.URI] = ref.CID
	return ref, nil
}

// ResolveCID mocks content identifier lookup for posts created through the mock
func (m *MockPoster) ResolveCID(ctx context.Context, uri string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resolveCalls = append(m.resolveCalls, uri)
	if m.Unindexed[uri] > 0 {
		m.Unindexed[uri]--
		return "", errors.NewMCPError(errors.NotFound, fmt.Sprintf("Post not found: %s", uri))
	}

	cid, ok := m.known[uri]
	if !ok {
		return "", errors.NewMCPError(errors.NotFound, fmt.Sprintf("Post not found: %s", uri))
	}
	return cid, nil
}

// ReplyTo mocks reply reference lookup. Posts created through the mock are
// treated as thread roots.
func (m *MockPoster) ReplyTo(ctx context.Context, uri string) (*bluesky.ReplyRef, error) {
	m.mu.Lock()
	replyToFn := m.ReplyToFn
	cid, ok := m.known[uri]
	m.mu.Unlock()

	if replyToFn != nil {
		return replyToFn(ctx, uri)
	}
	if !ok {
		return nil, errors.NewMCPError(errors.NotFound, fmt.Sprintf("Post not found: %s", uri))
	}
	parent := &bluesky.StrongRef{URI: uri, CID: cid}
	return &bluesky.ReplyRef{Root: parent, Parent: parent}, nil
}

// GetPosts returns all successful posts in call order
func (m *MockPoster) GetPosts() []PostCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PostCall{}, m.posts...)
}

// GetResolveCalls returns every URI passed to ResolveCID
func (m *MockPoster) GetResolveCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.resolveCalls...)
}

// CallCount returns how many times Post was called, failures included
func (m *MockPoster) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
