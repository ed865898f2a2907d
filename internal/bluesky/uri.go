// Package bluesky provides the Bluesky posting client and AT Protocol utilities
package bluesky

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bluesky-social/indigo/atproto/syntax"
)

var (
	// Web URLs of posts: bsky.app and any bsky-style mirror
	webPostURLRegex = regexp.MustCompile(`^https://[^/]+/profile/([^/]+)/post/([a-z0-9]+)$`)
	didRegex        = regexp.MustCompile(`^did:`)
)

// PostRef represents a parsed post reference
type PostRef struct {
	Repo       string // DID or handle
	Collection string
	RKey       string
}

// ParsePostURI parses either an at:// URI or a https://bsky.app/... URL into a PostRef
func ParsePostURI(uri string) (*PostRef, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("empty URI")
	}

	if strings.HasPrefix(uri, "at://") {
		aturi, err := syntax.ParseATURI(uri)
		if err != nil {
			return nil, fmt.Errorf("invalid post URI format: %s", uri)
		}
		if aturi.Collection().String() == "" || aturi.RecordKey().String() == "" {
			return nil, fmt.Errorf("post URI must name a record: %s", uri)
		}
		return &PostRef{
			Repo:       aturi.Authority().String(),
			Collection: aturi.Collection().String(),
			RKey:       aturi.RecordKey().String(),
		}, nil
	}

	if matches := webPostURLRegex.FindStringSubmatch(uri); matches != nil {
		return &PostRef{
			Repo:       matches[1],
			Collection: PostCollection,
			RKey:       matches[2],
		}, nil
	}

	return nil, fmt.Errorf("invalid post URI format: %s", uri)
}

// String renders the reference as an at:// URI
func (r *PostRef) String() string {
	return fmt.Sprintf("at://%s/%s/%s", r.Repo, r.Collection, r.RKey)
}

// MakePostURI creates an at:// URI from DID and rkey
func MakePostURI(did, rkey string) string {
	return fmt.Sprintf("at://%s/%s/%s", did, PostCollection, rkey)
}

// WebURL returns the bsky.app address of a post URI, or "" if it does not parse
func WebURL(uri string) string {
	ref, err := ParsePostURI(uri)
	if err != nil || ref.Collection != PostCollection {
		return ""
	}
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", ref.Repo, ref.RKey)
}

// IsLikelyDID checks if a string looks like a DID
func IsLikelyDID(s string) bool {
	return didRegex.MatchString(strings.TrimSpace(s))
}

// NormalizeHandle removes @ prefix and trims whitespace
func NormalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}
