// records.go - typed results for the remote calls the publisher depends on
package bluesky

import (
	"fmt"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	appbsky "github.com/bluesky-social/indigo/api/bsky"
	"github.com/ipfs/go-cid"
)

// PostCollection is the NSID of Bluesky post records
const PostCollection = "app.bsky.feed.post"

// StrongRef represents a strong reference to a record
type StrongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// ReplyRef represents a reply reference
type ReplyRef struct {
	Root   *StrongRef `json:"root"`
	Parent *StrongRef `json:"parent"`
}

// PostRecord is a fetched post together with its content identifier
type PostRecord struct {
	URI   string
	CID   string
	Text  string
	Reply *ReplyRef
}

func (r *StrongRef) toLex() *comatproto.RepoStrongRef {
	return &comatproto.RepoStrongRef{Uri: r.URI, Cid: r.CID}
}

func (r *ReplyRef) toLex() *appbsky.FeedPost_ReplyRef {
	if r == nil || r.Root == nil || r.Parent == nil {
		return nil
	}
	return &appbsky.FeedPost_ReplyRef{
		Root:   r.Root.toLex(),
		Parent: r.Parent.toLex(),
	}
}

func replyFromLex(ref *appbsky.FeedPost_ReplyRef) *ReplyRef {
	if ref == nil || ref.Root == nil || ref.Parent == nil {
		return nil
	}
	return &ReplyRef{
		Root:   &StrongRef{URI: ref.Root.Uri, CID: ref.Root.Cid},
		Parent: &StrongRef{URI: ref.Parent.Uri, CID: ref.Parent.Cid},
	}
}

// ValidateCID checks that s is a well-formed content identifier
func ValidateCID(s string) error {
	if s == "" {
		return fmt.Errorf("empty content identifier")
	}
	if _, err := cid.Decode(s); err != nil {
		return fmt.Errorf("invalid content identifier %q: %w", s, err)
	}
	return nil
}
