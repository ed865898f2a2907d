package bluesky

import (
	"context"
	"regexp"
	"strings"

	appbsky "github.com/bluesky-social/indigo/api/bsky"
)

var (
	linkRegex    = regexp.MustCompile(`(?:^|[\s(])(https?://[^\s]+)`)
	mentionRegex = regexp.MustCompile(`(?:^|[\s(])(@(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)`)
	tagRegex     = regexp.MustCompile(`(?:^|\s)(#[^\d\s#][^\s#]*)`)
)

const (
	trailingPunctuation = `.,;:!?)"'`
	maxTagLength        = 64
)

// HandleResolver maps a handle to its DID
type HandleResolver func(ctx context.Context, handle string) (string, error)

// DetectFacets finds links, mentions and hashtags in text. Mentions whose
// handle does not resolve are left as plain text. Facet indices are UTF-8
// byte offsets.
func DetectFacets(ctx context.Context, text string, resolve HandleResolver) []*appbsky.RichtextFacet {
	var facets []*appbsky.RichtextFacet

	for _, m := range linkRegex.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], trimTrailing(text, m[2], m[3])
		facets = append(facets, newFacet(start, end, &appbsky.RichtextFacet_Features_Elem{
			RichtextFacet_Link: &appbsky.RichtextFacet_Link{Uri: text[start:end]},
		}))
	}

	if resolve != nil {
		for _, m := range mentionRegex.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[2], m[3]
			did, err := resolve(ctx, text[start+1:end])
			if err != nil || did == "" {
				continue
			}
			facets = append(facets, newFacet(start, end, &appbsky.RichtextFacet_Features_Elem{
				RichtextFacet_Mention: &appbsky.RichtextFacet_Mention{Did: did},
			}))
		}
	}

	for _, m := range tagRegex.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], trimTrailing(text, m[2], m[3])
		tag := text[start+1 : end]
		if tag == "" || len(tag) > maxTagLength {
			continue
		}
		facets = append(facets, newFacet(start, end, &appbsky.RichtextFacet_Features_Elem{
			RichtextFacet_Tag: &appbsky.RichtextFacet_Tag{Tag: tag},
		}))
	}

	return facets
}

func newFacet(start, end int, feature *appbsky.RichtextFacet_Features_Elem) *appbsky.RichtextFacet {
	return &appbsky.RichtextFacet{
		Features: []*appbsky.RichtextFacet_Features_Elem{feature},
		Index: &appbsky.RichtextFacet_ByteSlice{
			ByteStart: int64(start),
			ByteEnd:   int64(end),
		},
	}
}

func trimTrailing(text string, start, end int) int {
	for end > start && strings.ContainsRune(trailingPunctuation, rune(text[end-1])) {
		end--
	}
	return end
}
