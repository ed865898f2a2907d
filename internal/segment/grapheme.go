// Package segment measures and splits post text in grapheme clusters, the
// unit in which Bluesky enforces its post length limit.
package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// MaxPostLength is the Bluesky post limit in grapheme clusters
const MaxPostLength = 300

// pictographicRun matches a regional-indicator flag pair or one emoji
// together with its presentation selectors, skin-tone modifiers and ZWJ
// continuations.
var pictographicRun = regexp.MustCompile(
	`[\x{1F1E6}-\x{1F1FF}]{2}` +
		`|[\p{So}\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}][\x{FE0F}\x{1F3FB}-\x{1F3FF}]*` +
		`(?:\x{200D}[\p{So}\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}][\x{FE0F}\x{1F3FB}-\x{1F3FF}]*)*`)

// Length returns the number of user-perceived characters in text
func Length(text string) (n int) {
	if text == "" {
		return 0
	}

	defer func() {
		if r := recover(); r != nil {
			zap.L().Debug("grapheme segmentation failed, using heuristic count", zap.Any("panic", r))
			n = heuristicLength(text)
		}
	}()

	return uniseg.GraphemeClusterCount(text)
}

// heuristicLength approximates grapheme clusters without segmentation
// tables: each emoji sequence counts once and combining marks count zero.
// Falls back to the rune count if even that fails.
// uniseg does not panic on valid input, so tests call this directly.
func heuristicLength(text string) (n int) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Debug("heuristic grapheme count failed, using rune count", zap.Any("panic", r))
			n = utf8.RuneCountInString(text)
		}
	}()

	collapsed := pictographicRun.ReplaceAllString(norm.NFC.String(text), "\uFFFC")

	count := 0
	for _, r := range collapsed {
		if unicode.In(r, unicode.Mn, unicode.Me) {
			continue
		}
		count++
	}
	return count
}

// Truncate returns at most limit grapheme clusters of text, appending
// "..." when anything was cut.
func Truncate(text string, limit int) string {
	if Length(text) <= limit {
		return text
	}

	var b strings.Builder
	g := uniseg.NewGraphemes(text)
	for i := 0; i < limit && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	b.WriteString("...")
	return b.String()
}

// hardCut splits a single unbreakable word into pieces of at most limit
// grapheme clusters each.
func hardCut(word string, limit int) []string {
	var pieces []string
	var b strings.Builder
	n := 0

	g := uniseg.NewGraphemes(word)
	for g.Next() {
		if n == limit {
			pieces = append(pieces, b.String())
			b.Reset()
			n = 0
		}
		b.WriteString(g.Str())
		n++
	}
	if b.Len() > 0 {
		pieces = append(pieces, b.String())
	}
	return pieces
}
