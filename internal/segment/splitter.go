package segment

import (
	"regexp"
	"strings"
)

const (
	paragraphSeparator = "\n\n"
	sentenceSeparator  = " "
	wordSeparator      = " "
)

var (
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
	sentenceEnd    = regexp.MustCompile(`([.!?]+)(\s+)`)
)

// Split breaks content into chunks of at most MaxPostLength grapheme
// clusters, preferring paragraph, then sentence, then word boundaries.
func Split(content string) []string {
	return SplitWithLimit(content, MaxPostLength)
}

// SplitWithLimit is Split with an explicit per-chunk limit.
//
// The split is greedy: the running chunk is flushed as soon as the next unit
// would overflow it, and a unit that cannot fit on its own is broken down at
// the next tier. A single word longer than the limit is cut on grapheme
// boundaries.
func SplitWithLimit(content string, limit int) []string {
	content = strings.TrimSpace(content)
	if content == "" || limit <= 0 {
		return []string{}
	}

	s := &splitter{limit: limit}
	for _, paragraph := range splitParagraphs(content) {
		s.addParagraph(paragraph)
	}
	s.flush()

	return s.chunks
}

type splitter struct {
	limit   int
	chunks  []string
	current string
}

func (s *splitter) fits(text string) bool {
	return Length(text) <= s.limit
}

func (s *splitter) flush() {
	if s.current != "" {
		s.chunks = append(s.chunks, s.current)
		s.current = ""
	}
}

func (s *splitter) addParagraph(paragraph string) {
	if s.fits(join(s.current, paragraph, paragraphSeparator)) {
		s.current = join(s.current, paragraph, paragraphSeparator)
		return
	}

	s.flush()
	if s.fits(paragraph) {
		s.current = paragraph
		return
	}

	for _, sentence := range splitSentences(paragraph) {
		s.addSentence(sentence)
	}
}

func (s *splitter) addSentence(sentence string) {
	if s.fits(join(s.current, sentence, sentenceSeparator)) {
		s.current = join(s.current, sentence, sentenceSeparator)
		return
	}

	s.flush()
	if s.fits(sentence) {
		s.current = sentence
		return
	}

	s.addWords(sentence)
}

// addWords accumulates words into a secondary buffer. Each time the buffer
// is full it is merged into the running chunk if that still fits, otherwise
// the running chunk is flushed and the buffer takes its place.
func (s *splitter) addWords(sentence string) {
	var buffer string
	for _, word := range s.splitWords(sentence) {
		if s.fits(join(buffer, word, wordSeparator)) {
			buffer = join(buffer, word, wordSeparator)
			continue
		}
		s.absorb(buffer)
		buffer = word
	}
	s.absorb(buffer)
}

func (s *splitter) absorb(buffer string) {
	if buffer == "" {
		return
	}
	if s.current != "" && s.fits(s.current+wordSeparator+buffer) {
		s.current += wordSeparator + buffer
		return
	}
	s.flush()
	s.current = buffer
}

func (s *splitter) splitWords(sentence string) []string {
	var words []string
	for _, word := range strings.Fields(sentence) {
		if s.fits(word) {
			words = append(words, word)
			continue
		}
		words = append(words, hardCut(word, s.limit)...)
	}
	return words
}

func join(current, next, sep string) string {
	if current == "" {
		return next
	}
	return current + sep + next
}

func splitParagraphs(content string) []string {
	var paragraphs []string
	for _, p := range paragraphBreak.Split(content, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// splitSentences cuts after runs of sentence-ending punctuation that are
// followed by whitespace; the punctuation stays with its sentence.
func splitSentences(paragraph string) []string {
	var sentences []string
	start := 0
	for _, m := range sentenceEnd.FindAllStringSubmatchIndex(paragraph, -1) {
		if sentence := strings.TrimSpace(paragraph[start:m[3]]); sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = m[5]
	}
	if rest := strings.TrimSpace(paragraph[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}
