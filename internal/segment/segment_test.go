package segment

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestLength(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"empty", "", 0},
		{"ascii", "hello", 5},
		{"combining acute", "é", 1},
		{"family emoji", "👨‍👩‍👧", 1},
		{"flag", "🇺🇦", 1},
		{"skin tone", "👍🏽", 1},
		{"mixed", "café 👨‍👩‍👧!", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Length(tt.text); got != tt.expected {
				t.Errorf("Length(%q) = %d, expected %d", tt.text, got, tt.expected)
			}
		})
	}
}

func TestLength_NotMoreThanRawUnits(t *testing.T) {
	inputs := []string{
		"plain text only",
		"été 👨‍👩‍👧 and 🇺🇦",
		"ä́bc",
	}

	for _, in := range inputs {
		raw := utf8.RuneCountInString(in)
		got := Length(in)
		if got > raw {
			t.Errorf("Length(%q) = %d exceeds rune count %d", in, got, raw)
		}
	}

	complex := "été 👨‍👩‍👧"
	if Length(complex) == utf8.RuneCountInString(complex) {
		t.Errorf("Expected grapheme count to differ from rune count for %q", complex)
	}
}

func TestHeuristicLength(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"ascii", "hello", 5},
		{"combining marks stripped", "éè", 2},
		{"zwj sequence collapsed", "👨‍👩‍👧", 1},
		{"flag collapsed", "🇺🇦", 1},
		{"emoji with modifier", "hi 👍🏽", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := heuristicLength(tt.text); got != tt.expected {
				t.Errorf("heuristicLength(%q) = %d, expected %d", tt.text, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 50); got != "short" {
		t.Errorf("Expected untouched text, got %q", got)
	}

	got := Truncate(strings.Repeat("👍🏽", 60), 50)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Expected ellipsis suffix, got %q", got)
	}
	if Length(strings.TrimSuffix(got, "...")) != 50 {
		t.Errorf("Expected 50 graphemes before ellipsis, got %d", Length(strings.TrimSuffix(got, "...")))
	}
}

func TestSplit_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\t"} {
		chunks := Split(in)
		if chunks == nil || len(chunks) != 0 {
			t.Errorf("Split(%q) = %v, expected empty slice", in, chunks)
		}
	}
}

func TestSplit_SingleShortInput(t *testing.T) {
	in := strings.Repeat("abcde", 10)
	chunks := Split(in)
	if !reflect.DeepEqual(chunks, []string{in}) {
		t.Errorf("Expected single chunk equal to input, got %v", chunks)
	}
}

func TestSplit_ExactBoundary(t *testing.T) {
	exact := strings.Repeat("a", MaxPostLength)
	if chunks := Split(exact); len(chunks) != 1 {
		t.Errorf("Expected 1 chunk for %d graphemes, got %d", MaxPostLength, len(chunks))
	}

	over := strings.Repeat("a", MaxPostLength+1)
	if chunks := Split(over); len(chunks) < 2 {
		t.Errorf("Expected at least 2 chunks for %d graphemes, got %d", MaxPostLength+1, len(chunks))
	}

	// 300 graphemes made of multi-rune clusters is still one post
	emoji := strings.Repeat("👨‍👩‍👧", MaxPostLength)
	if chunks := Split(emoji); len(chunks) != 1 {
		t.Errorf("Expected 1 chunk for %d emoji, got %d", MaxPostLength, len(chunks))
	}
}

func TestSplit_ParagraphsPacked(t *testing.T) {
	content := "First paragraph.\n\nSecond paragraph.\n\nThird paragraph."
	chunks := Split(content)
	if len(chunks) != 1 {
		t.Fatalf("Expected paragraphs to pack into one chunk, got %d", len(chunks))
	}
	if chunks[0] != content {
		t.Errorf("Expected %q, got %q", content, chunks[0])
	}
}

func TestSplit_ParagraphBoundaryPreferred(t *testing.T) {
	p1 := strings.Repeat("x", 200)
	p2 := strings.Repeat("y", 200)
	chunks := Split(p1 + "\n\n" + p2)

	if !reflect.DeepEqual(chunks, []string{p1, p2}) {
		t.Errorf("Expected split at paragraph boundary, got %d chunks", len(chunks))
	}
}

func TestSplit_SentenceTier(t *testing.T) {
	sentence := strings.Repeat("word ", 19) + "end." // 99 graphemes
	paragraph := strings.Join([]string{sentence, sentence, sentence, sentence}, " ")

	chunks := Split(paragraph)
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != strings.Join([]string{sentence, sentence, sentence}, " ") {
		t.Errorf("Expected first chunk to hold three whole sentences, got %q", chunks[0])
	}
	if chunks[1] != sentence {
		t.Errorf("Expected second chunk to hold the last sentence, got %q", chunks[1])
	}
}

func TestSplit_WordTier(t *testing.T) {
	words := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		words = append(words, "lorem")
	}
	content := strings.Join(words, " ") // no sentence punctuation, 1199 graphemes

	chunks := Split(content)
	if len(chunks) < 4 {
		t.Fatalf("Expected at least 4 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if Length(chunk) > MaxPostLength {
			t.Errorf("Chunk %d has %d graphemes", i, Length(chunk))
		}
		if strings.HasPrefix(chunk, " ") || strings.HasSuffix(chunk, " ") {
			t.Errorf("Chunk %d has stray whitespace: %q", i, chunk)
		}
	}
}

func TestSplit_HardCutLongWord(t *testing.T) {
	url := "https://example.com/" + strings.Repeat("a", 700)
	chunks := Split("See " + url)

	for i, chunk := range chunks {
		if Length(chunk) > MaxPostLength {
			t.Errorf("Chunk %d has %d graphemes", i, Length(chunk))
		}
	}
	if got := strings.ReplaceAll(strings.Join(chunks, ""), " ", ""); got != "See"+url {
		t.Error("Expected hard-cut pieces to reassemble the original word")
	}
}

func TestSplit_Invariants(t *testing.T) {
	inputs := []string{
		strings.Repeat("Short sentence here. ", 80),
		strings.Repeat("A paragraph with a few words in it.\n\n", 40),
		strings.Repeat("Emoji 👨‍👩‍👧 and accents é! ", 60),
		strings.Repeat("no-punctuation-words ", 120) + "\n\n" + strings.Repeat("tail. ", 10),
		"Mixed. " + strings.Repeat("x", 650) + " end.",
	}

	for i, in := range inputs {
		chunks := Split(in)
		if len(chunks) == 0 {
			t.Fatalf("Input %d produced no chunks", i)
		}

		for j, chunk := range chunks {
			if Length(chunk) > MaxPostLength {
				t.Errorf("Input %d chunk %d has %d graphemes", i, j, Length(chunk))
			}
			if chunk == "" {
				t.Errorf("Input %d chunk %d is empty", i, j)
			}
		}

		// Coverage: same words in the same order, nothing dropped or duplicated.
		// Hard cuts only happen inside the long word of the last input.
		if i == len(inputs)-1 {
			continue
		}
		got := strings.Fields(strings.Join(chunks, " "))
		want := strings.Fields(in)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Input %d: chunks do not reconstruct the original words", i)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One. Two!  Three?! Four")
	want := []string{"One.", "Two!", "Three?!", "Four"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if got := splitSentences("version 1.2 is out"); len(got) != 1 {
		t.Errorf("Expected decimal point not to split, got %v", got)
	}
}

func TestSplitParagraphs(t *testing.T) {
	got := splitParagraphs("a\n\nb\n \n\nc\nd")
	want := []string{"a", "b", "c\nd"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
