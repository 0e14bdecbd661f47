package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultRefineLimit is the content length, in runes, from which a
// chunk gets re-split.
const DefaultRefineLimit = 600

// Splitter breaks oversized chunk content into smaller parts.
type Splitter interface {
	Split(content string, limit int) []string
}

// Refine passes chunks shorter than limit through untouched and
// replaces oversized ones with their split parts. Parts inherit the
// parent's metadata, get fresh IDs, and are located
// "<parent location> (phần N)". A chunk the splitter cannot break up
// is kept whole.
func Refine(chunks []Chunk, limit int, splitter Splitter) []Chunk {
	if limit <= 0 {
		limit = DefaultRefineLimit
	}
	if splitter == nil {
		splitter = SentenceSplitter{}
	}

	refined := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		if utf8.RuneCountInString(c.Content) < limit {
			refined = append(refined, c)
			continue
		}
		parts := splitter.Split(c.Content, limit)
		if len(parts) <= 1 {
			refined = append(refined, c)
			continue
		}
		for i, part := range parts {
			sub := c
			sub.ID = newID()
			sub.Location = fmt.Sprintf("%s (phần %d)", c.Location, i+1)
			sub.Content = part
			refined = append(refined, sub)
		}
	}
	return refined
}

// SentenceSplitter accumulates whole sentences up to the limit. A
// single sentence longer than the limit becomes its own part rather
// than being cut mid-sentence.
type SentenceSplitter struct{}

// Split implements Splitter.
func (SentenceSplitter) Split(content string, limit int) []string {
	sentences := splitSentences(content)

	var parts []string
	var current strings.Builder
	length := 0
	for _, sent := range sentences {
		sentLen := utf8.RuneCountInString(sent)
		if length > 0 && length+sentLen+1 > limit {
			parts = append(parts, current.String())
			current.Reset()
			length = 0
		}
		if current.Len() > 0 {
			current.WriteString(" ")
			length++
		}
		current.WriteString(sent)
		length += sentLen
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// splitSentences splits after terminal punctuation followed by a
// space. Newlines also end a sentence so quoted blocks keep their
// line structure.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		current.WriteRune(r)
		switch r {
		case '.', '!', '?', ';':
			if i+1 < len(runes) && runes[i+1] == ' ' {
				flush()
			}
		}
	}
	flush()
	return sentences
}
