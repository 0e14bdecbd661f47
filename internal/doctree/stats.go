package doctree

import "strings"

// Stats summarizes the shape and size of a parsed document.
type Stats struct {
	Chapters   int `json:"chapters"`
	Sections   int `json:"sections"`
	Clauses    int `json:"clauses"`
	Points     int `json:"points"`
	Amendments int `json:"amendments"`
	Changes    int `json:"changes"`
	// TitleChars and PointChars measure the retained content in runes.
	TitleChars int `json:"title_chars"`
	PointChars int `json:"point_chars"`
	// EstimatedTokens approximates the embedding cost of the document.
	EstimatedTokens int `json:"estimated_tokens"`
}

// Collect walks the document and tallies its structural counts.
func Collect(d *Document) Stats {
	var s Stats
	d.Walk(func(n *Node, _ int) {
		switch n.Kind {
		case KindChapter:
			s.Chapters++
		case KindSection:
			s.Sections++
		case KindClause:
			s.Clauses++
		}
		s.TitleChars += len([]rune(n.Title))
		s.EstimatedTokens += EstimateTokens(n.Title)
		for _, p := range n.Points {
			s.Points++
			s.PointChars += len([]rune(p))
			s.EstimatedTokens += EstimateTokens(p)
		}
	})
	for _, a := range d.Amendments {
		s.Amendments++
		s.TitleChars += len([]rune(a.Title))
		s.EstimatedTokens += EstimateTokens(a.Title)
		for _, c := range a.Changes {
			s.Changes++
			s.PointChars += len([]rune(c.Instruction)) + len([]rune(c.Content))
			s.EstimatedTokens += EstimateTokens(c.Instruction) + EstimateTokens(c.Content)
		}
	}
	return s
}

// EstimateTokens gives a rough token count from the word count. Exact
// tokenization is not required for sizing; Vietnamese runs at roughly
// two tokens per syllable once diacritics are split by the encoder.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 2.0)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
