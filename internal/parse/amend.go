package parse

import (
	"strings"

	"github.com/ngocdv/vanban/internal/classify"
	"github.com/ngocdv/vanban/internal/doctree"
	"github.com/ngocdv/vanban/internal/span"
)

// quoteCutset trims the quotation marks wrapping replacement text in
// amending instruments.
const quoteCutset = "“”\" "

// parseAmending walks an amending law or decree. Instead of a chapter
// tree the output is a list of amending articles, each holding numbered
// change instructions with the quoted replacement text that follows
// them.
func (p *Parser) parseAmending(doc *doctree.Document, units []span.TextUnit, g *classify.Grammar) {
	start, found := amendStart(units, g)
	if !found {
		p.logger.Warn("amending document without article headings",
			"file", doc.Metadata.SourceFile)
		return
	}

	var article *doctree.Amendment
	i := start
	for i < len(units) {
		line := units[i].Content
		if line == "" || p.rules.IsBoilerplate(line) || g.IsGrammarBoilerplate(line) {
			i++
			continue
		}
		if p.rules.IsSignature(line) {
			return
		}

		lm, ok := g.Match(line)
		if !ok {
			i++
			continue
		}

		switch lm.Kind {
		case classify.LevelSection:
			title, next := p.collectTitle(units, i+1, lm.Fragment, g)
			article = &doctree.Amendment{Label: lm.Label, Title: title}
			doc.Amendments = append(doc.Amendments, article)
			i = next
		case classify.LevelClause:
			if article == nil {
				i++
				continue
			}
			change, next := p.collectChange(units, i, lm, g)
			article.Changes = append(article.Changes, change)
			i = next
		default:
			i++
		}
	}
}

// collectChange reads one numbered change: the instruction line with
// its continuations, then the replacement block running to the next
// article or change heading.
func (p *Parser) collectChange(units []span.TextUnit, start int, lm classify.LevelMatch, g *classify.Grammar) (*doctree.Change, int) {
	instruction, i := p.collectTitle(units, start+1, units[start].Content, g)
	change := &doctree.Change{
		Label:       "Mục " + lm.Ordinal,
		Instruction: instruction,
	}

	var content []string
	for i < len(units) {
		line := units[i].Content
		if line == "" || p.rules.IsBoilerplate(line) || g.IsGrammarBoilerplate(line) {
			i++
			continue
		}
		if p.rules.IsSignature(line) {
			break
		}
		if lm2, ok := g.Match(line); ok && (lm2.Kind == classify.LevelSection || lm2.Kind == classify.LevelClause) {
			break
		}
		content = append(content, line)
		i++
	}
	change.Content = strings.Trim(strings.Join(content, "\n"), quoteCutset)
	return change, i
}

// amendStart finds the first article or change heading; the preamble
// of an amending instrument has no other structure.
func amendStart(units []span.TextUnit, g *classify.Grammar) (int, bool) {
	for i, u := range units {
		if u.Content == "" {
			continue
		}
		if lm, ok := g.Match(u.Content); ok && (lm.Kind == classify.LevelSection || lm.Kind == classify.LevelClause) {
			return i, true
		}
	}
	return 0, false
}
