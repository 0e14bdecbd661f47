// Package parse builds the hierarchical document tree from classified
// text units. A single state-machine walk serves every document type;
// the grammar supplies the level patterns and the walk supplies the
// nesting, placeholder synthesis and signature termination.
package parse

import (
	"log/slog"
	"strings"

	"github.com/ngocdv/vanban/internal/classify"
	"github.com/ngocdv/vanban/internal/doctree"
	"github.com/ngocdv/vanban/internal/meta"
	"github.com/ngocdv/vanban/internal/span"
)

// Parser turns unit streams into document trees.
type Parser struct {
	rules    *classify.RuleSet
	grammars *classify.Registry
	logger   *slog.Logger
}

func New(rules *classify.RuleSet, grammars *classify.Registry, logger *slog.Logger) *Parser {
	if rules == nil {
		rules = classify.DefaultRules()
	}
	if grammars == nil {
		grammars = classify.DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{rules: rules, grammars: grammars, logger: logger}
}

// Parse builds the tree for one document. The grammar is selected by
// the metadata type; amending laws and decrees are routed to the change
// list walk instead of the chapter walk.
func (p *Parser) Parse(units []span.TextUnit, md meta.Metadata) *doctree.Document {
	doc := &doctree.Document{Metadata: md}
	g := p.grammars.For(md.DocType())

	t := md.DocType()
	if md.IsAmending() && (t == classify.TypeLaw || t == classify.TypeDecree) {
		p.parseAmending(doc, units, g)
	} else {
		p.parseRegular(doc, units, g)
	}
	return doc
}

// walkState tracks the innermost open node at each level plus the
// point buffer awaiting its clause.
type walkState struct {
	doc     *doctree.Document
	chapter *doctree.Node
	section *doctree.Node
	clause  *doctree.Node
	points  []string
	// anonBody marks a degraded document whose plain paragraphs are
	// kept as points under a synthesized clause.
	anonBody bool
}

func (w *walkState) ensureChapter() *doctree.Node {
	if w.chapter == nil {
		w.chapter = doctree.NewNode(doctree.KindChapter, "", "", "")
		w.doc.Chapters = append(w.doc.Chapters, w.chapter)
	}
	return w.chapter
}

func (w *walkState) ensureSection() *doctree.Node {
	if w.section == nil {
		w.section = w.ensureChapter().AddChild(doctree.NewNode(doctree.KindSection, "", "", ""))
	}
	return w.section
}

func (w *walkState) ensureClause() *doctree.Node {
	if w.clause == nil {
		w.clause = w.ensureSection().AddChild(doctree.NewNode(doctree.KindClause, "", "", ""))
	}
	return w.clause
}

// flushPoints attaches the buffered points to the open clause, or to a
// fresh anonymous clause when the document skipped that level. Nothing
// buffered is ever dropped.
func (w *walkState) flushPoints() {
	if len(w.points) == 0 {
		return
	}
	if w.clause != nil {
		w.clause.Points = append(w.clause.Points, w.points...)
	} else {
		anon := doctree.NewNode(doctree.KindClause, "", "", "")
		anon.Points = w.points
		w.ensureSection().AddChild(anon)
	}
	w.points = nil
}

func (p *Parser) parseRegular(doc *doctree.Document, units []span.TextUnit, g *classify.Grammar) {
	w := &walkState{doc: doc}

	start, found := contentStart(units, g)
	if !found {
		start = degradedStart(units)
		p.logger.Warn("no section heading found, keeping body under a synthesized root",
			"file", doc.Metadata.SourceFile)
	}

	i := start
	for i < len(units) {
		line := units[i].Content
		if line == "" || p.rules.IsBoilerplate(line) || g.IsGrammarBoilerplate(line) {
			i++
			continue
		}
		if p.rules.IsSignature(line) {
			w.flushPoints()
			return
		}

		if lm, ok := g.Match(line); ok {
			switch lm.Kind {
			case classify.LevelChapter:
				w.flushPoints()
				title, next := p.collectTitle(units, i+1, lm.Fragment, g)
				ch := doctree.NewNode(doctree.KindChapter, lm.Ordinal, lm.Label, title)
				doc.Chapters = append(doc.Chapters, ch)
				w.chapter, w.section, w.clause = ch, nil, nil
				i = next
				continue
			case classify.LevelSection:
				w.flushPoints()
				title, next := p.collectTitle(units, i+1, lm.Fragment, g)
				sec := doctree.NewNode(doctree.KindSection, lm.Ordinal, lm.Label, title)
				w.ensureChapter().AddChild(sec)
				w.section, w.clause = sec, nil
				i = next
				continue
			case classify.LevelClause:
				w.flushPoints()
				title, next := p.collectTitle(units, i+1, lm.Fragment, g)
				cl := doctree.NewNode(doctree.KindClause, lm.Ordinal, lm.Label, title)
				w.ensureSection().AddChild(cl)
				w.clause = cl
				i = next
				continue
			case classify.LevelPoint:
				w.points = append(w.points, lm.Fragment)
				i++
				continue
			}
		}

		p.appendProse(w, line)
		i++
	}

	w.flushPoints()
}

// appendProse attaches a plain line to the innermost open element:
// the last point, then the open clause, section or chapter title. With
// nothing open the line becomes a point under a synthesized root so
// degraded documents keep their body.
func (p *Parser) appendProse(w *walkState, line string) {
	switch {
	case len(w.points) > 0:
		w.points[len(w.points)-1] += " " + line
	case w.anonBody && w.clause != nil && w.clause.IsAnonymous():
		w.clause.Points = append(w.clause.Points, line)
	case w.clause != nil:
		w.clause.AppendTitle(line)
	case w.section != nil:
		w.section.AppendTitle(line)
	case w.chapter != nil:
		w.chapter.AppendTitle(line)
	default:
		cl := w.ensureClause()
		cl.Points = append(cl.Points, line)
		w.anonBody = true
	}
}

// collectTitle absorbs heading continuation lines until the next
// structural line. Page furniture is skipped; signature lines stop
// collection so the main loop can terminate on them.
func (p *Parser) collectTitle(units []span.TextUnit, start int, fragment string, g *classify.Grammar) (string, int) {
	var parts []string
	if fragment != "" {
		parts = append(parts, fragment)
	}
	i := start
	for i < len(units) {
		line := units[i].Content
		if line == "" || p.rules.IsBoilerplate(line) || g.IsGrammarBoilerplate(line) {
			i++
			continue
		}
		if p.rules.IsSignature(line) {
			break
		}
		if _, ok := g.Match(line); ok {
			break
		}
		parts = append(parts, line)
		i++
	}
	return strings.Join(parts, " "), i
}

// contentStart finds the first chapter or section heading. Everything
// before it is metadata and preamble.
func contentStart(units []span.TextUnit, g *classify.Grammar) (int, bool) {
	for i, u := range units {
		if u.Content == "" {
			continue
		}
		if lm, ok := g.Match(u.Content); ok && (lm.Kind == classify.LevelChapter || lm.Kind == classify.LevelSection) {
			return i, true
		}
	}
	return 0, false
}

// degradedStart picks where the body begins when no heading exists:
// after the type line and its bold summary block when the document has
// one, at the top otherwise.
func degradedStart(units []span.TextUnit) int {
	idx := meta.TypeLineIndex(units)
	if idx < 0 {
		return 0
	}
	start := idx + 1
	for start < len(units) && (units[start].Content == "" || units[start].Bold) {
		start++
	}
	return start
}
