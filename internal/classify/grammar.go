package classify

import (
	"fmt"
	"regexp"
)

// LevelKind is one of the four nesting levels of a legal document
// outline, highest to lowest.
type LevelKind int

const (
	LevelChapter LevelKind = iota
	LevelSection
	LevelClause
	LevelPoint
)

var levelNames = map[LevelKind]string{
	LevelChapter: "chapter",
	LevelSection: "section",
	LevelClause:  "clause",
	LevelPoint:   "point",
}

func (k LevelKind) String() string {
	if n, ok := levelNames[k]; ok {
		return n
	}
	return fmt.Sprintf("level(%d)", int(k))
}

// ParseLevelKind maps a level name back to its kind. Used by the YAML
// grammar loader.
func ParseLevelKind(name string) (LevelKind, error) {
	for k, n := range levelNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown level kind %q", name)
}

// LevelRule binds one outline level to its numbering pattern. Patterns
// capture (ordinal, title fragment); single-capture patterns (the "-"
// point marker) capture only the fragment.
type LevelRule struct {
	Kind    LevelKind
	Pattern *regexp.Regexp
	// Label renders the citation label from the ordinal, e.g. "Chương %s".
	// Empty for unlabelled levels (directive points).
	Label string
	// TitleFollows marks heading lines whose title arrives on the
	// following lines instead of after the marker ("Chương II" alone on
	// its line).
	TitleFollows bool
}

// LevelMatch is the outcome of matching a line against a grammar.
type LevelMatch struct {
	Kind     LevelKind
	Ordinal  string
	Fragment string
	Label    string
	// TitleFollows is copied from the matching rule.
	TitleFollows bool
}

// Grammar is the per-document-type numbering convention plus the
// type-specific extraction knobs. Levels are evaluated in order, so the
// chapter pattern always gets first claim on a line.
type Grammar struct {
	Name   string
	Levels []LevelRule
	// Extra boilerplate recognized only under this grammar (decree
	// preamble formulas, for example).
	Boilerplate []*regexp.Regexp
	// SummaryWindow bounds the lookahead when collecting the bold
	// summary after the type line.
	SummaryWindow int
	// SummaryStops end summary collection early (telegram salutations,
	// decree preamble starts).
	SummaryStops []*regexp.Regexp
	// SummaryStopPlain ends collection at the first non-bold line once
	// a bold line has been seen.
	SummaryStopPlain bool
}

// Match tries the grammar's levels in priority order against one line.
func (g *Grammar) Match(line string) (LevelMatch, bool) {
	for i := range g.Levels {
		rule := &g.Levels[i]
		m := rule.Pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lm := LevelMatch{Kind: rule.Kind, TitleFollows: rule.TitleFollows}
		switch {
		case len(m) >= 3:
			lm.Ordinal = m[1]
			lm.Fragment = m[2]
		case rule.Label != "":
			// Single capture on a labelled level is the ordinal
			// ("Chương II" alone on its line).
			lm.Ordinal = m[1]
		default:
			lm.Fragment = m[1]
		}
		if rule.Label != "" && lm.Ordinal != "" {
			lm.Label = fmt.Sprintf(rule.Label, lm.Ordinal)
		}
		// Lettered points keep their marker so the leaf text stays
		// self-identifying.
		if rule.Kind == LevelPoint && lm.Ordinal != "" {
			lm.Fragment = lm.Ordinal + ") " + lm.Fragment
		}
		return lm, true
	}
	return LevelMatch{}, false
}

// IsGrammarBoilerplate checks the grammar-specific boilerplate bank.
func (g *Grammar) IsGrammarBoilerplate(line string) bool {
	for _, p := range g.Boilerplate {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// DocType enumerates the supported document types, named by the keyword
// that declares them in the document body.
type DocType string

const (
	TypeDirective DocType = "CHỈ THỊ"
	TypeDecree    DocType = "NGHỊ ĐỊNH"
	TypeCircular  DocType = "THÔNG TƯ"
	TypeDecision  DocType = "QUYẾT ĐỊNH"
	TypeLaw       DocType = "LUẬT"
	TypeTelegram  DocType = "CÔNG ĐIỆN"
	TypeUnknown   DocType = ""
)

// DocTypes lists every recognized type, longest keyword first so the
// detection alternation never truncates a match.
var DocTypes = []DocType{TypeDirective, TypeDecree, TypeCircular, TypeDecision, TypeTelegram, TypeLaw}

// directiveGrammar covers directives, decisions, circulars and official
// telegrams: roman "I." chapters, arabic "1." sections, "a)" clauses and
// "-" points.
func directiveGrammar() *Grammar {
	return &Grammar{
		Name: "directive",
		Levels: []LevelRule{
			{Kind: LevelChapter, Pattern: regexp.MustCompile(`(?i)^\s*([IVXLCDM]+)\.\s*(.*)$`), Label: "Chương %s"},
			{Kind: LevelSection, Pattern: regexp.MustCompile(`^\s*(\d+)\.\s+([^\d].*)$`), Label: "Mục %s"},
			{Kind: LevelClause, Pattern: regexp.MustCompile(`(?i)^\s*([a-zđ])\)\s*(.*)$`), Label: "Khoản %s"},
			{Kind: LevelPoint, Pattern: regexp.MustCompile(`^\s*-\s+(.*)$`)},
		},
		SummaryWindow: 15,
	}
}

// decreeGrammar covers decrees and laws: "Chương <roman>" chapters with
// the title on the next line, "Điều <n>." articles, arabic clauses and
// "a)" points.
func decreeGrammar() *Grammar {
	return &Grammar{
		Name: "decree",
		Levels: []LevelRule{
			{Kind: LevelChapter, Pattern: regexp.MustCompile(`(?i)^\s*Chương\s+([IVXLCDM]+)\s*$`), Label: "Chương %s", TitleFollows: true},
			{Kind: LevelSection, Pattern: regexp.MustCompile(`^\s*(Điều\s+\d+)\.\s+(.*)$`), Label: "%s"},
			{Kind: LevelClause, Pattern: regexp.MustCompile(`^\s*(\d+)\.\s+(.*)$`), Label: "Khoản %s"},
			{Kind: LevelPoint, Pattern: regexp.MustCompile(`(?i)^\s*([a-zđ])\)\s+(.*)$`)},
		},
		Boilerplate: []*regexp.Regexp{
			regexp.MustCompile(`^Căn cứ (Hiến pháp|Luật|Bộ luật|Nghị quyết)`),
			regexp.MustCompile(`^Theo đề nghị của`),
		},
		SummaryWindow:    40,
		SummaryStopPlain: true,
		SummaryStops: []*regexp.Regexp{
			regexp.MustCompile(`^Căn cứ`),
		},
	}
}

// telegramGrammar is the directive grammar with an extra summary stop at
// the recipient salutation.
func telegramGrammar() *Grammar {
	g := directiveGrammar()
	g.Name = "telegram"
	g.SummaryStops = append(g.SummaryStops, regexp.MustCompile(`(?i)điện\s*:`))
	return g
}

// Registry maps document types to their grammars. Immutable after
// construction; ApplyOverrides builds the merged state before first use.
type Registry struct {
	grammars map[DocType]*Grammar
	fallback *Grammar
}

// DefaultRegistry wires the built-in grammars.
func DefaultRegistry() *Registry {
	directive := directiveGrammar()
	decree := decreeGrammar()
	return &Registry{
		grammars: map[DocType]*Grammar{
			TypeDirective: directive,
			TypeDecision:  directive,
			TypeCircular:  directive,
			TypeTelegram:  telegramGrammar(),
			TypeDecree:    decree,
			TypeLaw:       decree,
		},
		fallback: directive,
	}
}

// For returns the grammar for a document type, falling back to the
// directive grammar for unknown types.
func (r *Registry) For(t DocType) *Grammar {
	if g, ok := r.grammars[t]; ok {
		return g
	}
	return r.fallback
}
