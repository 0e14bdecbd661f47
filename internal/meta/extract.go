package meta

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ngocdv/vanban/internal/classify"
	"github.com/ngocdv/vanban/internal/span"
)

const (
	// defaultPrefixWindow bounds the header scan for the number, type,
	// issuer and date lines.
	defaultPrefixWindow = 40
	// signatoryTail is how many trailing units the signatory scan covers.
	signatoryTail = 50
	// lawClosingTail is how many trailing units the law passage formula
	// is searched in.
	lawClosingTail = 20
)

var (
	numberPattern        = regexp.MustCompile(`Số:\s*(\S+)`)
	datePattern          = regexp.MustCompile(`(?i)(?:(?:Hà Nội|TP\. Hồ Chí Minh)\s*,)?\s*ngày\s+(\d{1,2})\s*(?:tháng|[-/\s])\s*(\d{1,2})\s*(?:năm|[-/\s])\s*(\d{4})`)
	issuerHeadingPattern = regexp.MustCompile(`(?i)^(CHÍNH PHỦ|QUỐC HỘI)\s*$`)
	lawPassagePattern    = regexp.MustCompile(`(?i)khóa\s+([IVXLCDM]+).*kỳ họp thứ\s+(\S+)\s+thông qua\s+ngày\s+(\d{1,2})\s+tháng\s+(\d{1,2})\s+năm\s*(\d{4})`)
	typePattern          = regexp.MustCompile(`(?i)^(` + typeAlternation() + `)\s*$`)
	namePattern          = regexp.MustCompile(`^\p{Lu}\p{Ll}+(?:\s+\p{Lu}\p{Ll}+){1,4}$`)
)

func typeAlternation() string {
	names := make([]string, 0, len(classify.DocTypes))
	for _, t := range classify.DocTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, "|")
}

// Extractor pulls document metadata out of the unit stream. The type
// line is located first; the grammar selected by it then controls how
// the bold summary is collected.
type Extractor struct {
	rules        *classify.RuleSet
	grammars     *classify.Registry
	prefixWindow int
	logger       *slog.Logger
}

func NewExtractor(rules *classify.RuleSet, grammars *classify.Registry, logger *slog.Logger) *Extractor {
	if rules == nil {
		rules = classify.DefaultRules()
	}
	if grammars == nil {
		grammars = classify.DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		rules:        rules,
		grammars:     grammars,
		prefixWindow: defaultPrefixWindow,
		logger:       logger,
	}
}

// Extract scans the units for the document's administrative fields.
// Header fields come from a bounded prefix scan with first-match-wins
// semantics, the summary from the bold lines after the type line, and
// the signatory from a reverse scan over the document tail.
func (e *Extractor) Extract(units []span.TextUnit, sourceFile string) Metadata {
	md := Metadata{SourceFile: sourceFile}

	typeIdx := e.scanPrefix(&md, units)
	if md.Issuer == "" {
		md.Issuer = IssuerFor(md.Number)
	}
	if md.Type != "" && md.Number != "" {
		md.Name = titleCase(md.Type) + " " + md.Number
	}
	if typeIdx >= 0 {
		md.Summary = e.collectSummary(units, typeIdx, e.grammars.For(md.DocType()))
	}
	if md.Name == "" && md.Summary != "" {
		md.Name = md.Summary
	}
	if md.DocType() == classify.TypeLaw {
		e.lawClosing(&md, units)
	}
	e.findSignatory(&md, units)

	if md.Number == "" {
		e.logger.Warn("document number not found", "file", sourceFile)
	}
	return md
}

// scanPrefix fills number, type, issuer and issue date from the top of
// the document and returns the index of the type line, or -1.
func (e *Extractor) scanPrefix(md *Metadata, units []span.TextUnit) int {
	limit := min(len(units), e.prefixWindow)
	typeIdx := -1
	for i := 0; i < limit; i++ {
		line := units[i].Content
		if line == "" || e.rules.IsHeaderFooter(line) {
			continue
		}
		if md.Issuer == "" {
			if m := issuerHeadingPattern.FindStringSubmatch(line); m != nil {
				md.Issuer = strings.ToUpper(strings.TrimSpace(m[1]))
				continue
			}
		}
		if md.Type == "" {
			if m := typePattern.FindStringSubmatch(line); m != nil {
				md.Type = strings.ToUpper(strings.TrimSpace(m[1]))
				typeIdx = i
				continue
			}
		}
		if md.Number == "" {
			if m := numberPattern.FindStringSubmatch(line); m != nil {
				md.Number = m[1]
				continue
			}
		}
		if md.IssueDate == "" {
			if m := datePattern.FindStringSubmatch(line); m != nil {
				md.IssueDate = formatDate(m[1], m[2], m[3])
			}
		}
	}
	return typeIdx
}

// collectSummary gathers the bold lines between the type line and the
// first structural boundary. Letterhead and grammar boilerplate are
// skipped but still consume the lookahead window.
func (e *Extractor) collectSummary(units []span.TextUnit, typeIdx int, g *classify.Grammar) string {
	window := g.SummaryWindow
	if window <= 0 {
		window = 15
	}

	var picked []span.TextUnit
	scanned := 0
	for j := typeIdx + 1; j < len(units) && scanned < window; j++ {
		u := units[j]
		line := u.Content
		if line == "" || e.rules.IsHeaderFooter(line) || e.rules.IsSignature(line) {
			break
		}
		if _, ok := g.Match(line); ok {
			break
		}
		if summaryStops(g, line) {
			break
		}
		if e.rules.IsLetterhead(line) || g.IsGrammarBoilerplate(line) {
			scanned++
			continue
		}
		picked = append(picked, u)
		scanned++
	}

	var parts []string
	for _, u := range picked {
		switch {
		case u.Bold:
			parts = append(parts, u.Content)
		case g.SummaryStopPlain && len(parts) > 0:
			// Decree summaries end at the first plain line after the
			// bold block.
			return strings.Join(parts, " ")
		}
	}
	return strings.Join(parts, " ")
}

func summaryStops(g *classify.Grammar, line string) bool {
	for _, p := range g.SummaryStops {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// findSignatory walks the document tail bottom-up. The title line sits
// above the name line in the signature block, so the reverse scan finds
// the name first.
func (e *Extractor) findSignatory(md *Metadata, units []span.TextUnit) {
	start := max(len(units)-signatoryTail, 0)
	var lines []string
	for _, u := range units[start:] {
		line := u.Content
		if line == "" || e.rules.IsHeaderFooter(line) || e.rules.IsLetterhead(line) {
			continue
		}
		lines = append(lines, line)
	}

	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if md.SignatoryTitle == "" {
			if title := e.rules.SignatureTitle(line); title != "" {
				md.SignatoryTitle = strings.ToUpper(title)
				if md.Signatory != "" {
					return
				}
				continue
			}
		}
		if md.Signatory == "" && e.looksLikeName(line) {
			md.Signatory = line
			if md.SignatoryTitle != "" {
				return
			}
		}
	}
}

func (e *Extractor) looksLikeName(line string) bool {
	if e.rules.IsKnownSignatory(line) {
		return true
	}
	n := utf8.RuneCountInString(line)
	return n >= 5 && n <= 50 && namePattern.MatchString(line)
}

// lawClosing pulls the legislature term, session and passage date from
// the closing formula of a law. The passage date replaces any date
// found in the header.
func (e *Extractor) lawClosing(md *Metadata, units []span.TextUnit) {
	start := max(len(units)-lawClosingTail, 0)
	var b strings.Builder
	for _, u := range units[start:] {
		if u.Content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(u.Content)
	}

	m := lawPassagePattern.FindStringSubmatch(b.String())
	if m == nil {
		return
	}
	md.Term = strings.TrimSpace(m[1])
	md.Session = strings.TrimSpace(m[2])
	md.IssueDate = formatDate(m[3], m[4], m[5])
}

// TypeLineIndex locates the line declaring the document type within
// the metadata prefix. Returns -1 when the document never declares one.
func TypeLineIndex(units []span.TextUnit) int {
	limit := min(len(units), defaultPrefixWindow)
	for i := 0; i < limit; i++ {
		if typePattern.MatchString(units[i].Content) {
			return i
		}
	}
	return -1
}

func formatDate(day, month, year string) string {
	d, _ := strconv.Atoi(day)
	m, _ := strconv.Atoi(month)
	return fmt.Sprintf("%02d/%02d/%s", d, m, year)
}

// titleCase renders an uppercase type keyword the way composed document
// names are written, "CHỈ THỊ" becoming "Chỉ Thị".
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
