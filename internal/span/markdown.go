package span

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor handles Markdown files using goldmark. Headings
// become bold units; list items keep a leading "-" so point markers
// survive the round trip through markdown.
type MarkdownExtractor struct{}

func (p *MarkdownExtractor) Extract(r io.Reader, filename string) ([]TextUnit, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	var units []TextUnit
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		units = appendBlockUnits(units, n, src)
	}
	return units, nil
}

func appendBlockUnits(units []TextUnit, n ast.Node, src []byte) []TextUnit {
	switch node := n.(type) {
	case *ast.Heading:
		title := Normalize(string(node.Text(src)))
		if title != "" {
			units = append(units, TextUnit{Content: title, Bold: true, Page: 1})
		}
	case *ast.List:
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			t := Normalize(nodeText(item, src))
			if t != "" {
				units = append(units, TextUnit{Content: "- " + t, Page: 1})
			}
		}
	default:
		for _, line := range strings.Split(nodeText(n, src), "\n") {
			content := Normalize(line)
			if content == "" {
				continue
			}
			units = append(units, TextUnit{Content: content, Page: 1})
		}
	}
	return units
}

// nodeText gets the text content of a goldmark AST node. Block nodes
// that carry source lines are read from the source directly; container
// nodes recurse into their children.
func nodeText(n ast.Node, src []byte) string {
	if n.Type() == ast.TypeBlock {
		if lines := n.Lines(); lines.Len() > 0 {
			var buf bytes.Buffer
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}
			return strings.TrimSpace(buf.String())
		}
	}
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		s := nodeText(c, src)
		if s == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(s)
	}
	return strings.TrimSpace(buf.String())
}
