package span

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// HTMLExtractor handles HTML files, e.g. gazette pages saved from the
// government portal. Headings and bold elements map to bold units.
type HTMLExtractor struct{}

func (p *HTMLExtractor) Extract(r io.Reader, filename string) ([]TextUnit, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var units []TextUnit
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "head":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6", "b", "strong":
				if t := Normalize(textContent(n)); t != "" {
					units = append(units, TextUnit{Content: t, Bold: true, Page: 1})
				}
				return
			case "p", "li", "td", "blockquote", "div":
				// Only take the text of leaf-ish containers; divs with
				// element children are walked instead so nested structure
				// isn't flattened twice.
				if n.Data == "div" && hasElementChild(n) {
					break
				}
				if t := Normalize(textContent(n)); t != "" {
					units = append(units, TextUnit{Content: t, Bold: containsBoldChild(n), Page: 1})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return units, nil
}

func textContent(n *html.Node) string {
	var buf []byte
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf = append(buf, n.Data...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return string(buf)
}

func hasElementChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}

// containsBoldChild reports whether the element's entire text sits
// inside a b/strong child.
func containsBoldChild(n *html.Node) bool {
	total := Normalize(textContent(n))
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "b" || c.Data == "strong") {
			if Normalize(textContent(c)) == total {
				return true
			}
		}
	}
	return false
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
