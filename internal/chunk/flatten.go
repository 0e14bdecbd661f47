package chunk

import (
	"strings"

	"github.com/ngocdv/vanban/internal/doctree"
	"github.com/ngocdv/vanban/internal/meta"
)

// Flatten walks a parsed document depth-first and emits one chunk per
// point and one per childless titled node, so every retained content
// string lands in exactly one chunk. Titles accumulate into the
// context path, labels into the citation path; anonymous placeholder
// nodes extend neither.
func Flatten(doc *doctree.Document) []Chunk {
	if doc == nil {
		return nil
	}
	md := doc.Metadata
	context := extend(nil, md.DisplayName())

	var chunks []Chunk
	for _, ch := range doc.Chapters {
		flattenNode(ch, context, nil, md, &chunks)
	}
	for _, am := range doc.Amendments {
		flattenAmendment(am, context, md, &chunks)
	}
	return chunks
}

func flattenNode(n *doctree.Node, context, citation []string, md meta.Metadata, out *[]Chunk) {
	ctx := extend(context, n.Title)
	cit := extend(citation, n.Label)
	location := strings.Join(cit, ", ")

	for _, point := range n.Points {
		content := withContext(ctx, "Nội dung: "+point)
		*out = append(*out, newChunk(md, location, content))
	}
	for _, child := range n.Children {
		flattenNode(child, ctx, cit, md, out)
	}
	if len(n.Points) == 0 && len(n.Children) == 0 && n.Title != "" {
		*out = append(*out, newChunk(md, location, strings.Join(ctx, ". ")))
	}
}

// flattenAmendment emits one chunk per change, keeping the change
// instruction and its quoted replacement block together.
func flattenAmendment(am *doctree.Amendment, context []string, md meta.Metadata, out *[]Chunk) {
	ctx := extend(context, am.Title)
	cit := extend(nil, am.Label)

	for _, ch := range am.Changes {
		body := ch.Instruction
		if ch.Content != "" {
			body += "\n" + ch.Content
		}
		location := strings.Join(extend(cit, ch.Label), ", ")
		*out = append(*out, newChunk(md, location, withContext(ctx, "Nội dung: "+body)))
	}
}

// extend copies path with s appended, leaving path itself untouched.
// Empty segments are dropped.
func extend(path []string, s string) []string {
	if s == "" {
		return path
	}
	next := make([]string, len(path), len(path)+1)
	copy(next, path)
	return append(next, s)
}

func withContext(ctx []string, body string) string {
	joined := strings.Join(ctx, ". ")
	if joined == "" {
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(joined + ". " + body)
}
