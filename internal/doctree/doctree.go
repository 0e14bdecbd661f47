// Package doctree defines the hierarchical model a parsed legal
// document is stored in: a metadata header plus a tree of chapters,
// sections and clauses with point leaves, or a flat change list for
// amending laws.
package doctree

import "github.com/ngocdv/vanban/internal/meta"

// Kind names the structural level a node sits at.
type Kind string

const (
	KindChapter Kind = "chapter"
	KindSection Kind = "section"
	KindClause  Kind = "clause"
)

// Document is one parsed legal document. Regular documents carry a
// chapter tree; amending laws carry Amendments instead.
type Document struct {
	Metadata   meta.Metadata `json:"metadata"`
	Chapters   []*Node       `json:"chapters"`
	Amendments []*Amendment  `json:"amendments,omitempty"`
}

// Node is one labelled level of the tree. Label is the citation form
// ("Chương I", "Điều 5"), Ordinal the bare marker captured from the
// heading. Anonymous placeholder nodes synthesized to keep nesting
// uniform have empty ordinals and labels.
type Node struct {
	Kind     Kind     `json:"kind"`
	Ordinal  string   `json:"ordinal"`
	Label    string   `json:"label"`
	Title    string   `json:"title"`
	Children []*Node  `json:"children,omitempty"`
	Points   []string `json:"points,omitempty"`
}

// Amendment is one amending article of an amending law.
type Amendment struct {
	Label   string    `json:"label"`
	Title   string    `json:"title"`
	Changes []*Change `json:"changes"`
}

// Change is one numbered change instruction inside an amendment.
type Change struct {
	Label       string `json:"label"`
	Instruction string `json:"instruction"`
	Content     string `json:"content"`
}

// NewNode returns a node of the given kind with its citation fields.
func NewNode(kind Kind, ordinal, label, title string) *Node {
	return &Node{Kind: kind, Ordinal: ordinal, Label: label, Title: title}
}

// AddChild appends child and returns it.
func (n *Node) AddChild(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// AppendTitle extends the title with a continuation fragment from the
// following line.
func (n *Node) AppendTitle(fragment string) {
	if fragment == "" {
		return
	}
	if n.Title == "" {
		n.Title = fragment
		return
	}
	n.Title += " " + fragment
}

// ExtendLastPoint appends a continuation fragment to the most recent
// point. Reports false when there is no point to extend.
func (n *Node) ExtendLastPoint(fragment string) bool {
	if len(n.Points) == 0 {
		return false
	}
	n.Points[len(n.Points)-1] += " " + fragment
	return true
}

// IsAnonymous reports whether the node is a synthesized placeholder
// with no heading of its own.
func (n *Node) IsAnonymous() bool {
	return n.Ordinal == "" && n.Label == "" && n.Title == ""
}

// IsEmpty reports whether the node carries nothing at all.
func (n *Node) IsEmpty() bool {
	return n.IsAnonymous() && len(n.Children) == 0 && len(n.Points) == 0
}

// Walk visits every node depth-first, parents before children. Depth
// starts at 0 for chapters.
func (d *Document) Walk(fn func(n *Node, depth int)) {
	for _, ch := range d.Chapters {
		walkNode(ch, 0, fn)
	}
}

func walkNode(n *Node, depth int, fn func(n *Node, depth int)) {
	fn(n, depth)
	for _, c := range n.Children {
		walkNode(c, depth+1, fn)
	}
}
