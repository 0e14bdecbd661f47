package doctree

import "fmt"

// childKind maps each level to the only kind allowed beneath it.
var childKind = map[Kind]Kind{
	KindChapter: KindSection,
	KindSection: KindClause,
}

// Validate reports structural problems downstream consumers would
// otherwise hit silently: levels nested out of order, points attached
// above the clause level, or nodes that carry nothing at all. An empty
// slice means the tree is well formed.
func Validate(d *Document) []string {
	var problems []string

	if len(d.Chapters) == 0 && len(d.Amendments) == 0 {
		problems = append(problems, "document has no structural content")
	}

	for i, ch := range d.Chapters {
		if ch.Kind != KindChapter {
			problems = append(problems, fmt.Sprintf("top-level node %d has kind %q, expected %q", i, ch.Kind, KindChapter))
		}
		problems = append(problems, validateNode(ch, nodeName(ch, i))...)
	}

	for i, a := range d.Amendments {
		if a.Label == "" {
			problems = append(problems, fmt.Sprintf("amendment %d has no label", i))
		}
		for j, c := range a.Changes {
			if c.Instruction == "" && c.Content == "" {
				problems = append(problems, fmt.Sprintf("change %d of %s is empty", j, a.Label))
			}
		}
	}

	return problems
}

func validateNode(n *Node, name string) []string {
	var problems []string

	if n.Kind != KindClause && len(n.Points) > 0 {
		problems = append(problems, fmt.Sprintf("%s carries %d points above the clause level", name, len(n.Points)))
	}
	if n.Kind == KindClause && len(n.Children) > 0 {
		problems = append(problems, fmt.Sprintf("%s has children below the clause level", name))
	}
	if n.IsEmpty() {
		problems = append(problems, fmt.Sprintf("%s is empty", name))
	}

	want, nests := childKind[n.Kind]
	for i, c := range n.Children {
		if nests && c.Kind != want {
			problems = append(problems, fmt.Sprintf("%s child %d has kind %q, expected %q", name, i, c.Kind, want))
		}
		problems = append(problems, validateNode(c, nodeName(c, i))...)
	}

	return problems
}

func nodeName(n *Node, idx int) string {
	if n.Label != "" {
		return n.Label
	}
	return fmt.Sprintf("anonymous %s %d", n.Kind, idx)
}
