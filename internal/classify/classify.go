// Package classify assigns a role to each extracted text line and holds
// the per-document-type numbering grammars. Roles and grammars together
// drive both metadata extraction and the structure parser.
package classify

import (
	"strings"

	"github.com/ngocdv/vanban/internal/span"
)

// Role tags a single line.
type Role int

const (
	// RoleContent is the default for any non-blank line nothing else
	// claims.
	RoleContent Role = iota
	// RoleBlank has no non-whitespace content.
	RoleBlank
	// RoleBoilerplate covers headers, footers and letterhead.
	RoleBoilerplate
	// RoleSignature covers the closing title/name block and the end
	// marker.
	RoleSignature
	// RoleHeader opens an outline level; see Classification.Level.
	RoleHeader
)

func (r Role) String() string {
	switch r {
	case RoleContent:
		return "content"
	case RoleBlank:
		return "blank"
	case RoleBoilerplate:
		return "boilerplate"
	case RoleSignature:
		return "signature"
	case RoleHeader:
		return "header"
	}
	return "unknown"
}

// Classification is the result of classifying one unit. Level is set
// only for RoleHeader.
type Classification struct {
	Role  Role
	Level LevelMatch
}

// Classifier applies one rule set and one grammar. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	rules   *RuleSet
	grammar *Grammar
}

// NewClassifier builds a classifier from a rule set and the grammar of
// the document's type.
func NewClassifier(rules *RuleSet, grammar *Grammar) *Classifier {
	return &Classifier{rules: rules, grammar: grammar}
}

// Grammar exposes the classifier's grammar for callers that need the
// summary knobs.
func (c *Classifier) Grammar() *Grammar { return c.grammar }

// Rules exposes the shared rule set.
func (c *Classifier) Rules() *RuleSet { return c.rules }

// Classify assigns exactly one role to a unit. It never fails: a line
// matching nothing is content.
func (c *Classifier) Classify(u span.TextUnit) Classification {
	line := strings.TrimSpace(u.Content)
	if line == "" {
		return Classification{Role: RoleBlank}
	}
	if c.rules.IsBoilerplate(line) || c.grammar.IsGrammarBoilerplate(line) {
		return Classification{Role: RoleBoilerplate}
	}
	if c.rules.IsSignature(line) {
		return Classification{Role: RoleSignature}
	}
	if m, ok := c.grammar.Match(line); ok {
		return Classification{Role: RoleHeader, Level: m}
	}
	return Classification{Role: RoleContent}
}
