package classify

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Grammar overrides let a deployment add or adjust numbering
// conventions without a rebuild. The file maps grammar names to level
// patterns and extraction knobs:
//
//	grammars:
//	  directive:
//	    types: ["CHỈ THỊ", "QUYẾT ĐỊNH"]
//	    summary_window: 15
//	    levels:
//	      - kind: chapter
//	        pattern: '^\s*([IVXLCDM]+)\.\s*(.*)$'
//	        label: "Chương %s"
type grammarFile struct {
	Grammars map[string]grammarSpec `yaml:"grammars"`
}

type grammarSpec struct {
	Types            []string    `yaml:"types"`
	Levels           []levelSpec `yaml:"levels"`
	Boilerplate      []string    `yaml:"boilerplate"`
	SummaryWindow    int         `yaml:"summary_window"`
	SummaryStops     []string    `yaml:"summary_stops"`
	SummaryStopPlain bool        `yaml:"summary_stop_plain"`
}

type levelSpec struct {
	Kind         string `yaml:"kind"`
	Pattern      string `yaml:"pattern"`
	Label        string `yaml:"label"`
	TitleFollows bool   `yaml:"title_follows"`
}

// ApplyOverridesFile merges a YAML grammar file into the registry.
// Call before the registry is shared; it is not safe to apply overrides
// concurrently with classification.
func (r *Registry) ApplyOverridesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read grammar overrides: %w", err)
	}
	if err := r.ApplyOverrides(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ApplyOverrides merges YAML grammar definitions into the registry.
func (r *Registry) ApplyOverrides(data []byte) error {
	var file grammarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse grammar overrides: %w", err)
	}

	for name, spec := range file.Grammars {
		g, err := spec.compile(name)
		if err != nil {
			return err
		}
		if len(spec.Types) == 0 {
			return fmt.Errorf("grammar %q lists no document types", name)
		}
		for _, t := range spec.Types {
			r.grammars[DocType(t)] = g
		}
	}
	return nil
}

func (s grammarSpec) compile(name string) (*Grammar, error) {
	if len(s.Levels) == 0 {
		return nil, fmt.Errorf("grammar %q has no levels", name)
	}
	g := &Grammar{
		Name:             name,
		SummaryWindow:    s.SummaryWindow,
		SummaryStopPlain: s.SummaryStopPlain,
	}
	if g.SummaryWindow <= 0 {
		g.SummaryWindow = 15
	}
	for _, l := range s.Levels {
		kind, err := ParseLevelKind(l.Kind)
		if err != nil {
			return nil, fmt.Errorf("grammar %q: %w", name, err)
		}
		p, err := regexp.Compile(l.Pattern)
		if err != nil {
			return nil, fmt.Errorf("grammar %q level %s: %w", name, l.Kind, err)
		}
		g.Levels = append(g.Levels, LevelRule{
			Kind:         kind,
			Pattern:      p,
			Label:        l.Label,
			TitleFollows: l.TitleFollows,
		})
	}
	for _, raw := range s.Boilerplate {
		p, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("grammar %q boilerplate: %w", name, err)
		}
		g.Boilerplate = append(g.Boilerplate, p)
	}
	for _, raw := range s.SummaryStops {
		p, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("grammar %q summary stop: %w", name, err)
		}
		g.SummaryStops = append(g.SummaryStops, p)
	}
	return g, nil
}
