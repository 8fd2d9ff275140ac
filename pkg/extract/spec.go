package extract

import (
	"fmt"
	"maps"
	"slices"
)

// JoinSpec configures a [Join] rule.
type JoinSpec struct {
	Target    string   `toml:"target" yaml:"target" json:"target"`
	Separator string   `toml:"separator" yaml:"separator" json:"separator,omitempty"`
	Fields    []string `toml:"fields" yaml:"fields" json:"fields"`
}

// RuleSpec is the declarative form of the rules for one resource type, as
// read from a configuration file. Parts run in a fixed order: Rename,
// Translate, Join, then Expressions. Every part sees the original resource;
// when two parts set the same field, the later one wins.
type RuleSpec struct {
	Locale      string            `toml:"locale" yaml:"locale" json:"locale,omitempty"`
	Fallback    string            `toml:"fallback" yaml:"fallback" json:"fallback,omitempty"`
	Translate   []string          `toml:"translate" yaml:"translate" json:"translate,omitempty"`
	Rename      map[string]string `toml:"rename" yaml:"rename" json:"rename,omitempty"`
	Join        []JoinSpec        `toml:"join" yaml:"join" json:"join,omitempty"`
	Expressions map[string]string `toml:"expressions" yaml:"expressions" json:"expressions,omitempty"`
}

// Rule compiles s into a single rule.
func (s RuleSpec) Rule() (Rule, error) {
	var rules []Rule
	for _, from := range slices.Sorted(maps.Keys(s.Rename)) {
		rules = append(rules, Rename(from, s.Rename[from]))
	}
	if len(s.Translate) > 0 {
		if s.Locale == "" {
			return nil, fmt.Errorf("translate requires a locale")
		}
		rules = append(rules, Translated(s.Locale, s.Fallback, s.Translate...))
	}
	for i, j := range s.Join {
		if j.Target == "" || len(j.Fields) == 0 {
			return nil, fmt.Errorf("join[%d]: target and fields are required", i)
		}
		sep := j.Separator
		if sep == "" {
			sep = " "
		}
		rules = append(rules, Join(j.Target, sep, j.Fields...))
	}
	if len(s.Expressions) > 0 {
		rule, err := Expressions(s.Expressions)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return Chain(rules...), nil
}

// Build compiles a registry from per-type specs.
func Build(specs map[string]RuleSpec) (*Registry, error) {
	x := NewRegistry()
	for _, typ := range slices.Sorted(maps.Keys(specs)) {
		rule, err := specs[typ].Rule()
		if err != nil {
			return nil, fmt.Errorf("rules for %q: %w", typ, err)
		}
		x.Register(typ, rule)
	}
	return x, nil
}
