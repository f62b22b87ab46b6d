package transform

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// CaseMode is a case-folding transformation applied to the whole transcript.
type CaseMode string

// Supported case-folding modes, listed in application priority order.
const (
	CaseLower CaseMode = "lower"
	CaseFold  CaseMode = "casefold"
	CaseUpper CaseMode = "upper"
	CaseTitle CaseMode = "title"
)

// casePriority is the fixed order in which configured case modes are
// considered; only the first mode present in the rule list is applied,
// regardless of where it appears.
var casePriority = []CaseMode{CaseLower, CaseFold, CaseUpper, CaseTitle}

// Rule is one configured transformation: either a case-folding mode or a
// regular-expression substitution. Exactly one of Case and Pattern is set.
type Rule struct {
	Case        CaseMode
	Pattern     *regexp.Regexp
	Replacement string
}

// IsSubstitution reports whether the rule is a pattern/replacement pair.
func (r Rule) IsSubstitution() bool {
	return r.Pattern != nil
}

// UnmarshalYAML decodes a rule from its configuration form: a bare string
// names a case mode, a two-element sequence is a [pattern, replacement] pair.
// Patterns are compiled here so malformed rules fail at startup, not per
// request.
func (r *Rule) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var mode string
		if err := value.Decode(&mode); err != nil {
			return fmt.Errorf("failed to decode case rule: %w", err)
		}
		switch CaseMode(mode) {
		case CaseLower, CaseFold, CaseUpper, CaseTitle:
			r.Case = CaseMode(mode)
		default:
			return fmt.Errorf("unknown case mode %q (must be one of lower, casefold, upper, title)", mode)
		}
		return nil

	case yaml.SequenceNode:
		var pair []string
		if err := value.Decode(&pair); err != nil {
			return fmt.Errorf("failed to decode substitution rule: %w", err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("substitution rule must be a [pattern, replacement] pair, got %d elements", len(pair))
		}
		pattern, err := regexp.Compile(pair[0])
		if err != nil {
			return fmt.Errorf("invalid substitution pattern %q: %w", pair[0], err)
		}
		r.Pattern = pattern
		r.Replacement = pair[1]
		return nil

	default:
		return fmt.Errorf("transformation rule must be a case mode string or a [pattern, replacement] pair")
	}
}
