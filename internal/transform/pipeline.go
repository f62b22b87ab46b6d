package transform

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Diagnostic records one substitution rule that matched, capturing the text
// immediately before and after the replacement. Rules that do not match emit
// no diagnostic.
type Diagnostic struct {
	Pattern     string
	Replacement string
	Before      string
	After       string
}

// Pipeline is the compiled transformation pipeline. It is immutable after
// construction and safe for concurrent use across requests.
type Pipeline struct {
	caseMode      CaseMode
	substitutions []Rule
}

// NewPipeline builds a Pipeline from the configured rule list. The case modes
// present in the list are reduced to at most one using the fixed priority
// lower > casefold > upper > title; substitution rules keep their configured
// order.
func NewPipeline(rules []Rule) *Pipeline {
	p := &Pipeline{}

	present := make(map[CaseMode]bool, len(rules))
	for _, rule := range rules {
		if rule.IsSubstitution() {
			p.substitutions = append(p.substitutions, rule)
		} else {
			present[rule.Case] = true
		}
	}

	for _, mode := range casePriority {
		if present[mode] {
			p.caseMode = mode
			break
		}
	}

	return p
}

// Apply runs the pipeline over text: the selected case mode first, then each
// substitution rule in order against the current text, replacing all
// occurrences. Each rule is applied exactly once, so patterns matching the
// empty string cannot loop. An empty rule list is the identity transform.
func (p *Pipeline) Apply(text string) (string, []Diagnostic) {
	current := applyCase(p.caseMode, text)

	var diagnostics []Diagnostic
	for _, rule := range p.substitutions {
		if !rule.Pattern.MatchString(current) {
			continue
		}
		before := current
		current = rule.Pattern.ReplaceAllString(current, rule.Replacement)
		diagnostics = append(diagnostics, Diagnostic{
			Pattern:     rule.Pattern.String(),
			Replacement: rule.Replacement,
			Before:      before,
			After:       current,
		})
	}

	return current, diagnostics
}

// applyCase applies a single case-folding mode. Casers from x/text are
// stateful, so they are created per call rather than stored on the Pipeline.
func applyCase(mode CaseMode, text string) string {
	switch mode {
	case CaseLower:
		return strings.ToLower(text)
	case CaseFold:
		return cases.Fold().String(text)
	case CaseUpper:
		return strings.ToUpper(text)
	case CaseTitle:
		return cases.Title(language.Und).String(text)
	default:
		return text
	}
}
