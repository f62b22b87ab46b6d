package transform

import (
	"regexp"
	"testing"

	"gopkg.in/yaml.v3"
)

func caseRule(mode CaseMode) Rule {
	return Rule{Case: mode}
}

func subRule(t *testing.T, pattern, replacement string) Rule {
	t.Helper()
	return Rule{Pattern: regexp.MustCompile(pattern), Replacement: replacement}
}

func TestPipelineEmptyRuleListIsIdentity(t *testing.T) {
	p := NewPipeline(nil)

	text, diags := p.Apply("Hello, World!")
	if text != "Hello, World!" {
		t.Errorf("Expected unchanged text, got %q", text)
	}
	if len(diags) != 0 {
		t.Errorf("Expected no diagnostics, got %d", len(diags))
	}
}

func TestPipelineEmptyInput(t *testing.T) {
	p := NewPipeline([]Rule{
		caseRule(CaseLower),
		subRule(t, ",", ""),
		subRule(t, "[.!?]", ""),
	})

	text, diags := p.Apply("")
	if text != "" {
		t.Errorf("Expected empty output for empty input, got %q", text)
	}
	if len(diags) != 0 {
		t.Errorf("Expected no diagnostics for empty input, got %d", len(diags))
	}
}

func TestPipelineCasePriority(t *testing.T) {
	tests := []struct {
		name     string
		modes    []CaseMode
		input    string
		expected string
	}{
		{
			name:     "lower wins over upper regardless of order",
			modes:    []CaseMode{CaseUpper, CaseLower},
			input:    "Hello World",
			expected: "hello world",
		},
		{
			name:     "casefold wins over upper and title",
			modes:    []CaseMode{CaseTitle, CaseUpper, CaseFold},
			input:    "Straße",
			expected: "strasse",
		},
		{
			name:     "upper applied when no lower or casefold",
			modes:    []CaseMode{CaseTitle, CaseUpper},
			input:    "hello",
			expected: "HELLO",
		},
		{
			name:     "title applied last in priority",
			modes:    []CaseMode{CaseTitle},
			input:    "hello world",
			expected: "Hello World",
		},
		{
			name:     "no case mode leaves text unchanged",
			modes:    nil,
			input:    "MiXeD Case",
			expected: "MiXeD Case",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := make([]Rule, 0, len(tt.modes))
			for _, m := range tt.modes {
				rules = append(rules, caseRule(m))
			}

			text, _ := NewPipeline(rules).Apply(tt.input)
			if text != tt.expected {
				t.Errorf("Apply(%q) = %q, expected %q", tt.input, text, tt.expected)
			}
		})
	}
}

func TestPipelineSubstitutionNoMatchIsNoop(t *testing.T) {
	p := NewPipeline([]Rule{subRule(t, "xyz", "replaced")})

	input := "nothing to see here"
	text, diags := p.Apply(input)

	if text != input {
		t.Errorf("Expected unchanged text, got %q", text)
	}
	if len(diags) != 0 {
		t.Errorf("Expected no diagnostics when pattern does not match, got %d", len(diags))
	}
}

func TestPipelineSubstitutionsChainInOrder(t *testing.T) {
	// Each rule's output feeds the next rule's input.
	p := NewPipeline([]Rule{
		subRule(t, "a", "b"),
		subRule(t, "b", "c"),
	})

	text, diags := p.Apply("a")
	if text != "c" {
		t.Errorf("Expected chained output %q, got %q", "c", text)
	}
	if len(diags) != 2 {
		t.Fatalf("Expected 2 diagnostics, got %d", len(diags))
	}

	// The second diagnostic must reflect the state produced by the first rule.
	if diags[0].Before != "a" || diags[0].After != "b" {
		t.Errorf("First diagnostic: got before=%q after=%q", diags[0].Before, diags[0].After)
	}
	if diags[1].Before != "b" || diags[1].After != "c" {
		t.Errorf("Second diagnostic: got before=%q after=%q", diags[1].Before, diags[1].After)
	}
}

func TestPipelineReplacesAllOccurrences(t *testing.T) {
	p := NewPipeline([]Rule{subRule(t, "o", "0")})

	text, _ := p.Apply("foo boo")
	if text != "f00 b00" {
		t.Errorf("Expected all occurrences replaced, got %q", text)
	}
}

func TestPipelineEmptyMatchingPatternTerminates(t *testing.T) {
	// A pattern that matches the empty string is applied exactly once and must
	// not loop.
	p := NewPipeline([]Rule{subRule(t, "x*", "-")})

	text, diags := p.Apply("abc")
	if text != "-a-b-c-" {
		t.Errorf("Expected single-pass replacement %q, got %q", "-a-b-c-", text)
	}
	if len(diags) != 1 {
		t.Errorf("Expected exactly one diagnostic, got %d", len(diags))
	}
}

func TestPipelineLowerThenStripComma(t *testing.T) {
	p := NewPipeline([]Rule{
		caseRule(CaseLower),
		subRule(t, ",", ""),
	})

	text, _ := p.Apply("HELLO, WORLD!")
	if text != "hello world!" {
		t.Errorf("Expected %q, got %q", "hello world!", text)
	}
}

func TestPipelineStableOnTransformedOutput(t *testing.T) {
	p := NewPipeline([]Rule{
		caseRule(CaseLower),
		subRule(t, ",", ""),
		subRule(t, "[.!?]", ""),
	})

	first, _ := p.Apply("Hello, World! How are you?")
	second, diags := p.Apply(first)

	if second != first {
		t.Errorf("Re-applying pipeline changed stable output: %q -> %q", first, second)
	}
	if len(diags) != 0 {
		t.Errorf("Expected no diagnostics on stable input, got %d", len(diags))
	}
}

func TestRuleUnmarshalYAML(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		expectError bool
		check       func(t *testing.T, rules []Rule)
	}{
		{
			name: "case modes and substitution pair",
			yaml: "- lower\n- [\",\", \"\"]\n",
			check: func(t *testing.T, rules []Rule) {
				if len(rules) != 2 {
					t.Fatalf("Expected 2 rules, got %d", len(rules))
				}
				if rules[0].Case != CaseLower {
					t.Errorf("Expected lower case rule, got %q", rules[0].Case)
				}
				if !rules[1].IsSubstitution() || rules[1].Pattern.String() != "," {
					t.Errorf("Expected substitution rule for comma, got %+v", rules[1])
				}
			},
		},
		{
			name: "all case modes accepted",
			yaml: "- lower\n- casefold\n- upper\n- title\n",
			check: func(t *testing.T, rules []Rule) {
				if len(rules) != 4 {
					t.Fatalf("Expected 4 rules, got %d", len(rules))
				}
			},
		},
		{
			name:        "unknown case mode rejected",
			yaml:        "- shouting\n",
			expectError: true,
		},
		{
			name:        "substitution with wrong arity rejected",
			yaml:        "- [\"a\", \"b\", \"c\"]\n",
			expectError: true,
		},
		{
			name:        "malformed regex rejected",
			yaml:        "- [\"[unclosed\", \"\"]\n",
			expectError: true,
		},
		{
			name:        "mapping node rejected",
			yaml:        "- {pattern: a, replacement: b}\n",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rules []Rule
			err := yaml.Unmarshal([]byte(tt.yaml), &rules)

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected unmarshal error")
				}
				return
			}

			if err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if tt.check != nil {
				tt.check(t, rules)
			}
		})
	}
}
