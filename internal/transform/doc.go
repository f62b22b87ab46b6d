// Package transform applies the configured ordered sequence of text-rewriting
// rules to an assembled transcript. A rule is either a case-folding mode or a
// regular-expression substitution; case modes are applied first with a fixed
// priority, then substitutions run sequentially in configuration order.
package transform
