package links

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/unfurl-sh/unfurl/engine/chain"
	"github.com/unfurl-sh/unfurl/engine/node"
)

type regexOptions struct {
	// Patterns maps a regular expression to its replacement.
	Patterns map[string]string `mapstructure:"patterns"`
}

// Regex applies a set of regex substitutions to strings and scalar
// nodes. Patterns are applied in sorted order so repeated runs are
// deterministic.
type Regex struct {
	rules []regexRule
}

type regexRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// NewRegex compiles the configured patterns.
func NewRegex(options map[string]any) (chain.Link, error) {
	var opts regexOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, err
	}
	patterns := make([]string, 0, len(opts.Patterns))
	for p := range opts.Patterns {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)
	rules := make([]regexRule, 0, len(patterns))
	for _, p := range patterns {
		compiled, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		rules = append(rules, regexRule{pattern: compiled, replacement: opts.Patterns[p]})
	}
	return &Regex{rules: rules}, nil
}

func (r *Regex) ID() string {
	return RegexID
}

func (r *Regex) Apply(_ context.Context, _ *chain.Env, in any) (any, error) {
	switch t := in.(type) {
	case string:
		return r.substitute(t), nil
	case *node.Node:
		if t.Kind() == node.KindScalar {
			if s, ok := t.Value().(string); ok {
				return node.Scalar(r.substitute(s)), nil
			}
		}
		return t, nil
	default:
		return in, nil
	}
}

func (r *Regex) substitute(s string) string {
	for _, rule := range r.rules {
		s = rule.pattern.ReplaceAllString(s, rule.replacement)
	}
	return s
}
