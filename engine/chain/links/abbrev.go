package links

import (
	"context"
	"fmt"
	"strings"

	"github.com/unfurl-sh/unfurl/engine/chain"
	"github.com/unfurl-sh/unfurl/engine/merge"
	"github.com/unfurl-sh/unfurl/engine/node"
)

// Placeholder marks a position in a token-list abbreviation that is
// filled from the reference, in order.
const Placeholder = "{}"

// defaultAbbrevs covers the common hosting shortcuts:
// gh:owner/repo/path and bb:owner/repo/path.
var defaultAbbrevs = map[string]any{
	"gh": []any{"https://raw.githubusercontent.com", Placeholder, Placeholder, "master"},
	"bb": []any{"https://bitbucket.org", Placeholder, Placeholder, "src", "master"},
}

type abbrevOptions struct {
	// Abbrevs maps a prefix to either a replacement string or a token
	// list with placeholders.
	Abbrevs map[string]any `mapstructure:"abbrevs"`
	// NoDefaults drops the builtin gh/bb abbreviations.
	NoDefaults bool `mapstructure:"no_defaults"`
}

// Abbrev expands abbreviated references like gh:owner/repo/file.yml into
// their full URLs. Strings without a registered prefix pass through
// unchanged.
type Abbrev struct {
	abbrevs map[string]any
}

// NewAbbrev builds the link from its options, layering custom
// abbreviations over the builtin ones.
func NewAbbrev(options map[string]any) (chain.Link, error) {
	var opts abbrevOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, err
	}
	abbrevs := map[string]any{}
	if !opts.NoDefaults {
		abbrevs = defaultAbbrevs
	}
	if len(opts.Abbrevs) > 0 {
		merged, err := merge.Values(abbrevs, opts.Abbrevs)
		if err != nil {
			return nil, err
		}
		abbrevs = merged
	}
	return &Abbrev{abbrevs: abbrevs}, nil
}

func (a *Abbrev) ID() string {
	return AbbrevID
}

func (a *Abbrev) Apply(_ context.Context, _ *chain.Env, in any) (any, error) {
	switch t := in.(type) {
	case string:
		return a.expand(t)
	case *node.Node:
		if t.Kind() == node.KindScalar {
			if s, ok := t.Value().(string); ok {
				out, err := a.expand(s)
				if err != nil {
					return nil, err
				}
				return node.Scalar(out), nil
			}
		}
		return t, nil
	default:
		return in, nil
	}
}

func (a *Abbrev) expand(reference string) (string, error) {
	prefix, rest, found := strings.Cut(reference, ":")
	if !found {
		return reference, nil
	}
	replacement, ok := a.abbrevs[prefix]
	if !ok {
		return reference, nil
	}
	switch t := replacement.(type) {
	case string:
		return t + rest, nil
	case []any:
		return expandTokens(reference, rest, t)
	case []string:
		tokens := make([]any, 0, len(t))
		for _, s := range t {
			tokens = append(tokens, s)
		}
		return expandTokens(reference, rest, tokens)
	default:
		return "", fmt.Errorf("unsupported abbreviation value %T for prefix %q", replacement, prefix)
	}
}

// expandTokens assembles the full URL from a token-list abbreviation,
// consuming one reference part per placeholder and appending whatever is
// left over.
func expandTokens(reference, rest string, template []any) (string, error) {
	parts := strings.Split(rest, "/")
	minParts := 0
	for _, tok := range template {
		if tok == Placeholder {
			minParts++
		}
	}

	var b strings.Builder
	for _, tok := range template {
		var segment string
		if tok == Placeholder {
			if len(parts) == 0 {
				return "", fmt.Errorf(
					"cannot expand %q: need at least %d parts separated by '/' after ':'",
					reference, minParts)
			}
			segment = parts[0]
			parts = parts[1:]
			if segment == "" {
				return "", fmt.Errorf("cannot expand %q: empty part", reference)
			}
		} else {
			segment = fmt.Sprintf("%v", tok)
		}
		b.WriteString(segment)
		b.WriteString("/")
	}
	if len(parts) > 0 {
		b.WriteString(strings.Join(parts, "/"))
	}
	return strings.TrimSuffix(b.String(), "/"), nil
}
