// Package links provides the builtin chain links: URL abbreviation
// expansion, content fetching, document parsing, templating, regex
// substitution, source injection, and result accumulation.
package links

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/unfurl-sh/unfurl/engine/chain"
	"github.com/unfurl-sh/unfurl/engine/resolver"
	"github.com/unfurl-sh/unfurl/pkg/tplengine"
)

// Link identifiers.
const (
	AbbrevID   = "abbrev"
	FetchID    = "fetch"
	ParseID    = "parse"
	TemplateID = "template"
	RegexID    = "regex"
	LoadMoreID = "loadmore"
	CollectID  = "collect"
	ToYAMLID   = "toyaml"
)

// Default builds a registry with every builtin link, bound to the given
// resolver and template engine. Populate it once at process start and
// treat it as read-only afterwards.
func Default(res resolver.Resolver, eng *tplengine.TemplateEngine) *chain.Registry {
	r := chain.NewRegistry()
	r.MustRegister(AbbrevID, NewAbbrev)
	r.MustRegister(FetchID, func(_ map[string]any) (chain.Link, error) {
		return NewFetch(res), nil
	})
	r.MustRegister(ParseID, func(_ map[string]any) (chain.Link, error) {
		return &Parse{}, nil
	})
	r.MustRegister(TemplateID, func(_ map[string]any) (chain.Link, error) {
		return NewTemplate(eng), nil
	})
	if err := r.RegisterRepeatable(RegexID, NewRegex); err != nil {
		panic(err)
	}
	r.MustRegister(LoadMoreID, func(_ map[string]any) (chain.Link, error) {
		return &LoadMore{}, nil
	})
	r.MustRegister(CollectID, func(_ map[string]any) (chain.Link, error) {
		return &Collect{}, nil
	})
	r.MustRegister(ToYAMLID, func(_ map[string]any) (chain.Link, error) {
		return &ToYAML{}, nil
	})
	return r
}

// decodeOptions maps a spec's options into a typed struct.
func decodeOptions(options map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create options decoder: %w", err)
	}
	if err := dec.Decode(options); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	return nil
}
