package links

import (
	"context"

	"github.com/unfurl-sh/unfurl/engine/chain"
	"github.com/unfurl-sh/unfurl/engine/node"
	"github.com/unfurl-sh/unfurl/engine/resolver"
)

// Fetch resolves a string reference into its raw text through the
// injected content resolver. Non-string input passes through.
type Fetch struct {
	resolver resolver.Resolver
}

// NewFetch creates the link bound to a resolver.
func NewFetch(res resolver.Resolver) *Fetch {
	return &Fetch{resolver: res}
}

func (f *Fetch) ID() string {
	return FetchID
}

func (f *Fetch) Apply(ctx context.Context, _ *chain.Env, in any) (any, error) {
	reference, ok := in.(string)
	if !ok {
		if n, isNode := in.(*node.Node); isNode && n.Kind() == node.KindScalar {
			if s, isString := n.Value().(string); isString {
				reference = s
				ok = true
			}
		}
	}
	if !ok {
		return in, nil
	}
	content, err := f.resolver.Resolve(ctx, reference)
	if err != nil {
		return nil, err
	}
	return string(content.Data), nil
}
