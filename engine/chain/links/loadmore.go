package links

import (
	"context"

	"github.com/unfurl-sh/unfurl/engine/chain"
	"github.com/unfurl-sh/unfurl/engine/node"
)

// LoadMore interprets a parsed tree that is a list of strings as further
// source references: it enqueues them into the current run and swallows
// the input. Anything else passes through.
type LoadMore struct{}

func (l *LoadMore) ID() string {
	return LoadMoreID
}

func (l *LoadMore) Apply(_ context.Context, env *chain.Env, in any) (any, error) {
	refs, ok := stringList(in)
	if !ok {
		return in, nil
	}
	env.Enqueue(refs...)
	return nil, nil
}

func stringList(in any) ([]string, bool) {
	switch t := in.(type) {
	case []string:
		return t, len(t) > 0
	case *node.Node:
		if t.Kind() != node.KindList || t.Len() == 0 {
			return nil, false
		}
		refs := make([]string, 0, t.Len())
		for _, item := range t.Items() {
			if item.Kind() != node.KindScalar {
				return nil, false
			}
			s, ok := item.Value().(string)
			if !ok {
				return nil, false
			}
			refs = append(refs, s)
		}
		return refs, true
	default:
		return nil, false
	}
}

// Collect is an accumulator: it gathers every input it sees and emits the
// collected list in the end-of-run flush round.
type Collect struct {
	collected []any
}

func (c *Collect) ID() string {
	return CollectID
}

func (c *Collect) Apply(_ context.Context, _ *chain.Env, in any) (any, error) {
	c.collected = append(c.collected, in)
	return nil, nil
}

func (c *Collect) Flush(_ context.Context, _ *chain.Env) (any, error) {
	if len(c.collected) == 0 {
		return nil, nil
	}
	return c.collected, nil
}
