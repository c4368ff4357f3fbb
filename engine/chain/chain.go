package chain

import (
	"context"
	"fmt"

	"github.com/unfurl-sh/unfurl/engine/node"
)

// Link is a single transformation step. Links are pure over their input:
// the output of link i becomes the input of link i+1. A link whose
// activation predicate does not hold for the input shape passes it
// through unchanged.
type Link interface {
	ID() string
	Apply(ctx context.Context, env *Env, in any) (any, error)
}

// Accumulator is an optional link capability: the link gathers inputs
// across a whole run (swallowing them by returning nil) and emits its
// aggregate in a final flush round.
type Accumulator interface {
	Link
	Flush(ctx context.Context, env *Env) (any, error)
}

// Warning is a non-fatal finding recorded during processing, carrying the
// node path it refers to.
type Warning struct {
	Path    node.Path
	Message string
}

// Env is the per-run environment injected into every link invocation. It
// carries the current variable context, the position in the source tree,
// and the caller's side channels. Links hold no state of their own beyond
// explicit accumulation, so independent runs never share anything through
// them.
type Env struct {
	Vars   map[string]any
	Path   node.Path
	Strict bool

	// OnWarn receives non-fatal findings (unresolved placeholders,
	// skipped subtrees). Nil means warnings are dropped.
	OnWarn func(Warning)
	// OnEnqueue lets links inject additional source references into the
	// current run, in front of the remaining queue.
	OnEnqueue func(refs ...string)
}

// Warnf records a warning for the given path.
func (e *Env) Warnf(path node.Path, format string, args ...any) {
	if e == nil || e.OnWarn == nil {
		return
	}
	e.OnWarn(Warning{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Enqueue injects additional source references into the run.
func (e *Env) Enqueue(refs ...string) {
	if e == nil || e.OnEnqueue == nil {
		return
	}
	e.OnEnqueue(refs...)
}

// Chain is an ordered sequence of links.
type Chain struct {
	links []Link
}

// New creates a chain from the given links.
func New(links ...Link) *Chain {
	return &Chain{links: links}
}

// Links returns the links in order.
func (c *Chain) Links() []Link {
	return c.links
}

// Apply pipes the input through every link in order, failing fast on the
// first link error. A link returning nil swallows the input and
// short-circuits the rest of the chain (accumulators and source-injecting
// links do this).
func (c *Chain) Apply(ctx context.Context, env *Env, in any) (any, error) {
	current := in
	for _, link := range c.links {
		if current == nil {
			return nil, nil
		}
		out, err := link.Apply(ctx, env, current)
		if err != nil {
			return nil, &ExecutionError{LinkID: link.ID(), Path: env.Path, Err: err}
		}
		current = out
	}
	return current, nil
}

// Flush runs the end-of-run round: the first accumulator in the chain
// emits its aggregate, which is then piped through the remaining links.
// Returns nil when the chain has nothing left to emit.
func (c *Chain) Flush(ctx context.Context, env *Env) (any, error) {
	var current any
	for _, link := range c.links {
		var (
			out any
			err error
		)
		if current != nil {
			out, err = link.Apply(ctx, env, current)
		} else if acc, ok := link.(Accumulator); ok {
			out, err = acc.Flush(ctx, env)
		} else {
			continue
		}
		if err != nil {
			return nil, &ExecutionError{LinkID: link.ID(), Path: env.Path, Err: err}
		}
		current = out
	}
	return current, nil
}
