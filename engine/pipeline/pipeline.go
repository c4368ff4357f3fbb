// Package pipeline drives whole expansion runs: raw source references are
// resolved and parsed through a processor chain, the resulting trees are
// overlay-merged, and the merged tree is flattened into task items.
package pipeline

import (
	"context"
	"fmt"

	"github.com/unfurl-sh/unfurl/engine/chain"
	"github.com/unfurl-sh/unfurl/engine/expand"
	"github.com/unfurl-sh/unfurl/engine/merge"
	"github.com/unfurl-sh/unfurl/engine/node"
	"github.com/unfurl-sh/unfurl/pkg/logger"
)

// MaxSources caps how many sources one run may process; hitting it means
// a source list references itself.
const MaxSources = 1024

// Pipeline holds the per-run wiring: the chain that turns references into
// trees and the expander that flattens the merged tree.
type Pipeline struct {
	sourceChain *chain.Chain
	expander    *expand.Expander
	strict      bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSourceChain sets the chain applied to every source reference
// (default expectation: abbrev, fetch, parse, loadmore).
func WithSourceChain(c *chain.Chain) Option {
	return func(p *Pipeline) { p.sourceChain = c }
}

// WithExpander sets the expander for the merged tree.
func WithExpander(e *expand.Expander) Option {
	return func(p *Pipeline) { p.expander = e }
}

// WithStrict makes source and merge failures fatal; without it the
// offending source is skipped and recorded as a warning.
func WithStrict(strict bool) Option {
	return func(p *Pipeline) { p.strict = strict }
}

// New creates a pipeline. Without options it expands trees as-is with a
// default expander and no source chain.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{expander: expand.New()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type sourceTree struct {
	ref  string
	tree *node.Node
}

// Run processes the sources in order, overlay-merges the resulting trees
// (later sources override earlier ones), and expands the merged tree with
// the given initial variable context. The resolution order is exactly the
// given order plus any sources injected mid-run, keeping output
// deterministic.
func (p *Pipeline) Run(ctx context.Context, sources []string, initial expand.Vars) (*expand.Result, error) {
	trees, warnings, err := p.collectTrees(ctx, sources)
	if err != nil {
		return nil, err
	}

	var (
		mergedTree *node.Node
		sourceName = "overlay"
	)
	if len(trees) == 1 {
		mergedTree = trees[0].tree
		sourceName = trees[0].ref
	} else {
		for _, t := range trees {
			combined, mergeErr := merge.Merge(mergedTree, t.tree)
			if mergeErr != nil {
				if p.strict {
					return nil, mergeErr
				}
				warnings = append(warnings, chain.Warning{
					Path:    node.Root(t.ref),
					Message: mergeErr.Error(),
				})
				continue
			}
			mergedTree = combined
		}
	}

	result, err := p.expander.ExpandSource(ctx, sourceName, mergedTree, initial)
	if err != nil {
		return nil, err
	}
	result.Warnings = append(warnings, result.Warnings...)
	return result, nil
}

// Collector receives the expansion result of each source tree when the
// caller wants per-source streaming instead of a merged run.
type Collector interface {
	Collect(source string, result *expand.Result)
}

// ListCollector keeps each source's result separate.
type ListCollector struct {
	Results []*expand.Result
}

func (c *ListCollector) Collect(_ string, result *expand.Result) {
	c.Results = append(c.Results, result)
}

// FlatCollector concatenates all items and warnings in source order.
type FlatCollector struct {
	Items    []expand.TaskItem
	Warnings []expand.Warning
}

func (c *FlatCollector) Collect(_ string, result *expand.Result) {
	c.Items = append(c.Items, result.Items...)
	c.Warnings = append(c.Warnings, result.Warnings...)
}

// RunEach expands every source tree on its own, without merging, handing
// each result to the collector in source order.
func (p *Pipeline) RunEach(ctx context.Context, sources []string, initial expand.Vars, collector Collector) error {
	trees, warnings, err := p.collectTrees(ctx, sources)
	if err != nil {
		return err
	}
	for i, t := range trees {
		result, err := p.expander.ExpandSource(ctx, t.ref, t.tree, initial)
		if err != nil {
			return err
		}
		if i == 0 && len(warnings) > 0 {
			result.Warnings = append(warnings, result.Warnings...)
		}
		collector.Collect(t.ref, result)
	}
	return nil
}

// collectTrees drains the source queue through the source chain. Links
// may inject further sources in front of the remaining queue; a flush
// round at the end lets accumulating links emit their aggregate.
func (p *Pipeline) collectTrees(ctx context.Context, sources []string) ([]sourceTree, []chain.Warning, error) {
	log := logger.FromContext(ctx)
	queue := make([]string, len(sources))
	copy(queue, sources)

	var (
		trees    []sourceTree
		warnings []chain.Warning
	)
	env := &chain.Env{
		Strict: p.strict,
		OnWarn: func(w chain.Warning) {
			warnings = append(warnings, w)
		},
		OnEnqueue: func(refs ...string) {
			queue = append(append([]string{}, refs...), queue...)
		},
	}

	processed := 0
	for len(queue) > 0 {
		processed++
		if processed > MaxSources {
			return nil, nil, fmt.Errorf("more than %d sources processed; this looks like a source loop", MaxSources)
		}
		ref := queue[0]
		queue = queue[1:]
		env.Path = node.Root(ref)
		log.Debug("processing source", "ref", ref)

		tree, err := p.processSource(ctx, env, ref)
		if err != nil {
			if p.strict {
				return nil, nil, err
			}
			warnings = append(warnings, chain.Warning{Path: node.Root(ref), Message: err.Error()})
			continue
		}
		if tree != nil {
			trees = append(trees, sourceTree{ref: ref, tree: tree})
		}
	}

	if p.sourceChain != nil {
		env.Path = node.Root("flush")
		flushed, err := p.sourceChain.Flush(ctx, env)
		if err != nil {
			if p.strict {
				return nil, nil, err
			}
			warnings = append(warnings, chain.Warning{Path: env.Path, Message: err.Error()})
		} else if flushed != nil {
			tree, err := toTree(flushed)
			if err != nil {
				return nil, nil, err
			}
			trees = append(trees, sourceTree{ref: "flush", tree: tree})
		}
	}

	return trees, warnings, nil
}

func (p *Pipeline) processSource(ctx context.Context, env *chain.Env, ref string) (*node.Node, error) {
	if p.sourceChain == nil {
		return toTree(ref)
	}
	out, err := p.sourceChain.Apply(ctx, env, ref)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	return toTree(out)
}

func toTree(v any) (*node.Node, error) {
	switch t := v.(type) {
	case *node.Node:
		return t, nil
	case string:
		return node.Decode([]byte(t))
	case []byte:
		return node.Decode(t)
	default:
		return node.FromAny(t)
	}
}
