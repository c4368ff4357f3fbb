package expand

import (
	"context"
	"fmt"

	"github.com/unfurl-sh/unfurl/engine/chain"
	"github.com/unfurl-sh/unfurl/engine/node"
)

const (
	DefaultVarsKey  = "vars"
	DefaultTasksKey = "tasks"
	DefaultNameKey  = "name"
)

// Expander flattens a configuration tree into an ordered list of task
// items, resolving variable inheritance along the way. It holds no
// per-run state: concurrent Expand calls on separate trees are safe.
type Expander struct {
	varsKey  string
	tasksKey string
	nameKey  string
	strict   bool
	chain    *chain.Chain
}

// Option configures an Expander.
type Option func(*Expander)

// WithVarsKey sets the key that injects inherited variables.
func WithVarsKey(key string) Option {
	return func(e *Expander) { e.varsKey = key }
}

// WithTasksKey sets the key that nests a child item group.
func WithTasksKey(key string) Option {
	return func(e *Expander) { e.tasksKey = key }
}

// WithNameKey sets the key naming a full-mapping item.
func WithNameKey(key string) Option {
	return func(e *Expander) { e.nameKey = key }
}

// WithStrict makes structural errors fatal. Without it, offending
// subtrees are skipped and recorded as warnings.
func WithStrict(strict bool) Option {
	return func(e *Expander) { e.strict = strict }
}

// WithChain sets the processor chain consulted for per-node transforms
// (templating, regex substitution) before a node is interpreted.
func WithChain(c *chain.Chain) Option {
	return func(e *Expander) { e.chain = c }
}

// New creates an Expander with the default key schema.
func New(opts ...Option) *Expander {
	e := &Expander{
		varsKey:  DefaultVarsKey,
		tasksKey: DefaultTasksKey,
		nameKey:  DefaultNameKey,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand flattens the tree rooted at root. The emitted items appear in
// strict depth-first, left-to-right source order. In strict mode the
// first structural error aborts with no partial output; otherwise the
// result is partial with warnings for every skipped subtree.
func (e *Expander) Expand(ctx context.Context, root *node.Node, initial Vars) (*Result, error) {
	return e.ExpandSource(ctx, "config", root, initial)
}

// ExpandSource is Expand with an explicit source name used as the root of
// every provenance trail.
func (e *Expander) ExpandSource(ctx context.Context, source string, root *node.Node, initial Vars) (*Result, error) {
	res := &Result{Items: []TaskItem{}}
	if root == nil {
		return res, nil
	}
	if err := e.walk(ctx, root, initial.Clone(), node.Root(source), res); err != nil {
		return nil, err
	}
	return res, nil
}

// walk owns the vars it receives: it may mutate them, since every caller
// hands over a private snapshot.
func (e *Expander) walk(ctx context.Context, n *node.Node, vars Vars, path node.Path, res *Result) error {
	piped, err := e.pipe(ctx, n, vars, path, res)
	if err != nil {
		return e.fail(res, path, err)
	}
	if piped == nil {
		return nil
	}
	n = piped
	switch n.Kind() {
	case node.KindScalar:
		if n.Value() == nil {
			return nil
		}
		e.emit(res, n.StringValue(), vars, path)
		return nil
	case node.KindList:
		for i, item := range n.Items() {
			if err := e.walk(ctx, item, vars.Clone(), path.Index(i), res); err != nil {
				return err
			}
		}
		return nil
	case node.KindMap:
		return e.walkMapping(ctx, n, vars, path, res)
	default:
		return e.fail(res, path, &MalformedNodeError{Path: path, Reason: fmt.Sprintf("unsupported node kind %s", n.Kind())})
	}
}

func (e *Expander) walkMapping(ctx context.Context, n *node.Node, vars Vars, path node.Path, res *Result) error {
	var unknown []string
	for _, k := range n.Keys() {
		if !e.recognized(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return e.walkGroup(ctx, n, vars, path, res)
	}
	if n.Len() == 1 {
		return e.walkShorthand(ctx, n.Entries()[0], vars, path, res)
	}
	return e.fail(res, path, &MalformedNodeError{
		Path:   path,
		Reason: fmt.Sprintf("unrecognized keys %v at group level", unknown),
	})
}

// walkGroup handles a mapping made of recognized keys only: vars merge,
// then either a child group or a full-mapping leaf.
func (e *Expander) walkGroup(ctx context.Context, n *node.Node, vars Vars, path node.Path, res *Result) error {
	tasksNode, hasTasks := n.Get(e.tasksKey)
	nameNode, hasName := n.Get(e.nameKey)
	if hasTasks && hasName {
		return e.fail(res, path, &MalformedNodeError{
			Path:   path,
			Reason: fmt.Sprintf("%q and %q cannot appear at the same level", e.tasksKey, e.nameKey),
		})
	}
	if varsNode, ok := n.Get(e.varsKey); ok {
		if err := e.mergeVars(ctx, varsNode, vars, path.Key(e.varsKey), res); err != nil {
			return e.fail(res, path.Key(e.varsKey), err)
		}
	}
	if hasTasks {
		if tasksNode.Kind() != node.KindList {
			return e.fail(res, path.Key(e.tasksKey), &MalformedNodeError{
				Path:   path.Key(e.tasksKey),
				Reason: fmt.Sprintf("value of %q must be a list, got %s", e.tasksKey, tasksNode.Kind()),
			})
		}
		return e.walk(ctx, tasksNode, vars, path.Key(e.tasksKey), res)
	}
	if hasName {
		if nameNode.Kind() != node.KindScalar {
			return e.fail(res, path.Key(e.nameKey), &MalformedNodeError{
				Path:   path.Key(e.nameKey),
				Reason: fmt.Sprintf("value of %q must be a scalar, got %s", e.nameKey, nameNode.Kind()),
			})
		}
		name, err := e.renderString(ctx, nameNode.StringValue(), vars, path.Key(e.nameKey), res)
		if err != nil {
			return e.fail(res, path.Key(e.nameKey), err)
		}
		e.emit(res, name, vars, path)
	}
	// a vars-only mapping contributes nothing by itself
	return nil
}

// walkShorthand handles the single-key form {key: value}: the key is the
// item name when value is a mapping of leaf-local vars (or nil), and a
// provenance path segment when value is a nested list.
func (e *Expander) walkShorthand(ctx context.Context, entry node.Entry, vars Vars, path node.Path, res *Result) error {
	name, err := e.renderString(ctx, entry.Key, vars, path, res)
	if err != nil {
		return e.fail(res, path, err)
	}
	itemPath := path.Key(name)
	value := entry.Value
	switch value.Kind() {
	case node.KindScalar:
		if value.Value() != nil {
			return e.fail(res, itemPath, &MalformedNodeError{
				Path:   itemPath,
				Reason: fmt.Sprintf("scalar value for item %q; expected mapping or list", name),
			})
		}
		e.emit(res, name, vars, itemPath)
		return nil
	case node.KindList:
		// group semantics: the key becomes a path segment, no item emitted
		return e.walk(ctx, value, vars, itemPath, res)
	case node.KindMap:
		return e.walkShorthandMapping(ctx, name, value, vars, itemPath, res)
	default:
		return e.fail(res, itemPath, &MalformedNodeError{Path: itemPath, Reason: fmt.Sprintf("unsupported node kind %s", value.Kind())})
	}
}

func (e *Expander) walkShorthandMapping(ctx context.Context, name string, value *node.Node, vars Vars, path node.Path, res *Result) error {
	known, unknown := 0, 0
	for _, k := range value.Keys() {
		if e.recognized(k) {
			known++
		} else {
			unknown++
		}
	}
	switch {
	case known > 0 && unknown > 0:
		return e.fail(res, path, &MalformedNodeError{
			Path:   path,
			Reason: fmt.Sprintf("item %q mixes structural keys with plain variables", name),
		})
	case known > 0:
		// structured form: {key: {vars: ..., tasks: ...}}
		if _, hasName := value.Get(e.nameKey); hasName {
			return e.fail(res, path, &MalformedNodeError{
				Path:   path,
				Reason: fmt.Sprintf("item %q cannot carry a nested %q key", name, e.nameKey),
			})
		}
		if varsNode, ok := value.Get(e.varsKey); ok {
			if err := e.mergeVars(ctx, varsNode, vars, path.Key(e.varsKey), res); err != nil {
				return e.fail(res, path.Key(e.varsKey), err)
			}
		}
		if tasksNode, ok := value.Get(e.tasksKey); ok {
			if tasksNode.Kind() != node.KindList {
				return e.fail(res, path.Key(e.tasksKey), &MalformedNodeError{
					Path:   path.Key(e.tasksKey),
					Reason: fmt.Sprintf("value of %q must be a list, got %s", e.tasksKey, tasksNode.Kind()),
				})
			}
			return e.walk(ctx, tasksNode, vars, path.Key(e.tasksKey), res)
		}
		e.emit(res, name, vars, path)
		return nil
	default:
		// plain mapping: leaf-local vars, scoped to this item only and
		// overriding inherited keys
		if err := e.mergeVars(ctx, value, vars, path, res); err != nil {
			return e.fail(res, path, err)
		}
		e.emit(res, name, vars, path)
		return nil
	}
}

// mergeVars shallow-merges a vars mapping into the context, rendering
// each value through the chain against the pre-merge context.
func (e *Expander) mergeVars(ctx context.Context, varsNode *node.Node, vars Vars, path node.Path, res *Result) error {
	if varsNode.Kind() != node.KindMap {
		return &MalformedNodeError{
			Path:   path,
			Reason: fmt.Sprintf("value of %q must be a mapping, got %s", e.varsKey, varsNode.Kind()),
		}
	}
	for _, entry := range varsNode.Entries() {
		val, err := e.renderValue(ctx, entry.Value, vars, path.Key(entry.Key), res)
		if err != nil {
			return err
		}
		vars[entry.Key] = val
	}
	return nil
}

// renderValue converts a node into a plain value, piping every string
// through the chain's node links.
func (e *Expander) renderValue(ctx context.Context, n *node.Node, vars Vars, path node.Path, res *Result) (any, error) {
	switch n.Kind() {
	case node.KindScalar:
		s, ok := n.Value().(string)
		if !ok {
			return n.Value(), nil
		}
		return e.renderString(ctx, s, vars, path, res)
	case node.KindList:
		out := make([]any, 0, len(n.Items()))
		for i, item := range n.Items() {
			v, err := e.renderValue(ctx, item, vars, path.Index(i), res)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case node.KindMap:
		out := make(map[string]any, n.Len())
		for _, entry := range n.Entries() {
			v, err := e.renderValue(ctx, entry.Value, vars, path.Key(entry.Key), res)
			if err != nil {
				return nil, err
			}
			out[entry.Key] = v
		}
		return out, nil
	default:
		return nil, &MalformedNodeError{Path: path, Reason: fmt.Sprintf("unsupported node kind %s", n.Kind())}
	}
}

// pipe runs a node through the chain before it is interpreted.
func (e *Expander) pipe(ctx context.Context, n *node.Node, vars Vars, path node.Path, res *Result) (*node.Node, error) {
	if e.chain == nil {
		return n, nil
	}
	out, err := e.chain.Apply(ctx, e.env(vars, path, res), n)
	if err != nil {
		return nil, err
	}
	switch t := out.(type) {
	case nil:
		return nil, nil
	case *node.Node:
		return t, nil
	case string:
		return node.Scalar(t), nil
	default:
		return node.FromAny(t)
	}
}

// renderString runs a string through the chain's node links.
func (e *Expander) renderString(ctx context.Context, s string, vars Vars, path node.Path, res *Result) (string, error) {
	if e.chain == nil {
		return s, nil
	}
	out, err := e.chain.Apply(ctx, e.env(vars, path, res), s)
	if err != nil {
		return "", err
	}
	switch t := out.(type) {
	case nil:
		return s, nil
	case string:
		return t, nil
	case *node.Node:
		return t.StringValue(), nil
	default:
		return fmt.Sprintf("%v", t), nil
	}
}

func (e *Expander) env(vars Vars, path node.Path, res *Result) *chain.Env {
	return &chain.Env{
		Vars:   vars,
		Path:   path,
		Strict: e.strict,
		OnWarn: func(w chain.Warning) {
			res.Warnings = append(res.Warnings, w)
		},
	}
}

func (e *Expander) emit(res *Result, name string, vars Vars, path node.Path) {
	res.Items = append(res.Items, TaskItem{
		Name:   name,
		Vars:   vars.Clone(),
		Origin: []string(path),
	})
}

func (e *Expander) recognized(key string) bool {
	return key == e.varsKey || key == e.tasksKey || key == e.nameKey
}

// fail converts an error into a warning in non-strict mode, skipping the
// offending subtree; in strict mode the error aborts the expansion.
func (e *Expander) fail(res *Result, path node.Path, err error) error {
	if e.strict {
		return err
	}
	res.Warnings = append(res.Warnings, Warning{Path: path, Message: err.Error()})
	return nil
}
