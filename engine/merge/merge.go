package merge

import (
	"fmt"

	"dario.cat/mergo"

	"github.com/unfurl-sh/unfurl/engine/node"
)

// IncompatibleError reports an attempt to merge a mapping into a
// scalar/list position or vice versa.
type IncompatibleError struct {
	Path node.Path
	Base node.Kind
	Over node.Kind
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("cannot merge %s into %s at %s", e.Over, e.Base, e.Path)
}

// Source is one overlay input. Additive sources append their list items
// to the base lists instead of replacing them.
type Source struct {
	Node     *node.Node
	Additive bool
}

// Merge overlays the given trees in order: later sources override earlier
// ones per mapping key, recursively for nested mappings under the same
// key path. Lists are replaced wholesale.
func Merge(sources ...*node.Node) (*node.Node, error) {
	wrapped := make([]Source, 0, len(sources))
	for _, s := range sources {
		wrapped = append(wrapped, Source{Node: s})
	}
	return Sources(wrapped)
}

// Sources is Merge with per-source additive tagging.
func Sources(sources []Source) (*node.Node, error) {
	var result *node.Node
	for i, src := range sources {
		if src.Node == nil {
			continue
		}
		merged, err := overlay(result, src.Node, node.Root(fmt.Sprintf("source[%d]", i)), src.Additive)
		if err != nil {
			return nil, err
		}
		result = merged
	}
	return result, nil
}

func overlay(base, over *node.Node, path node.Path, additive bool) (*node.Node, error) {
	if base == nil {
		return over, nil
	}
	// a mapping can only merge with a mapping
	if (base.Kind() == node.KindMap) != (over.Kind() == node.KindMap) {
		return nil, &IncompatibleError{Path: path, Base: base.Kind(), Over: over.Kind()}
	}
	switch over.Kind() {
	case node.KindScalar:
		return over, nil
	case node.KindList:
		if !additive {
			return over, nil
		}
		items := make([]*node.Node, 0, base.Len()+over.Len())
		items = append(items, base.Items()...)
		items = append(items, over.Items()...)
		return node.List(items...), nil
	case node.KindMap:
		return overlayMapping(base, over, path, additive)
	default:
		return nil, fmt.Errorf("unsupported node kind %s at %s", over.Kind(), path)
	}
}

// overlayMapping keeps the base key order and appends keys the overlay
// introduces, in the overlay's order.
func overlayMapping(base, over *node.Node, path node.Path, additive bool) (*node.Node, error) {
	entries := make([]node.Entry, 0, base.Len()+over.Len())
	for _, e := range base.Entries() {
		overValue, ok := over.Get(e.Key)
		if !ok {
			entries = append(entries, e)
			continue
		}
		merged, err := overlay(e.Value, overValue, path.Key(e.Key), additive)
		if err != nil {
			return nil, err
		}
		entries = append(entries, node.Entry{Key: e.Key, Value: merged})
	}
	for _, e := range over.Entries() {
		if _, ok := base.Get(e.Key); !ok {
			entries = append(entries, e)
		}
	}
	return node.Map(entries...), nil
}

// Values deep-merges plain maps with src winning conflicts, for callers
// assembling variable contexts from several inputs (flag overrides on top
// of defaults).
func Values(dst, src map[string]any) (map[string]any, error) {
	result := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		result[k] = v
	}
	if err := mergo.Merge(&result, src, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge values: %w", err)
	}
	return result, nil
}
