package node

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the three shapes a configuration node can take.
type Kind int

const (
	KindScalar Kind = iota
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindMap:
		return "mapping"
	default:
		return "unknown"
	}
}

// Entry is a single key/value pair of a mapping node. Entries keep the
// order they had in the source document.
type Entry struct {
	Key   string
	Value *Node
}

// Node is the variant type for raw configuration input: a scalar, an
// ordered list of nodes, or an ordered mapping of string keys to nodes.
// Nodes are read-only after construction.
type Node struct {
	kind    Kind
	scalar  any
	items   []*Node
	entries []Entry
}

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

// Scalar creates a scalar node holding the given value.
func Scalar(v any) *Node {
	return &Node{kind: KindScalar, scalar: v}
}

// List creates a list node from the given items.
func List(items ...*Node) *Node {
	return &Node{kind: KindList, items: items}
}

// Map creates a mapping node from the given entries, preserving their order.
func Map(entries ...Entry) *Node {
	return &Node{kind: KindMap, entries: entries}
}

// FromAny converts a plain Go value (the shape yaml/json unmarshaling
// produces) into a node tree. Map keys are sorted to keep the result
// deterministic, since Go map iteration order is random; use Decode when
// source order must be preserved.
func FromAny(v any) (*Node, error) {
	switch t := v.(type) {
	case nil:
		return Scalar(nil), nil
	case *Node:
		return t, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			child, err := FromAny(t[k])
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry{Key: k, Value: child})
		}
		return Map(entries...), nil
	case map[any]any:
		return nil, fmt.Errorf("mapping with non-string keys is not supported")
	case []any:
		items := make([]*Node, 0, len(t))
		for _, item := range t {
			child, err := FromAny(item)
			if err != nil {
				return nil, err
			}
			items = append(items, child)
		}
		return List(items...), nil
	case string, bool, int, int64, uint64, float64, float32:
		return Scalar(t), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// Decode parses a YAML (or JSON, which YAML subsumes) document into a node
// tree, preserving the order of mapping keys as written.
func Decode(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Scalar(nil), nil
	}
	return fromYAML(doc.Content[0])
}

func fromYAML(n *yaml.Node) (*Node, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("failed to decode scalar at line %d: %w", n.Line, err)
		}
		return Scalar(v), nil
	case yaml.SequenceNode:
		items := make([]*Node, 0, len(n.Content))
		for _, c := range n.Content {
			child, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			items = append(items, child)
		}
		return List(items...), nil
	case yaml.MappingNode:
		entries := make([]Entry, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("non-scalar mapping key at line %d", key.Line)
			}
			child, err := fromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry{Key: key.Value, Value: child})
		}
		return Map(entries...), nil
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	default:
		return nil, fmt.Errorf("unsupported YAML node kind %d at line %d", n.Kind, n.Line)
	}
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

// Kind returns the shape of the node.
func (n *Node) Kind() Kind {
	return n.kind
}

// Value returns the scalar value. It is nil for non-scalar nodes.
func (n *Node) Value() any {
	return n.scalar
}

// StringValue renders the scalar value as a string.
func (n *Node) StringValue() string {
	if n.kind != KindScalar || n.scalar == nil {
		return ""
	}
	if s, ok := n.scalar.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", n.scalar)
}

// Items returns the elements of a list node.
func (n *Node) Items() []*Node {
	return n.items
}

// Entries returns the key/value pairs of a mapping node in source order.
func (n *Node) Entries() []Entry {
	return n.entries
}

// Get looks up a mapping key. The second return is false when the node is
// not a mapping or the key is absent.
func (n *Node) Get(key string) (*Node, bool) {
	for _, e := range n.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Len returns the number of list items or mapping entries.
func (n *Node) Len() int {
	switch n.kind {
	case KindList:
		return len(n.items)
	case KindMap:
		return len(n.entries)
	default:
		return 0
	}
}

// Keys returns the mapping keys in source order.
func (n *Node) Keys() []string {
	keys := make([]string, 0, len(n.entries))
	for _, e := range n.entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Interface converts the node tree back into plain Go values
// (map[string]any, []any, scalars). Mapping order is lost in the result;
// callers that need order must walk the node itself.
func (n *Node) Interface() any {
	switch n.kind {
	case KindScalar:
		return n.scalar
	case KindList:
		out := make([]any, 0, len(n.items))
		for _, item := range n.items {
			out = append(out, item.Interface())
		}
		return out
	case KindMap:
		out := make(map[string]any, len(n.entries))
		for _, e := range n.entries {
			out[e.Key] = e.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// Encode renders the node tree as YAML.
func (n *Node) Encode() ([]byte, error) {
	out, err := yaml.Marshal(n.toYAML())
	if err != nil {
		return nil, fmt.Errorf("failed to encode node: %w", err)
	}
	return out, nil
}

// toYAML builds a yaml.Node so mapping order survives marshaling.
func (n *Node) toYAML() *yaml.Node {
	switch n.kind {
	case KindList:
		out := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range n.items {
			out.Content = append(out.Content, item.toYAML())
		}
		return out
	case KindMap:
		out := &yaml.Node{Kind: yaml.MappingNode}
		for _, e := range n.entries {
			key := &yaml.Node{}
			key.SetString(e.Key)
			out.Content = append(out.Content, key, e.Value.toYAML())
		}
		return out
	default:
		out := &yaml.Node{}
		if err := out.Encode(n.scalar); err != nil {
			out.SetString(n.StringValue())
		}
		return out
	}
}
