package links

import (
	"context"

	"github.com/unfurl-sh/unfurl/engine/chain"
	"github.com/unfurl-sh/unfurl/engine/node"
)

// Parse turns raw YAML/JSON text into a node tree. Input that already is
// a node passes through.
type Parse struct{}

func (p *Parse) ID() string {
	return ParseID
}

func (p *Parse) Apply(_ context.Context, _ *chain.Env, in any) (any, error) {
	switch t := in.(type) {
	case string:
		return node.Decode([]byte(t))
	case []byte:
		return node.Decode(t)
	case *node.Node:
		return t, nil
	default:
		return node.FromAny(t)
	}
}

// ToYAML renders a node tree back into YAML text.
type ToYAML struct{}

func (t *ToYAML) ID() string {
	return ToYAMLID
}

func (t *ToYAML) Apply(_ context.Context, _ *chain.Env, in any) (any, error) {
	switch v := in.(type) {
	case *node.Node:
		out, err := v.Encode()
		if err != nil {
			return nil, err
		}
		return string(out), nil
	case string:
		return v, nil
	default:
		n, err := node.FromAny(v)
		if err != nil {
			return nil, err
		}
		out, err := n.Encode()
		if err != nil {
			return nil, err
		}
		return string(out), nil
	}
}
