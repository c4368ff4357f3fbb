package links

import (
	"context"

	"github.com/unfurl-sh/unfurl/engine/chain"
	"github.com/unfurl-sh/unfurl/engine/node"
	"github.com/unfurl-sh/unfurl/pkg/tplengine"
)

// Template renders `{{ }}` placeholders in strings and scalar nodes
// against the current variable context. Rendering never fails the chain:
// an unresolvable placeholder leaves the string verbatim and records a
// warning. The link is shallow on purpose; the expander feeds it each
// string at the tree position where the right context is in scope.
type Template struct {
	engine *tplengine.TemplateEngine
}

// NewTemplate creates the link bound to a template engine.
func NewTemplate(engine *tplengine.TemplateEngine) *Template {
	return &Template{engine: engine}
}

func (t *Template) ID() string {
	return TemplateID
}

func (t *Template) Apply(_ context.Context, env *chain.Env, in any) (any, error) {
	switch v := in.(type) {
	case string:
		return t.render(env, v), nil
	case *node.Node:
		if v.Kind() == node.KindScalar {
			if s, ok := v.Value().(string); ok && tplengine.HasTemplate(s) {
				return node.Scalar(t.render(env, s)), nil
			}
		}
		return v, nil
	default:
		return in, nil
	}
}

func (t *Template) render(env *chain.Env, s string) string {
	if !tplengine.HasTemplate(s) {
		return s
	}
	context := map[string]any{"vars": map[string]any(env.Vars)}
	out, err := t.engine.RenderLenient(s, context)
	if err != nil {
		env.Warnf(env.Path, "unresolved template in %q: %v", s, err)
	}
	return out
}
