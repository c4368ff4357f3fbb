package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unfurl-sh/unfurl/engine/node"
)

type stubLink struct {
	id    string
	apply func(env *Env, in any) (any, error)
}

func (l *stubLink) ID() string { return l.id }

func (l *stubLink) Apply(_ context.Context, env *Env, in any) (any, error) {
	return l.apply(env, in)
}

type stubAccumulator struct {
	stubLink
	flush func(env *Env) (any, error)
}

func (l *stubAccumulator) Flush(_ context.Context, env *Env) (any, error) {
	return l.flush(env)
}

func appendLink(id string) *stubLink {
	return &stubLink{id: id, apply: func(_ *Env, in any) (any, error) {
		return fmt.Sprintf("%v-%s", in, id), nil
	}}
}

func TestChainApply(t *testing.T) {
	t.Run("Should pipe the input through every link in order", func(t *testing.T) {
		c := New(appendLink("a"), appendLink("b"), appendLink("c"))
		out, err := c.Apply(context.Background(), &Env{}, "in")
		require.NoError(t, err)
		assert.Equal(t, "in-a-b-c", out)
	})

	t.Run("Should fail fast and name the offending link", func(t *testing.T) {
		boom := errors.New("boom")
		failing := &stubLink{id: "failing", apply: func(_ *Env, _ any) (any, error) {
			return nil, boom
		}}
		c := New(appendLink("a"), failing, appendLink("c"))
		_, err := c.Apply(context.Background(), &Env{Path: node.Root("src")}, "in")
		require.Error(t, err)
		var execErr *ExecutionError
		require.True(t, errors.As(err, &execErr))
		assert.Equal(t, "failing", execErr.LinkID)
		assert.Equal(t, "src", execErr.Path.String())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Should short-circuit when a link swallows the input", func(t *testing.T) {
		var reached bool
		swallow := &stubLink{id: "swallow", apply: func(_ *Env, _ any) (any, error) {
			return nil, nil
		}}
		after := &stubLink{id: "after", apply: func(_ *Env, in any) (any, error) {
			reached = true
			return in, nil
		}}
		c := New(swallow, after)
		out, err := c.Apply(context.Background(), &Env{}, "in")
		require.NoError(t, err)
		assert.Nil(t, out)
		assert.False(t, reached)
	})
}

func TestChainFlush(t *testing.T) {
	t.Run("Should emit the first accumulator's aggregate through the rest of the chain", func(t *testing.T) {
		acc := &stubAccumulator{
			stubLink: stubLink{id: "acc", apply: func(_ *Env, _ any) (any, error) {
				return nil, nil
			}},
			flush: func(_ *Env) (any, error) { return "aggregate", nil },
		}
		c := New(acc, appendLink("post"))
		out, err := c.Flush(context.Background(), &Env{})
		require.NoError(t, err)
		assert.Equal(t, "aggregate-post", out)
	})

	t.Run("Should return nil when no accumulator has anything to emit", func(t *testing.T) {
		c := New(appendLink("a"), appendLink("b"))
		out, err := c.Flush(context.Background(), &Env{})
		require.NoError(t, err)
		assert.Nil(t, out)
	})
}

func TestEnv(t *testing.T) {
	t.Run("Should forward warnings to the side channel", func(t *testing.T) {
		var got []Warning
		env := &Env{OnWarn: func(w Warning) { got = append(got, w) }}
		env.Warnf(node.Root("src").Key("tasks"), "skipped %s", "subtree")
		require.Len(t, got, 1)
		assert.Equal(t, "src.tasks", got[0].Path.String())
		assert.Equal(t, "skipped subtree", got[0].Message)
	})

	t.Run("Should drop warnings and enqueues without side channels", func(t *testing.T) {
		env := &Env{}
		env.Warnf(node.Root("src"), "dropped")
		env.Enqueue("a.yml")
		// no panic means the nil-safe path works
	})
}

func TestRegistry(t *testing.T) {
	newStubFactory := func(id string) Factory {
		return func(_ map[string]any) (Link, error) {
			return appendLink(id), nil
		}
	}

	t.Run("Should build a chain from specs in order", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("a", newStubFactory("a")))
		require.NoError(t, r.Register("b", newStubFactory("b")))
		c, err := r.Build([]Spec{{ID: "a"}, {ID: "b"}})
		require.NoError(t, err)
		out, err := c.Apply(context.Background(), &Env{}, "in")
		require.NoError(t, err)
		assert.Equal(t, "in-a-b", out)
	})

	t.Run("Should skip disabled links", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("a", newStubFactory("a")))
		require.NoError(t, r.Register("b", newStubFactory("b")))
		c, err := r.Build([]Spec{{ID: "a", Disabled: true}, {ID: "b"}})
		require.NoError(t, err)
		out, err := c.Apply(context.Background(), &Env{}, "in")
		require.NoError(t, err)
		assert.Equal(t, "in-b", out)
	})

	t.Run("Should report unknown link identifiers", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Build([]Spec{{ID: "nope"}})
		require.Error(t, err)
		var unknown *UnknownLinkError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "nope", unknown.ID)
	})

	t.Run("Should reject duplicate non-repeatable links", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("a", newStubFactory("a")))
		_, err := r.Build([]Spec{{ID: "a"}, {ID: "a"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate link")
	})

	t.Run("Should allow repeatable links more than once", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.RegisterRepeatable("a", newStubFactory("a")))
		c, err := r.Build([]Spec{{ID: "a"}, {ID: "a"}})
		require.NoError(t, err)
		out, err := c.Apply(context.Background(), &Env{}, "in")
		require.NoError(t, err)
		assert.Equal(t, "in-a-a", out)
	})

	t.Run("Should reject double registration of the same identifier", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("a", newStubFactory("a")))
		assert.Error(t, r.Register("a", newStubFactory("a")))
	})

	t.Run("Should reject empty identifiers and nil factories", func(t *testing.T) {
		r := NewRegistry()
		assert.Error(t, r.Register("", newStubFactory("x")))
		assert.Error(t, r.Register("x", nil))
	})
}
