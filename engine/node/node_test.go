package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("Should preserve mapping key order from the source document", func(t *testing.T) {
		n, err := Decode([]byte("zebra: 1\nalpha: 2\nmiddle: 3\n"))
		require.NoError(t, err)
		require.Equal(t, KindMap, n.Kind())
		assert.Equal(t, []string{"zebra", "alpha", "middle"}, n.Keys())
	})

	t.Run("Should decode a list of mixed scalars", func(t *testing.T) {
		n, err := Decode([]byte("- hello\n- 42\n- true\n"))
		require.NoError(t, err)
		require.Equal(t, KindList, n.Kind())
		require.Equal(t, 3, n.Len())
		assert.Equal(t, "hello", n.Items()[0].Value())
		assert.Equal(t, 42, n.Items()[1].Value())
		assert.Equal(t, true, n.Items()[2].Value())
	})

	t.Run("Should decode JSON since YAML subsumes it", func(t *testing.T) {
		n, err := Decode([]byte(`{"tasks": ["a", "b"]}`))
		require.NoError(t, err)
		tasks, ok := n.Get("tasks")
		require.True(t, ok)
		require.Equal(t, KindList, tasks.Kind())
		assert.Equal(t, "a", tasks.Items()[0].Value())
	})

	t.Run("Should decode an empty document as a nil scalar", func(t *testing.T) {
		n, err := Decode([]byte(""))
		require.NoError(t, err)
		assert.Equal(t, KindScalar, n.Kind())
		assert.Nil(t, n.Value())
	})

	t.Run("Should resolve YAML anchors and aliases", func(t *testing.T) {
		n, err := Decode([]byte("base: &b at_home\nother: *b\n"))
		require.NoError(t, err)
		other, ok := n.Get("other")
		require.True(t, ok)
		assert.Equal(t, "at_home", other.Value())
	})

	t.Run("Should error on invalid documents", func(t *testing.T) {
		_, err := Decode([]byte("key: [unclosed"))
		assert.Error(t, err)
	})
}

func TestFromAny(t *testing.T) {
	t.Run("Should sort map keys for a deterministic result", func(t *testing.T) {
		n, err := FromAny(map[string]any{"zebra": 1, "alpha": 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "zebra"}, n.Keys())
	})

	t.Run("Should pass an existing node through", func(t *testing.T) {
		orig := Scalar("x")
		n, err := FromAny(orig)
		require.NoError(t, err)
		assert.Same(t, orig, n)
	})

	t.Run("Should reject unsupported value types", func(t *testing.T) {
		_, err := FromAny(struct{}{})
		assert.Error(t, err)
	})
}

func TestNodeAccessors(t *testing.T) {
	t.Run("Should report lengths per kind", func(t *testing.T) {
		assert.Equal(t, 0, Scalar("x").Len())
		assert.Equal(t, 2, List(Scalar(1), Scalar(2)).Len())
		assert.Equal(t, 1, Map(Entry{Key: "a", Value: Scalar(1)}).Len())
	})

	t.Run("Should miss absent keys", func(t *testing.T) {
		n := Map(Entry{Key: "a", Value: Scalar(1)})
		_, ok := n.Get("b")
		assert.False(t, ok)
	})

	t.Run("Should render non-string scalars through StringValue", func(t *testing.T) {
		assert.Equal(t, "42", Scalar(42).StringValue())
		assert.Equal(t, "at_home", Scalar("at_home").StringValue())
		assert.Equal(t, "", Scalar(nil).StringValue())
	})
}

func TestEncode(t *testing.T) {
	t.Run("Should keep mapping order through an encode/decode round trip", func(t *testing.T) {
		src := []byte("vars:\n  location: at_home\ntasks:\n  - clean_bathroom\n")
		n, err := Decode(src)
		require.NoError(t, err)
		out, err := n.Encode()
		require.NoError(t, err)
		again, err := Decode(out)
		require.NoError(t, err)
		assert.Equal(t, n.Keys(), again.Keys())
		assert.Equal(t, n.Interface(), again.Interface())
	})
}

func TestPath(t *testing.T) {
	t.Run("Should render keys and indices", func(t *testing.T) {
		p := Root("config").Key("tasks").Index(0).Key("name")
		assert.Equal(t, "config.tasks[0].name", p.String())
	})

	t.Run("Should not alias sibling paths", func(t *testing.T) {
		base := Root("config").Key("tasks")
		a := base.Index(0)
		b := base.Index(1)
		assert.Equal(t, "config.tasks[0]", a.String())
		assert.Equal(t, "config.tasks[1]", b.String())
	})

	t.Run("Should render the empty path as a placeholder", func(t *testing.T) {
		assert.Equal(t, "<root>", Path{}.String())
	})
}
