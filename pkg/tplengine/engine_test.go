package tplengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasTemplate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"empty", "", false},
		{"plain string", "clean_bathroom", false},
		{"dotted expression", "{{ vars.location }}", true},
		{"trim markers", "{{- vars.location -}}", true},
		{"single brace", "{not a template}", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasTemplate(tt.in))
		})
	}
}

func TestRenderString(t *testing.T) {
	t.Run("Should return strings without markers unchanged", func(t *testing.T) {
		e := NewEngine()
		out, err := e.RenderString("plain", map[string]any{"vars": map[string]any{}})
		require.NoError(t, err)
		assert.Equal(t, "plain", out)
	})

	t.Run("Should resolve bare dotted paths against the context", func(t *testing.T) {
		e := NewEngine()
		ctx := map[string]any{"vars": map[string]any{"location": "at_home"}}
		out, err := e.RenderString("clean at {{ vars.location }}", ctx)
		require.NoError(t, err)
		assert.Equal(t, "clean at at_home", out)
	})

	t.Run("Should accept explicit field references as well", func(t *testing.T) {
		e := NewEngine()
		ctx := map[string]any{"vars": map[string]any{"location": "at_home"}}
		out, err := e.RenderString("{{ .vars.location }}", ctx)
		require.NoError(t, err)
		assert.Equal(t, "at_home", out)
	})

	t.Run("Should error on a missing key", func(t *testing.T) {
		e := NewEngine()
		ctx := map[string]any{"vars": map[string]any{}}
		_, err := e.RenderString("{{ vars.missing }}", ctx)
		assert.Error(t, err)
	})

	t.Run("Should leave paths with unknown heads untouched", func(t *testing.T) {
		e := NewEngine()
		ctx := map[string]any{"vars": map[string]any{}}
		// `unknown.head` is not a context key, so it is not rewritten and
		// text/template reports an undefined function or similar.
		_, err := e.RenderString("{{ unknown.head }}", ctx)
		assert.Error(t, err)
	})

	t.Run("Should support sprig functions in pipelines", func(t *testing.T) {
		e := NewEngine()
		ctx := map[string]any{"vars": map[string]any{"location": "at_home"}}
		out, err := e.RenderString("{{ vars.location | upper }}", ctx)
		require.NoError(t, err)
		assert.Equal(t, "AT_HOME", out)
	})

	t.Run("Should see global values with per-render keys winning", func(t *testing.T) {
		e := NewEngine()
		e.AddGlobalValue("env", map[string]any{"USER": "frank"})
		e.AddGlobalValue("vars", map[string]any{"location": "ignored"})
		ctx := map[string]any{"vars": map[string]any{"location": "at_home"}}
		out, err := e.RenderString("{{ env.USER }} {{ vars.location }}", ctx)
		require.NoError(t, err)
		assert.Equal(t, "frank at_home", out)
	})
}

func TestRenderLenient(t *testing.T) {
	t.Run("Should return the input verbatim together with the error", func(t *testing.T) {
		e := NewEngine()
		ctx := map[string]any{"vars": map[string]any{}}
		out, err := e.RenderLenient("{{ vars.missing }}", ctx)
		assert.Error(t, err)
		assert.Equal(t, "{{ vars.missing }}", out)
	})

	t.Run("Should behave like RenderString on success", func(t *testing.T) {
		e := NewEngine()
		ctx := map[string]any{"vars": map[string]any{"location": "at_work"}}
		out, err := e.RenderLenient("{{ vars.location }}", ctx)
		require.NoError(t, err)
		assert.Equal(t, "at_work", out)
	})
}

func TestEnvNamespace(t *testing.T) {
	t.Run("Should split KEY=VALUE pairs", func(t *testing.T) {
		env := EnvNamespace([]string{"USER=frank", "EMPTY=", "malformed"})
		assert.Equal(t, "frank", env["USER"])
		assert.Equal(t, "", env["EMPTY"])
		_, ok := env["malformed"]
		assert.False(t, ok)
	})
}
