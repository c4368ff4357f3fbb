package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("Should write structured output with fields", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: InfoLevel, Output: &buf})
		log.Info("processing source", "ref", "tasks.yml")
		out := buf.String()
		assert.Contains(t, out, "processing source")
		assert.Contains(t, out, "tasks.yml")
	})

	t.Run("Should suppress levels below the configured one", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: WarnLevel, Output: &buf})
		log.Info("hidden")
		log.Warn("visible")
		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "visible")
	})

	t.Run("Should emit JSON when configured", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: InfoLevel, Output: &buf, JSON: true})
		log.Info("hello")
		assert.True(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "{"))
	})

	t.Run("Should carry With fields into every message", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: InfoLevel, Output: &buf}).With("source", "a.yml")
		log.Info("first")
		assert.Contains(t, buf.String(), "a.yml")
	})
}

func TestContext(t *testing.T) {
	t.Run("Should round-trip a logger through the context", func(t *testing.T) {
		log := Nop()
		ctx := ContextWithLogger(context.Background(), log)
		require.Same(t, log, FromContext(ctx))
	})

	t.Run("Should fall back to a default logger", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})
}
