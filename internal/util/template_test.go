package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	t.Run("no markers", func(t *testing.T) {
		out, err := RenderTemplate("plain <b>text</b>", nil)
		require.NoError(t, err)
		assert.Equal(t, "plain <b>text</b>", out)
	})

	t.Run("fields are not escaped", func(t *testing.T) {
		out, err := RenderTemplate("Q: {{.Question}}", struct{ Question string }{"is 5 < 7 & 'ok'?"})
		require.NoError(t, err)
		assert.Equal(t, "Q: is 5 < 7 & 'ok'?", out)
	})

	t.Run("helpers", func(t *testing.T) {
		out, err := RenderTemplate(`{{upper .A}} {{default "n/a" .B}} {{join ", " .C}}`, map[string]any{
			"A": "png", "B": "", "C": []string{"x", "y"},
		})
		require.NoError(t, err)
		assert.Equal(t, "PNG n/a x, y", out)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := RenderTemplate("{{.Nope}}", map[string]any{})
		assert.Error(t, err)
	})

	t.Run("parse error", func(t *testing.T) {
		_, err := RenderTemplate("{{", nil)
		assert.Error(t, err)
	})
}
