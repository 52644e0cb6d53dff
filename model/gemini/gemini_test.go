package gemini

import (
	"testing"

	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertContents(t *testing.T) {
	got := convertContents([]core.Content{
		{Role: "system", Parts: []core.Part{core.TextPart{Text: "rules"}}},
		core.NewUserContent("describe", core.ImagePart{Data: []byte("img"), MIMEType: "image/png"}),
		{Role: "assistant", Parts: []core.Part{core.TextPart{Text: "ok"}}},
		{Role: "user"},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "user", got[0].Role)
	require.Len(t, got[0].Parts, 2)
	assert.Equal(t, "describe", got[0].Parts[0].Text)
	require.NotNil(t, got[0].Parts[1].InlineData)
	assert.Equal(t, "image/png", got[0].Parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte("img"), got[0].Parts[1].InlineData.Data)
	assert.Equal(t, "model", got[1].Role)
}

func TestBuildConfig(t *testing.T) {
	m := NewModelFromClient(nil)

	t.Run("defaults", func(t *testing.T) {
		cfg := m.buildConfig(model.Request{})
		require.NotNil(t, cfg.Temperature)
		assert.InDelta(t, 0.2, *cfg.Temperature, 1e-6)
		assert.Nil(t, cfg.SystemInstruction)
	})

	t.Run("instructions and override", func(t *testing.T) {
		cfg := m.buildConfig(model.Request{
			Instructions: "be careful",
			Contents:     []core.Content{{Role: "system", Parts: []core.Part{core.TextPart{Text: "more"}}}},
			Temperature:  model.Temperature(0.7),
		})
		assert.InDelta(t, 0.7, *cfg.Temperature, 1e-6)
		require.NotNil(t, cfg.SystemInstruction)
		assert.Equal(t, "be careful\n\nmore", cfg.SystemInstruction.Parts[0].Text)
	})
}

func TestInfo(t *testing.T) {
	m := NewModelFromClient(nil, func(o *Options) { o.Model = "gemini-x" })
	assert.Equal(t, model.Info{Name: "gemini-x", Provider: "gemini", SupportsVision: true}, m.Info())
}
