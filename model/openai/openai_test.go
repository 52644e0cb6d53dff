package openai

import (
	"encoding/base64"
	"testing"

	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages_InstructionsFirst(t *testing.T) {
	msgs := buildMessages(model.Request{
		Instructions: "be careful",
		Contents:     []core.Content{core.NewUserContent("hello")},
	})
	require.Len(t, msgs, 2)
	require.NotNil(t, msgs[0].OfSystem)
	require.NotNil(t, msgs[1].OfUser)
}

func TestBuildMessages_NoInstructions(t *testing.T) {
	msgs := buildMessages(model.Request{Contents: []core.Content{core.NewUserContent("hello")}})
	require.Len(t, msgs, 1)
	assert.NotNil(t, msgs[0].OfUser)
}

func TestUserMessage_WithImageUsesParts(t *testing.T) {
	c := core.NewUserContent("describe", core.ImagePart{Data: []byte("png"), MIMEType: "image/png"})
	msg := userMessage(c)
	require.NotNil(t, msg.OfUser)
	assert.Len(t, msg.OfUser.Content.OfArrayOfContentParts, 2)
}

func TestDataURL(t *testing.T) {
	got := dataURL(core.ImagePart{Data: []byte("abc"), MIMEType: "image/jpeg"})
	assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString([]byte("abc")), got)

	got = dataURL(core.ImagePart{Data: []byte("abc")})
	assert.Contains(t, got, "application/octet-stream")
}

func TestBuildParams_TemperatureOverride(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.Model = "llama3"
		o.BaseURL = "http://localhost:11434/v1"
		o.APIKey = "ollama"
	})
	params := m.buildParams(model.Request{Temperature: model.Temperature(0.9)}, nil)
	assert.Equal(t, "llama3", params.Model)
	assert.InDelta(t, 0.9, params.Temperature.Value, 1e-9)
	assert.False(t, params.MaxCompletionTokens.Valid())

	params = m.buildParams(model.Request{}, nil)
	assert.InDelta(t, 0.2, params.Temperature.Value, 1e-9)
}

func TestInfo(t *testing.T) {
	m := NewModel(func(o *Options) { o.Model = "llava"; o.APIKey = "x" })
	assert.Equal(t, model.Info{Name: "llava", Provider: "openai", SupportsVision: true}, m.Info())
}
