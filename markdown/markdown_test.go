package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTML(t *testing.T) {
	out, err := ToHTML("Rest helps.\n\n⚠️ **Important Medical Disclaimer**:\nPlease consult a professional.")
	require.NoError(t, err)
	assert.Contains(t, out, "<p>Rest helps.</p>")
	assert.Contains(t, out, "<strong>Important Medical Disclaimer</strong>")
	assert.Contains(t, out, "Please consult a professional.")
}

func TestToHTML_List(t *testing.T) {
	out, err := ToHTML("- one\n- two")
	require.NoError(t, err)
	assert.Contains(t, out, "<li>one</li>")
	assert.Contains(t, out, "<li>two</li>")
}

func TestToHTML_DropsRawHTML(t *testing.T) {
	out, err := ToHTML("<script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestToTerminal(t *testing.T) {
	out := ToTerminal("# Guidance\n\nDrink **water**.\n\n1. Rest\n2. Consult a doctor", 60)
	assert.Contains(t, out, "Guidance")
	assert.Contains(t, out, "water")
	assert.Contains(t, out, "1. Rest")
	assert.Contains(t, out, "2. Consult a doctor")
	assert.NotContains(t, out, "**")
	assert.NotContains(t, out, "# ")
}
