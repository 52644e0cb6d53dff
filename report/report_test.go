package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/caremesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labs.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Glucose 130 mg/dL\n"), 0o600))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, core.ReportDocument{ID: "labs", Text: "Glucose 130 mg/dL", Source: "labs.txt"}, doc)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.docx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestLoad_InvalidPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.pdf")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a pdf"), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.md")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("alpha"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("beta"), 0o600))

	docs, err := LoadAll([]string{a, b})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a.md", docs[0].Source)
	assert.Equal(t, "beta", docs[1].Text)

	_, err = LoadAll([]string{a, filepath.Join(dir, "nope.txt")})
	assert.ErrorIs(t, err, core.ErrNotFound)
}
