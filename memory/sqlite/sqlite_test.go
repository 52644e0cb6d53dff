package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T, path string) *Index {
	t.Helper()
	idx, err := Open(path, testutil.NewKeywordEmbedder("glucose", "cholesterol", "fracture"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndex_AddQuery(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, "")

	require.NoError(t, idx.Add(ctx, "s1", []core.ReportDocument{
		{ID: "a", Text: "glucose elevated", Source: "labs.pdf"},
		{ID: "b", Text: "cholesterol normal", Source: "lipids.pdf"},
	}))

	chunks, err := idx.Query(ctx, "s1", "glucose?", 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "labs.pdf", chunks[0].Source)
	assert.Equal(t, "glucose elevated", chunks[0].Text)
}

func TestIndex_UpsertAndNamespaces(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, "")

	require.NoError(t, idx.Add(ctx, "s1", []core.ReportDocument{{ID: "a", Text: "glucose", Source: "old.pdf"}}))
	require.NoError(t, idx.Add(ctx, "s1", []core.ReportDocument{{ID: "a", Text: "glucose", Source: "new.pdf"}}))
	require.NoError(t, idx.Add(ctx, "s2", []core.ReportDocument{{ID: "a", Text: "fracture", Source: "x.pdf"}}))

	n, err := idx.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	chunks, err := idx.Query(ctx, "s1", "glucose", 3)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "new.pdf", chunks[0].Source)
}

func TestIndex_Drop(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, "")

	require.NoError(t, idx.Add(ctx, "s1", []core.ReportDocument{{ID: "a", Text: "glucose", Source: "r.pdf"}}))
	require.NoError(t, idx.Drop(ctx, "s1"))

	chunks, err := idx.Query(ctx, "s1", "glucose", 3)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestIndex_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index", "caremesh.db")

	idx, err := Open(path, testutil.NewKeywordEmbedder("glucose"))
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, "s1", []core.ReportDocument{{ID: "a", Text: "glucose", Source: "r.pdf"}}))
	require.NoError(t, idx.Close())

	reopened := openTestIndex(t, path)
	n, err := reopened.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
