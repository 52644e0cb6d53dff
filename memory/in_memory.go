package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/model"
)

var _ core.Index = (*InMemoryIndex)(nil)

// storedChunk is the internal representation persisted by InMemoryIndex.
type storedChunk struct {
	ID     string
	Text   string
	Source string
	Vector []float32
}

// InMemoryIndex is a process-local vector index. Documents are embedded on
// Add and ranked by cosine similarity on Query.
//
// Concurrency: protected by RWMutex. Embedding calls happen outside the lock.
type InMemoryIndex struct {
	embedder model.Embedder

	mu         sync.RWMutex
	namespaces map[string][]storedChunk
}

// NewInMemoryIndex creates an empty index backed by embedder.
func NewInMemoryIndex(embedder model.Embedder) *InMemoryIndex {
	return &InMemoryIndex{
		embedder:   embedder,
		namespaces: make(map[string][]storedChunk),
	}
}

// Add embeds docs and stores them under namespace. A document whose ID is
// already present in the namespace replaces the previous entry.
func (idx *InMemoryIndex) Add(ctx context.Context, namespace string, docs []core.ReportDocument) error {
	if len(docs) == 0 {
		return nil
	}
	vectors, err := EmbedDocuments(ctx, idx.embedder, docs)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	existing := idx.namespaces[namespace]
	for i, d := range docs {
		c := storedChunk{ID: d.ID, Text: d.Text, Source: d.Source, Vector: vectors[i]}
		replaced := false
		for j := range existing {
			if existing[j].ID == d.ID {
				existing[j] = c
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, c)
		}
	}
	idx.namespaces[namespace] = existing
	return nil
}

// Query returns at most topK chunks from namespace ordered by decreasing
// similarity. An unknown namespace yields no chunks.
func (idx *InMemoryIndex) Query(ctx context.Context, namespace string, text string, topK int) ([]core.Chunk, error) {
	if topK <= 0 {
		return []core.Chunk{}, nil
	}

	idx.mu.RLock()
	stored := append([]storedChunk(nil), idx.namespaces[namespace]...)
	idx.mu.RUnlock()

	if len(stored) == 0 {
		return []core.Chunk{}, nil
	}

	vectors, err := idx.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors: %w", len(vectors), core.ErrCollaborator)
	}

	candidates := make([]Candidate, len(stored))
	for i, s := range stored {
		candidates[i] = Candidate{Text: s.Text, Source: s.Source, Vector: s.Vector}
	}
	return Rank(vectors[0], candidates, topK), nil
}

// Drop removes every document stored under namespace.
func (idx *InMemoryIndex) Drop(_ context.Context, namespace string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.namespaces, namespace)
	return nil
}

// Len reports the number of documents stored under namespace.
func (idx *InMemoryIndex) Len(namespace string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.namespaces[namespace])
}

// Candidate is a stored vector considered by Rank.
type Candidate struct {
	Text   string
	Source string
	Vector []float32
}

// Rank scores candidates against query by cosine similarity and returns the
// topK best as chunks. Ties keep insertion order.
func Rank(query []float32, candidates []Candidate, topK int) []core.Chunk {
	chunks := make([]core.Chunk, len(candidates))
	for i, c := range candidates {
		chunks[i] = core.Chunk{Text: c.Text, Source: c.Source, Score: Cosine(query, c.Vector)}
	}
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Score > chunks[j].Score })
	if len(chunks) > topK {
		chunks = chunks[:topK]
	}
	return chunks
}

// Cosine returns the cosine similarity of a and b, or 0 when either vector is
// zero or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// EmbedDocuments embeds the text of every document in order.
func EmbedDocuments(ctx context.Context, embedder model.Embedder, docs []core.ReportDocument) ([][]float32, error) {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embed documents: got %d vectors for %d documents: %w", len(vectors), len(docs), core.ErrCollaborator)
	}
	return vectors, nil
}

