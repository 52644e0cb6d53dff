package testutil

import (
	"context"
	"strings"

	"github.com/hupe1980/caremesh/model"
)

var _ model.Embedder = (*KeywordEmbedder)(nil)

// KeywordEmbedder is a deterministic embedder for tests. Dimension i of a
// vector counts the occurrences of Vocabulary[i] in the lower-cased text, so
// texts sharing vocabulary words score as similar.
type KeywordEmbedder struct {
	Vocabulary []string
	Err        error
	Calls      int
}

// NewKeywordEmbedder returns an embedder over the given vocabulary.
func NewKeywordEmbedder(vocabulary ...string) *KeywordEmbedder {
	return &KeywordEmbedder{Vocabulary: vocabulary}
}

// Embed implements model.Embedder.
func (e *KeywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.Calls++
	if e.Err != nil {
		return nil, e.Err
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		v := make([]float32, len(e.Vocabulary))
		for j, word := range e.Vocabulary {
			v[j] = float32(strings.Count(lower, strings.ToLower(word)))
		}
		vectors[i] = v
	}
	return vectors, nil
}
