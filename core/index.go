package core

import "context"

// Chunk is one retrieved piece of report text with its source label.
type Chunk struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// Index is the similarity index collaborator. Documents are scoped by
// namespace (the session identifier) so that retrieval for one session never
// sees another session's reports. Query returns at most topK chunks ordered
// by decreasing similarity and may return none.
type Index interface {
	Add(ctx context.Context, namespace string, docs []ReportDocument) error
	Query(ctx context.Context, namespace string, text string, topK int) ([]Chunk, error)
	Drop(ctx context.Context, namespace string) error
}
