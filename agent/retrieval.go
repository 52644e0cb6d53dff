package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/internal/util"
	"github.com/hupe1980/caremesh/logging"
	"github.com/hupe1980/caremesh/model"
)

// InsufficientInformation is the answer returned when the index yields no
// chunk for a question.
const InsufficientInformation = "The provided documents do not contain sufficient information to answer this question safely."

// RetrievalOptions configures a RetrievalAgent.
type RetrievalOptions struct {
	TopK         int
	Timeout      time.Duration // Generation timeout
	IndexTimeout time.Duration // Timeout for index calls (embedding included)
	Temperature  float64
	Prompt       string
	Logger       logging.Logger
}

// RetrievalOutput is the recorded output of the retrieval step.
type RetrievalOutput struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// RetrievalAgent answers questions strictly from indexed report text.
type RetrievalAgent struct {
	BaseAgent
	gen   generation
	index core.Index
	opts  RetrievalOptions
}

// NewRetrievalAgent creates a RetrievalAgent over index, generating answers with m.
func NewRetrievalAgent(m model.Model, index core.Index, optFns ...func(o *RetrievalOptions)) *RetrievalAgent {
	opts := RetrievalOptions{
		TopK:         3,
		Timeout:      120 * time.Second,
		IndexTimeout: 60 * time.Second,
		Temperature:  0.2,
		Prompt:       RetrievalPrompt,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = orNoOp(opts.Logger)

	a := &RetrievalAgent{
		BaseAgent: NewBaseAgent(core.StepRetrieval),
		gen:       generation{model: m, timeout: opts.Timeout, temperature: opts.Temperature, logger: opts.Logger},
		index:     index,
		opts:      opts,
	}
	a.SetDescription("Answers questions from uploaded reports only")
	return a
}

// Ingest hands docs to the index under namespace.
func (a *RetrievalAgent) Ingest(ctx context.Context, namespace string, docs []core.ReportDocument) error {
	ctx, cancel := a.indexContext(ctx)
	defer cancel()

	if err := a.index.Add(ctx, namespace, docs); err != nil {
		return fmt.Errorf("%s: index reports: %w: %w", a.Step(), core.ErrCollaborator, err)
	}
	return nil
}

// Answer queries the index for question. Without matching chunks it returns
// InsufficientInformation and calls no model. Otherwise the model answers from
// the labeled chunks and the summary is appended to store.
func (a *RetrievalAgent) Answer(ctx context.Context, store *core.ContextStore, namespace, question string) (RetrievalOutput, error) {
	chunks, err := a.query(ctx, namespace, question)
	if err != nil {
		return RetrievalOutput{}, err
	}

	if len(chunks) == 0 {
		a.opts.Logger.Debug("No report chunks matched", "namespace", namespace)
		return RetrievalOutput{Answer: InsufficientInformation, Sources: []string{}}, nil
	}

	prompt, err := util.RenderTemplate(a.opts.Prompt, map[string]string{
		"Documents": FormatChunks(chunks),
		"Question":  question,
	})
	if err != nil {
		return RetrievalOutput{}, fmt.Errorf("render retrieval prompt: %w", err)
	}

	answer, err := a.gen.generate(ctx, a.Step(), prompt)
	if err != nil {
		return RetrievalOutput{}, err
	}

	sources := UniqueSources(chunks)
	store.AddReportSummary(core.ReportSummary{Question: question, Answer: answer, Sources: sources})

	return RetrievalOutput{Answer: answer, Sources: sources}, nil
}

func (a *RetrievalAgent) query(ctx context.Context, namespace, question string) ([]core.Chunk, error) {
	ctx, cancel := a.indexContext(ctx)
	defer cancel()

	chunks, err := a.index.Query(ctx, namespace, question, a.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("%s: query index: %w: %w", a.Step(), core.ErrCollaborator, err)
	}
	return chunks, nil
}

func (a *RetrievalAgent) indexContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.opts.IndexTimeout > 0 {
		return context.WithTimeout(ctx, a.opts.IndexTimeout)
	}
	return context.WithCancel(ctx)
}

// FormatChunks labels every chunk with its source and joins them with a
// blank line.
func FormatChunks(chunks []core.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[Source: %s]\n%s", c.Source, c.Text)
	}
	return strings.Join(parts, "\n\n")
}

// UniqueSources returns the distinct chunk sources in first-seen order.
func UniqueSources(chunks []core.Chunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	sources := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if _, ok := seen[c.Source]; ok {
			continue
		}
		seen[c.Source] = struct{}{}
		sources = append(sources, c.Source)
	}
	return sources
}
