// Package gemini implements model.Model and model.Embedder for the Google
// Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/model"
	"google.golang.org/genai"
)

// Interface compliance checks.
var (
	_ model.Model    = (*Model)(nil)
	_ model.Embedder = (*Model)(nil)
)

const (
	defaultModel          = "gemini-2.5-flash"
	defaultEmbeddingModel = "text-embedding-004"
)

// Options configures a gemini Model.
type Options struct {
	Model           string
	EmbeddingModel  string
	Temperature     float64
	MaxOutputTokens int32
}

// Model wraps a genai client.
type Model struct {
	client *genai.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:          defaultModel,
		EmbeddingModel: defaultEmbeddingModel,
		Temperature:    0.2,
	}
}

// NewModel creates a Gemini model with the given API key.
func NewModel(ctx context.Context, apiKey string, optFns ...func(o *Options)) (*Model, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return NewModelFromClient(gc, optFns...), nil
}

// NewModelFromClient wraps an existing genai client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model. The Gemini adapter always answers with a
// single final response.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, convertContents(req.Contents), m.buildConfig(req))
		if err != nil {
			errCh <- fmt.Errorf("gemini: %w", err)
			return
		}

		text := resp.Text()
		r := model.Response{
			ID:           resp.ResponseID,
			Content:      core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: text}}},
			FinishReason: "stop",
		}
		if u := resp.UsageMetadata; u != nil {
			r.Usage = &model.TokenUsage{
				PromptTokens:     int(u.PromptTokenCount),
				CompletionTokens: int(u.CandidatesTokenCount),
				TotalTokens:      int(u.TotalTokenCount),
			}
		}
		out <- r
	}()

	return out, errCh
}

// Embed implements model.Embedder.
func (m *Model) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = &genai.Content{Role: "user", Parts: []*genai.Part{{Text: t}}}
	}

	resp, err := m.client.Models.EmbedContent(ctx, m.opts.EmbeddingModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: embed: got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

func (m *Model) buildConfig(req model.Request) *genai.GenerateContentConfig {
	temp := float32(m.opts.Temperature)
	if req.Temperature != nil {
		temp = float32(*req.Temperature)
	}

	config := &genai.GenerateContentConfig{Temperature: &temp}
	if m.opts.MaxOutputTokens > 0 {
		config.MaxOutputTokens = m.opts.MaxOutputTokens
	}

	system := []string{}
	if req.Instructions != "" {
		system = append(system, req.Instructions)
	}
	for _, c := range req.Contents {
		if c.Role == "system" {
			system = append(system, c.Text())
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}},
		}
	}
	return config
}

// convertContents maps contents to genai contents. System contents go to the
// system instruction instead.
func convertContents(contents []core.Content) []*genai.Content {
	var result []*genai.Content
	for _, c := range contents {
		if c.Role == "system" {
			continue
		}
		role := "user"
		if c.Role == "assistant" {
			role = "model"
		}
		parts := convertParts(c.Parts)
		if len(parts) == 0 {
			continue
		}
		result = append(result, &genai.Content{Role: role, Parts: parts})
	}
	return result
}

func convertParts(parts []core.Part) []*genai.Part {
	var result []*genai.Part
	for _, p := range parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				result = append(result, &genai.Part{Text: part.Text})
			}
		case core.ImagePart:
			result = append(result, &genai.Part{
				InlineData: &genai.Blob{MIMEType: part.MIMEType, Data: part.Data},
			})
		}
	}
	return result
}

// Info returns model metadata.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:           m.opts.Model,
		Provider:       "gemini",
		SupportsVision: true,
	}
}
