package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/caremesh/core"
)

// Request captures the normalized model input produced by agents.
type Request struct {
	Instructions string         `json:"instructions"`          // System-level instructions
	Contents     []core.Content `json:"contents"`              // Ordered conversation contents
	Temperature  *float64       `json:"temperature,omitempty"` // Provider default when nil
	Stream       bool           `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"`
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name           string `json:"name"`
	Provider       string `json:"provider"` // "openai", "anthropic", "gemini", "mock"
	SupportsVision bool   `json:"supports_vision"`
}

// Model is the minimal interface required by agents to drive generation.
// Implementations must report transport and non-2xx failures on the error
// channel; both channels are closed when generation ends.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Embedder turns texts into fixed-length vectors, one per input text and in
// input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrEmptyResponse is returned when a model completes without a final response.
var ErrEmptyResponse = errors.New("model returned no final response")

// Temperature returns a pointer to t for use in Request.Temperature.
func Temperature(t float64) *float64 { return &t }

// GenerateText runs req against m and returns the trimmed text of the final
// (non-partial) response.
func GenerateText(ctx context.Context, m Model, req Request) (string, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final *Response
		err   error
	)
	for respCh != nil || errCh != nil {
		select {
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				final = &r
			}
		case e, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if e != nil && err == nil {
				err = e
			}
		}
	}
	if err != nil {
		return "", err
	}
	if final == nil {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(final.Content.Text()), nil
}

// MockModel is a lightweight in‑memory Model useful for tests & examples.
// Responses are looked up by the text of the last content; ResponseFunc, when
// set, takes precedence. Every request is recorded.
type MockModel struct {
	info         Info
	responses    map[string]string
	ResponseFunc func(req Request) (string, error)

	mu       sync.Mutex
	requests []Request
}

// NewMockModel constructs a MockModel with vision support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:           name,
			Provider:       provider,
			SupportsVision: true,
		},
		responses: make(map[string]string),
	}
}

// SetVision toggles the vision support reported by Info.
func (m *MockModel) SetVision(enabled bool) { m.info.SupportsVision = enabled }

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Requests returns a copy of all recorded requests.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns the number of Generate calls.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Generate implements Model; emits optional streaming char chunks then final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)
		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}
		inputText := req.Contents[len(req.Contents)-1].Text()

		var full string
		if m.ResponseFunc != nil {
			out, err := m.ResponseFunc(req)
			if err != nil {
				errCh <- err
				return
			}
			full = out
		} else {
			full = m.responses[inputText]
			if full == "" {
				full = fmt.Sprintf("Mock response to: %s", inputText)
			}
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: string(r)}}},
				}:
				}
			}
		}
		respCh <- Response{
			Content:      core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: full}}},
			FinishReason: "stop",
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
