package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/caremesh"
	"github.com/hupe1980/caremesh/config"
	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/logging"
	"github.com/hupe1980/caremesh/memory"
	"github.com/hupe1980/caremesh/memory/sqlite"
	"github.com/hupe1980/caremesh/model"
	"github.com/hupe1980/caremesh/model/anthropic"
	"github.com/hupe1980/caremesh/model/gemini"
	"github.com/hupe1980/caremesh/model/openai"
)

// app holds the wired pipeline and the resources to release on exit.
type app struct {
	mesh    *caremesh.CareMesh
	closers []io.Closer
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// models groups the collaborators built from the provider settings.
type models struct {
	text     model.Model
	vision   model.Model
	embedder model.Embedder
}

func wireApp(ctx context.Context, c config.Config, log logging.Logger) (*app, error) {
	ms, err := buildModels(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("wire models: %w", err)
	}

	rules, err := c.SafetyRules()
	if err != nil {
		return nil, err
	}

	a := &app{}
	index, err := buildIndex(c, ms.embedder, a)
	if err != nil {
		return nil, fmt.Errorf("wire index: %w", err)
	}

	a.mesh = caremesh.New(ms.text, func(o *caremesh.Options) {
		o.EngineConfig = c.EngineConfig()
		o.VisionModel = ms.vision
		o.Index = index
		o.SafetyRules = rules
		o.Logger = log
	})
	return a, nil
}

func buildModels(ctx context.Context, c config.Config) (models, error) {
	p := c.Provider
	var ms models

	switch p.Name {
	case config.ProviderOpenAI:
		ms.text = newOpenAI(p, p.TextModel)
		ms.vision = newOpenAI(p, p.VisionModel)
	case config.ProviderAnthropic:
		ms.text = newAnthropic(p, p.TextModel)
		ms.vision = newAnthropic(p, p.VisionModel)
	case config.ProviderGemini:
		text, err := newGemini(ctx, p, p.TextModel)
		if err != nil {
			return models{}, err
		}
		vision, err := newGemini(ctx, p, p.VisionModel)
		if err != nil {
			return models{}, err
		}
		ms.text, ms.vision = text, vision
	default:
		return models{}, fmt.Errorf("%w: unknown provider %q", core.ErrInput, p.Name)
	}

	switch c.EmbeddingProvider {
	case config.ProviderOpenAI:
		ms.embedder = newOpenAI(p, p.TextModel)
	case config.ProviderGemini:
		emb, err := newGemini(ctx, p, p.TextModel)
		if err != nil {
			return models{}, err
		}
		ms.embedder = emb
	default:
		return models{}, fmt.Errorf("%w: provider %q cannot embed", core.ErrInput, c.EmbeddingProvider)
	}
	return ms, nil
}

func newOpenAI(p config.ProviderConfig, name string) *openai.Model {
	return openai.NewModel(func(o *openai.Options) {
		setIf(&o.Model, name)
		setIf(&o.EmbeddingModel, p.EmbeddingModel)
		o.Temperature = p.Temperature
		o.BaseURL = p.BaseURL
		o.APIKey = p.APIKey
	})
}

func newAnthropic(p config.ProviderConfig, name string) *anthropic.Model {
	return anthropic.NewModel(func(o *anthropic.Options) {
		if name != "" {
			o.Model = anthropicsdk.Model(name)
		}
		o.Temperature = p.Temperature
		o.BaseURL = p.BaseURL
		o.APIKey = p.APIKey
	})
}

func newGemini(ctx context.Context, p config.ProviderConfig, name string) (*gemini.Model, error) {
	return gemini.NewModel(ctx, p.APIKey, func(o *gemini.Options) {
		setIf(&o.Model, name)
		setIf(&o.EmbeddingModel, p.EmbeddingModel)
		o.Temperature = p.Temperature
	})
}

// setIf keeps the adapter default when v is empty.
func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func buildIndex(c config.Config, emb model.Embedder, a *app) (core.Index, error) {
	switch c.Index.Backend {
	case config.IndexMemory:
		return memory.NewInMemoryIndex(emb), nil
	case config.IndexSQLite:
		idx, err := sqlite.Open(c.Index.Path, emb)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, idx)
		return idx, nil
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", core.ErrInput, c.Index.Backend)
	}
}
