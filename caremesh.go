// Package caremesh provides a high-level façade over the analysis engine.
// Most applications interact with this package by:
//  1. Creating a CareMesh via New with a text model (optionally overriding
//     the vision model, ledger, similarity index and logger)
//  2. Calling Analyze once per patient request
//  3. Inspecting or discarding sessions by id
//
// All defaults are safe for local development and testing: an in-memory
// ledger, an in-memory index when the text model can embed, and a NoOp logger.
package caremesh

import (
	"context"

	"github.com/hupe1980/caremesh/agent"
	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/engine"
	"github.com/hupe1980/caremesh/logging"
	"github.com/hupe1980/caremesh/model"
	"github.com/hupe1980/caremesh/session"
)

// Options configures the CareMesh instance.
type Options struct {
	// EngineConfig holds timeouts, top-k and temperature.
	EngineConfig engine.Config

	// VisionModel describes images. Defaults to the text model.
	VisionModel model.Model

	// Stores (the ledger defaults to an in-memory implementation)
	SessionStore core.SessionStore
	Index        core.Index

	// SafetyRules replaces the default denylist when non-nil.
	SafetyRules []agent.Rule

	// Callbacks are optional step lifecycle hooks.
	Callbacks *engine.CallbackManager

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// CareMesh is the high-level façade aggregating the engine and its stores.
type CareMesh struct {
	opts   Options
	engine *engine.Engine
}

// New creates a CareMesh generating text with m.
func New(m model.Model, optFns ...func(o *Options)) *CareMesh {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	e := engine.New(m, func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.VisionModel = opts.VisionModel
		o.SessionStore = opts.SessionStore
		o.Index = opts.Index
		o.Rules = opts.SafetyRules
		o.Callbacks = opts.Callbacks
		o.Logger = opts.Logger
	})

	return &CareMesh{opts: opts, engine: e}
}

// Analyze runs one request through the pipeline.
func (c *CareMesh) Analyze(ctx context.Context, req core.Request) (*core.Result, error) {
	return c.engine.Analyze(ctx, req)
}

// Session returns a copy of the ledger record for id.
func (c *CareMesh) Session(id string) (*core.Session, error) {
	return c.engine.Session(id)
}

// Discard removes a session and its indexed reports.
func (c *CareMesh) Discard(ctx context.Context, id string) error {
	return c.engine.Discard(ctx, id)
}

// Engine exposes the underlying engine.
func (c *CareMesh) Engine() *engine.Engine { return c.engine }
