package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/caremesh/agent"
	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/logging"
	"github.com/hupe1980/caremesh/memory"
	"github.com/hupe1980/caremesh/model"
	"github.com/hupe1980/caremesh/planner"
	"github.com/hupe1980/caremesh/session"
)

// Timeouts bounds every collaborator call. Zero disables the bound.
type Timeouts struct {
	Generate time.Duration `yaml:"generate" mapstructure:"generate"`
	Vision   time.Duration `yaml:"vision" mapstructure:"vision"`
	Embed    time.Duration `yaml:"embed" mapstructure:"embed"`
}

// Config defines tuning parameters of the pipeline.
type Config struct {
	// Timeouts for generation, vision description and index calls.
	Timeouts Timeouts

	// TopK is the number of chunks retrieved per question.
	TopK int

	// Temperature used for every generation request.
	Temperature float64
}

// DefaultConfig matches the behaviour of a local model server:
//   - Generate: 120s
//   - Vision: 180s
//   - Embed: 60s
//   - TopK: 3
//   - Temperature: 0.2
var DefaultConfig = Config{
	Timeouts: Timeouts{
		Generate: 120 * time.Second,
		Vision:   180 * time.Second,
		Embed:    60 * time.Second,
	},
	TopK:        3,
	Temperature: 0.2,
}

// Options configures an Engine instance using the functional options pattern.
//
// Example:
//
//	e := engine.New(textModel, func(o *engine.Options) {
//	    o.VisionModel = visionModel
//	    o.Index = sqliteIndex
//	    o.Logger = logger
//	})
type Options struct {
	// Config contains operational parameters. Defaults to DefaultConfig.
	Config Config

	// SessionStore is the session ledger. Defaults to session.NewInMemoryStore.
	SessionStore core.SessionStore

	// Index is the similarity index for uploaded reports. Defaults to an
	// in-memory index when the text model is also a model.Embedder.
	Index core.Index

	// VisionModel describes images. Defaults to the text model.
	VisionModel model.Model

	// Rules replaces the safety denylist. Defaults to agent.DefaultDenylist.
	Rules []agent.Rule

	// Callbacks are step lifecycle hooks. Optional.
	Callbacks *CallbackManager

	// Logger defaults to logging.NoOpLogger.
	Logger logging.Logger
}

// stepHandler executes one plan step and returns its raw output.
type stepHandler func(ctx context.Context, r *run) (any, error)

// run is the state of one Analyze call.
type run struct {
	sessionID string
	req       core.Request
	store     *core.ContextStore
}

// Engine is the orchestrator. It composes the planner, the step agents, the
// session ledger and the similarity index.
type Engine struct {
	sessions  core.SessionStore
	index     core.Index
	callbacks *CallbackManager
	logger    logging.Logger
	config    Config

	intake    *agent.IntakeAgent
	vision    *agent.VisionAgent
	retrieval *agent.RetrievalAgent
	guidance  *agent.GuidanceAgent
	safety    *agent.SafetyAgent

	handlers map[core.Step]stepHandler
}

// New creates an Engine generating text with m. It panics if a pipeline step
// lacks a handler.
func New(m model.Model, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:       DefaultConfig,
		SessionStore: session.NewInMemoryStore(),
		Callbacks:    NewCallbackManager(),
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.VisionModel == nil {
		opts.VisionModel = m
	}
	if opts.Index == nil {
		if emb, ok := m.(model.Embedder); ok {
			opts.Index = memory.NewInMemoryIndex(emb)
		}
	}
	if opts.Rules == nil {
		opts.Rules = agent.DefaultDenylist()
	}
	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	cfg := opts.Config
	e := &Engine{
		sessions:  opts.SessionStore,
		index:     opts.Index,
		callbacks: opts.Callbacks,
		logger:    opts.Logger,
		config:    cfg,
		intake:    agent.NewIntakeAgent(),
		vision: agent.NewVisionAgent(opts.VisionModel, func(o *agent.VisionOptions) {
			o.Timeout = cfg.Timeouts.Vision
			o.Temperature = cfg.Temperature
			o.Logger = opts.Logger
		}),
		guidance: agent.NewGuidanceAgent(m, func(o *agent.GuidanceOptions) {
			o.Timeout = cfg.Timeouts.Generate
			o.Temperature = cfg.Temperature
			o.Logger = opts.Logger
		}),
		safety: agent.NewSafetyAgent(m, func(o *agent.SafetyOptions) {
			o.Rules = opts.Rules
			o.Timeout = cfg.Timeouts.Generate
			o.Temperature = cfg.Temperature
			o.Logger = opts.Logger
		}),
	}
	if opts.Index != nil {
		e.retrieval = agent.NewRetrievalAgent(m, opts.Index, func(o *agent.RetrievalOptions) {
			o.TopK = cfg.TopK
			o.Timeout = cfg.Timeouts.Generate
			o.IndexTimeout = cfg.Timeouts.Embed
			o.Temperature = cfg.Temperature
			o.Logger = opts.Logger
		})
	}

	e.handlers = map[core.Step]stepHandler{
		core.StepIntake:    e.runIntake,
		core.StepVision:    e.runVision,
		core.StepRetrieval: e.runRetrieval,
		core.StepGuidance:  e.runGuidance,
		core.StepSafety:    e.runSafety,
	}
	mustCoverSteps(e.handlers)

	return e
}

// mustCoverSteps panics unless every step has a handler.
func mustCoverSteps(handlers map[core.Step]stepHandler) {
	for _, s := range core.AllSteps {
		if _, ok := handlers[s]; !ok {
			panic(fmt.Sprintf("engine: no handler for step %q", s))
		}
	}
}

// Analyze runs the full pipeline for req and returns the assembled result.
// Any step failure aborts the plan; the session stays in the ledger without
// a final response.
func (e *Engine) Analyze(ctx context.Context, req core.Request) (*core.Result, error) {
	req, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	sess, err := e.sessions.Create()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	plan := planner.Plan(planner.InputsFor(req))
	r := &run{sessionID: sess.ID, req: req, store: core.NewContextStore()}

	e.logger.Info("Analysis started", "session_id", sess.ID, "plan", stepNames(plan))

	for _, step := range plan {
		if err := e.execute(ctx, r, step); err != nil {
			return nil, err
		}
	}

	snapshot := r.store.Snapshot()
	if err := e.sessions.SetPatientContext(sess.ID, snapshot); err != nil {
		return nil, err
	}

	final, err := e.sessions.Get(sess.ID)
	if err != nil {
		return nil, err
	}
	if final.FinalResponse == nil {
		return nil, e.invariant(sess.ID, core.StepSafety, "safety completed without a final response")
	}

	return &core.Result{
		SessionID:       sess.ID,
		Plan:            plan,
		PatientContext:  snapshot,
		ImagingFindings: final.ImagingFindings,
		UploadedReports: final.RAGReports,
		FinalOutput:     *final.FinalResponse,
	}, nil
}

func (e *Engine) execute(ctx context.Context, r *run, step core.Step) error {
	handler, ok := e.handlers[step]
	if !ok {
		return e.invariant(r.sessionID, step, "no handler")
	}

	cc := &CallbackContext{SessionID: r.sessionID, Step: step}
	if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeStep, cc); err != nil {
		return err
	}

	start := time.Now()
	out, err := handler(ctx, r)
	cc.Duration = time.Since(start)
	logging.LogStep(e.logger, r.sessionID, string(step), cc.Duration, err)
	if err != nil {
		cc.Err = err
		_ = e.callbacks.ExecuteCallbacks(ctx, CallbackOnError, cc)
		return fmt.Errorf("step %s: %w", step, err)
	}

	if err := e.sessions.RecordAgentOutput(r.sessionID, step, out); err != nil {
		return err
	}
	switch step {
	case core.StepIntake, core.StepVision, core.StepRetrieval:
		if err := e.sessions.SetPatientContext(r.sessionID, r.store.Snapshot()); err != nil {
			return err
		}
	}

	cc.Output = out
	return e.callbacks.ExecuteCallbacks(ctx, CallbackAfterStep, cc)
}

func (e *Engine) runIntake(_ context.Context, r *run) (any, error) {
	if r.req.Intake.Empty() {
		return nil, e.invariant(r.sessionID, core.StepIntake, "no intake data")
	}
	return e.intake.Run(r.store, r.req.Intake), nil
}

func (e *Engine) runVision(ctx context.Context, r *run) (any, error) {
	if r.req.ImagePath == "" {
		return nil, e.invariant(r.sessionID, core.StepVision, "no image reference")
	}
	out, err := e.vision.Run(ctx, r.store, r.req.ImagePath)
	if err != nil {
		return nil, err
	}
	if err := e.sessions.SetImagingFindings(r.sessionID, out.Findings); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) runRetrieval(ctx context.Context, r *run) (any, error) {
	if len(r.req.Reports) == 0 || r.req.Question == "" {
		return nil, e.invariant(r.sessionID, core.StepRetrieval, "no reports or no question")
	}
	if e.retrieval == nil {
		return nil, fmt.Errorf("no similarity index configured: %w", core.ErrCollaborator)
	}

	if err := e.retrieval.Ingest(ctx, r.sessionID, r.req.Reports); err != nil {
		return nil, err
	}
	out, err := e.retrieval.Answer(ctx, r.store, r.sessionID, r.req.Question)
	if err != nil {
		return nil, err
	}
	if err := e.sessions.AppendRAGReport(r.sessionID, core.ReportSummary{
		Question: r.req.Question,
		Answer:   out.Answer,
		Sources:  out.Sources,
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) runGuidance(ctx context.Context, r *run) (any, error) {
	return e.guidance.Run(ctx, r.store.Snapshot())
}

func (e *Engine) runSafety(ctx context.Context, r *run) (any, error) {
	sess, err := e.sessions.Get(r.sessionID)
	if err != nil {
		return nil, err
	}

	var text string
	if prev, ok := sess.AgentOutput(core.StepGuidance); ok {
		if g, ok := prev.(agent.GuidanceOutput); ok {
			text = g.Guidance
		}
	}

	out, err := e.safety.Review(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.sessions.SetFinalResponse(r.sessionID, out.FinalOutput); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) invariant(sessionID string, step core.Step, msg string) error {
	err := fmt.Errorf("%w: step %s: %s", core.ErrInvariantViolation, step, msg)
	e.logger.Error("Invariant violation", "session_id", sessionID, "step", string(step), "error", err.Error())
	return err
}

// Session returns a copy of the ledger record for id.
func (e *Engine) Session(id string) (*core.Session, error) {
	return e.sessions.Get(id)
}

// Discard removes the session and its indexed reports.
func (e *Engine) Discard(ctx context.Context, id string) error {
	if err := e.sessions.Delete(id); err != nil {
		return err
	}
	if e.index != nil {
		if err := e.index.Drop(ctx, id); err != nil {
			return fmt.Errorf("drop index namespace: %w: %w", core.ErrCollaborator, err)
		}
	}
	return nil
}

// normalizeRequest trims the question and fills missing report ids and
// sources. Reports are only indexed when a question is asked, so only then
// is a report without text or a repeated report id an input error.
func normalizeRequest(req core.Request) (core.Request, error) {
	req.ImagePath = strings.TrimSpace(req.ImagePath)
	req.Question = strings.TrimSpace(req.Question)

	if len(req.Reports) == 0 {
		return req, nil
	}
	indexed := req.Question != ""
	seen := make(map[string]int, len(req.Reports))
	reports := make([]core.ReportDocument, len(req.Reports))
	for i, d := range req.Reports {
		if d.ID == "" {
			d.ID = fmt.Sprintf("report_%d", i+1)
		}
		if d.Source == "" {
			d.Source = d.ID
		}
		if indexed {
			if strings.TrimSpace(d.Text) == "" {
				return core.Request{}, fmt.Errorf("report %d has no text: %w", i+1, core.ErrInput)
			}
			if prev, ok := seen[d.ID]; ok {
				return core.Request{}, fmt.Errorf("reports %d and %d share id %q: %w", prev, i+1, d.ID, core.ErrInput)
			}
			seen[d.ID] = i + 1
		}
		reports[i] = d
	}
	req.Reports = reports
	return req, nil
}

func stepNames(plan []core.Step) []string {
	names := make([]string, len(plan))
	for i, s := range plan {
		names[i] = string(s)
	}
	return names
}
