package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/logging"
	"github.com/hupe1980/caremesh/model"
)

// StatusSuccess is the status marker of a completed step.
const StatusSuccess = "success"

// BaseAgent bundles the identity shared by every step agent. Embed it in
// concrete agents.
type BaseAgent struct {
	step        core.Step // Pipeline step served by this agent
	description string    // Human-readable purpose
}

// NewBaseAgent constructs a BaseAgent for step with a generated description
// (customizable via SetDescription).
func NewBaseAgent(step core.Step) BaseAgent {
	return BaseAgent{
		step:        step,
		description: fmt.Sprintf("Agent %s", step),
	}
}

// Name returns the agent name, which equals its step identifier.
func (b *BaseAgent) Name() string { return string(b.step) }

// Step returns the pipeline step this agent serves.
func (b *BaseAgent) Step() core.Step { return b.step }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// generation bundles what every model-backed agent needs for one call.
type generation struct {
	model       model.Model
	timeout     time.Duration
	temperature float64
	logger      logging.Logger
}

// generate sends one user turn (text plus optional extra parts) under the
// medical system prompt and returns the trimmed answer. Failures are
// collaborator failures.
func (g generation) generate(ctx context.Context, step core.Step, prompt string, parts ...core.Part) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	info := g.model.Info()
	start := time.Now()
	text, err := model.GenerateText(ctx, g.model, model.Request{
		Instructions: MedicalSystemPrompt,
		Contents:     []core.Content{core.NewUserContent(prompt, parts...)},
		Temperature:  model.Temperature(g.temperature),
	})
	logging.LogModelCall(g.logger, info.Provider, info.Name, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", step, core.ErrCollaborator, err)
	}
	return text, nil
}

func orNoOp(l logging.Logger) logging.Logger {
	if l == nil {
		return logging.NoOpLogger{}
	}
	return l
}
