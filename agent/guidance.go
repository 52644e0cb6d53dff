package agent

import (
	"context"
	"fmt"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/internal/util"
	"github.com/hupe1980/caremesh/logging"
	"github.com/hupe1980/caremesh/model"
)

// GuidanceOptions configures a GuidanceAgent.
type GuidanceOptions struct {
	Timeout     time.Duration
	Temperature float64
	Prompt      string
	Logger      logging.Logger
}

// GuidanceOutput is the recorded output of the guidance step.
type GuidanceOutput struct {
	Status   string `json:"status"`
	Guidance string `json:"guidance"`
}

// GuidanceAgent drafts educational guidance from the patient context. It does
// not check its own output; that is the safety step's job.
type GuidanceAgent struct {
	BaseAgent
	gen  generation
	opts GuidanceOptions
}

// NewGuidanceAgent creates a GuidanceAgent backed by m.
func NewGuidanceAgent(m model.Model, optFns ...func(o *GuidanceOptions)) *GuidanceAgent {
	opts := GuidanceOptions{
		Timeout:     120 * time.Second,
		Temperature: 0.2,
		Prompt:      GuidancePrompt,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = orNoOp(opts.Logger)

	a := &GuidanceAgent{
		BaseAgent: NewBaseAgent(core.StepGuidance),
		gen:       generation{model: m, timeout: opts.Timeout, temperature: opts.Temperature, logger: opts.Logger},
		opts:      opts,
	}
	a.SetDescription("Drafts cautious educational guidance")
	return a
}

// Run renders snapshot into the guidance prompt and returns the model's text.
func (a *GuidanceAgent) Run(ctx context.Context, snapshot core.MedicalContext) (GuidanceOutput, error) {
	rendered, err := RenderContext(snapshot)
	if err != nil {
		return GuidanceOutput{}, err
	}

	prompt, err := util.RenderTemplate(a.opts.Prompt, map[string]string{"Context": rendered})
	if err != nil {
		return GuidanceOutput{}, fmt.Errorf("render guidance prompt: %w", err)
	}

	text, err := a.gen.generate(ctx, a.Step(), prompt)
	if err != nil {
		return GuidanceOutput{}, err
	}
	return GuidanceOutput{Status: StatusSuccess, Guidance: text}, nil
}

// RenderContext renders a medical context as YAML for prompting.
func RenderContext(c core.MedicalContext) (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("render patient context: %w", err)
	}
	return string(b), nil
}
