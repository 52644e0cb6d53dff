package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/imaging"
	"github.com/hupe1980/caremesh/internal/util"
	"github.com/hupe1980/caremesh/logging"
	"github.com/hupe1980/caremesh/model"
)

const (
	// VisionConfidence is the fixed confidence attached to image observations.
	VisionConfidence = "moderate"

	// VisionNote is the fixed specialist-review caveat attached to image observations.
	VisionNote = "These observations are non-diagnostic and require review by a qualified medical imaging specialist."
)

// VisionOptions configures a VisionAgent.
type VisionOptions struct {
	Timeout     time.Duration
	Temperature float64
	Prompt      string
	Loader      func(path string) (*imaging.Image, error)
	Logger      logging.Logger
}

// VisionOutput is the recorded output of the vision step.
type VisionOutput struct {
	Status   string               `json:"status"`
	Message  string               `json:"message"`
	Findings core.ImagingFindings `json:"findings"`
}

// VisionAgent describes a medical image through a vision-capable model.
type VisionAgent struct {
	BaseAgent
	gen  generation
	opts VisionOptions
}

// NewVisionAgent creates a VisionAgent backed by m.
func NewVisionAgent(m model.Model, optFns ...func(o *VisionOptions)) *VisionAgent {
	opts := VisionOptions{
		Timeout:     180 * time.Second,
		Temperature: 0.2,
		Prompt:      VisionPrompt,
		Loader:      imaging.Load,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = orNoOp(opts.Logger)

	a := &VisionAgent{
		BaseAgent: NewBaseAgent(core.StepVision),
		gen:       generation{model: m, timeout: opts.Timeout, temperature: opts.Temperature, logger: opts.Logger},
		opts:      opts,
	}
	a.SetDescription("Describes medical images without diagnosing")
	return a
}

// Run checks that the model accepts images, validates and loads the image at
// path, asks the model for observations and stores the findings as the sole
// imaging record in store.
func (a *VisionAgent) Run(ctx context.Context, store *core.ContextStore, path string) (VisionOutput, error) {
	if info := a.gen.model.Info(); !info.SupportsVision {
		return VisionOutput{}, fmt.Errorf("model %s/%s cannot read images: %w", info.Provider, info.Name, core.ErrCollaborator)
	}

	img, err := a.opts.Loader(path)
	if err != nil {
		return VisionOutput{}, err
	}

	prompt, err := util.RenderTemplate(a.opts.Prompt, img.Info)
	if err != nil {
		return VisionOutput{}, fmt.Errorf("render vision prompt: %w", err)
	}

	text, err := a.gen.generate(ctx, a.Step(), prompt, core.ImagePart{Data: img.Data, MIMEType: img.MIMEType})
	if err != nil {
		return VisionOutput{}, err
	}

	findings := core.ImagingFindings{
		Observations: text,
		Confidence:   VisionConfidence,
		Note:         VisionNote,
	}
	store.SetImaging(findings)

	return VisionOutput{
		Status:   StatusSuccess,
		Message:  "Image analyzed successfully (non-diagnostic).",
		Findings: findings,
	}, nil
}
