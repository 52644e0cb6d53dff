package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/internal/util"
	"github.com/hupe1980/caremesh/logging"
	"github.com/hupe1980/caremesh/model"
)

// Disclaimer is appended to any final text that does not mention "consult".
const Disclaimer = "\n\n⚠️ **Important Medical Disclaimer**:\n" +
	"This information is for general educational purposes only " +
	"and is not a medical diagnosis or treatment recommendation. " +
	"Please consult a qualified healthcare professional for " +
	"personalized medical advice."

// StatusSafe is the status marker of the safety step.
const StatusSafe = "safe"

// Rule detects a likely-unsafe medical assertion. Rules are a heuristic: they
// produce false positives and miss paraphrases. The set of rule kinds is
// closed (SubstringRule, RegexRule).
type Rule interface {
	// Name identifies the rule in outputs and logs.
	Name() string
	// Match reports whether text triggers the rule.
	Match(text string) bool

	isRule()
}

// SubstringRule matches a case-insensitive substring.
type SubstringRule struct {
	Term string
}

// Name implements Rule.
func (r SubstringRule) Name() string { return r.Term }

// Match implements Rule.
func (r SubstringRule) Match(text string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(r.Term))
}

func (SubstringRule) isRule() {}

// RegexRule matches a regular expression.
type RegexRule struct {
	Pattern *regexp.Regexp
}

// NewRegexRule compiles expr into a RegexRule.
func NewRegexRule(expr string) (RegexRule, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return RegexRule{}, fmt.Errorf("compile safety rule %q: %w", expr, err)
	}
	return RegexRule{Pattern: re}, nil
}

// Name implements Rule.
func (r RegexRule) Name() string { return "regex:" + r.Pattern.String() }

// Match implements Rule.
func (r RegexRule) Match(text string) bool { return r.Pattern.MatchString(text) }

func (RegexRule) isRule() {}

// DefaultDenylist returns the built-in substring rules.
func DefaultDenylist() []Rule {
	terms := []string{
		"diagnosis",
		"diagnosed",
		"you have",
		"this means you have",
		"treatment",
		"medication",
		"prescribe",
		"cure",
		"disease",
		"condition",
		"definitive",
		"certainly",
		"confirmed",
	}
	rules := make([]Rule, len(terms))
	for i, t := range terms {
		rules[i] = SubstringRule{Term: t}
	}
	return rules
}

// SafetyState is a state of the review state machine.
type SafetyState int

const (
	// StateRaw is unreviewed input text.
	StateRaw SafetyState = iota
	// StateScannedUnsafe means at least one rule matched.
	StateScannedUnsafe
	// StateScannedSafe means no rule matched, or the text was rewritten.
	StateScannedSafe
	// StateDisclaimed means the disclaimer was appended.
	StateDisclaimed
	// StateFinal is terminal and always reached.
	StateFinal
)

// String returns the string representation of the state.
func (s SafetyState) String() string {
	switch s {
	case StateRaw:
		return "raw"
	case StateScannedUnsafe:
		return "scanned_unsafe"
	case StateScannedSafe:
		return "scanned_safe"
	case StateDisclaimed:
		return "disclaimed"
	case StateFinal:
		return "final"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s SafetyState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// SafetyOutput is the recorded output of the safety step.
type SafetyOutput struct {
	Status      string        `json:"status"`
	FinalOutput string        `json:"final_output"`
	Rewritten   bool          `json:"rewritten"`
	Disclaimed  bool          `json:"disclaimed"`
	Matched     []string      `json:"matched,omitempty"`
	Residual    []string      `json:"residual,omitempty"` // Rules still matching after a rewrite
	States      []SafetyState `json:"states"`
}

// SafetyOptions configures a SafetyAgent.
type SafetyOptions struct {
	Rules       []Rule
	Timeout     time.Duration
	Temperature float64
	Prompt      string
	Logger      logging.Logger
}

// SafetyAgent is the terminal gate. It transforms unsafe text and never
// rejects a request because of content.
type SafetyAgent struct {
	BaseAgent
	gen  generation
	opts SafetyOptions
}

// NewSafetyAgent creates a SafetyAgent that rewrites with m.
func NewSafetyAgent(m model.Model, optFns ...func(o *SafetyOptions)) *SafetyAgent {
	opts := SafetyOptions{
		Rules:       DefaultDenylist(),
		Timeout:     120 * time.Second,
		Temperature: 0.2,
		Prompt:      SafetyPrompt,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = orNoOp(opts.Logger)

	a := &SafetyAgent{
		BaseAgent: NewBaseAgent(core.StepSafety),
		gen:       generation{model: m, timeout: opts.Timeout, temperature: opts.Temperature, logger: opts.Logger},
		opts:      opts,
	}
	a.SetDescription("Reviews guidance and produces the final response")
	return a
}

// Review runs text through the state machine:
//
//	Raw -> ScannedUnsafe -> (rewrite) -> ScannedSafe
//	Raw -> ScannedSafe
//	ScannedSafe -> Disclaimed -> Final   when "consult" is absent
//	ScannedSafe -> Final                 otherwise
//
// The rewrite is a single pass; the rewritten text is not scanned again for
// control flow. Rules still matching it are reported in Residual.
func (a *SafetyAgent) Review(ctx context.Context, text string) (SafetyOutput, error) {
	out := SafetyOutput{Status: StatusSafe, States: []SafetyState{StateRaw}}

	out.Matched = a.matches(text)
	if len(out.Matched) > 0 {
		out.States = append(out.States, StateScannedUnsafe)

		prompt, err := util.RenderTemplate(a.opts.Prompt, map[string]string{"Content": text})
		if err != nil {
			return SafetyOutput{}, fmt.Errorf("render safety prompt: %w", err)
		}
		rewritten, err := a.gen.generate(ctx, a.Step(), prompt)
		if err != nil {
			return SafetyOutput{}, err
		}
		a.opts.Logger.Info("Rewrote unsafe content", "matched", len(out.Matched))

		text = rewritten
		out.Rewritten = true
		if out.Residual = a.matches(text); len(out.Residual) > 0 {
			a.opts.Logger.Warn("Rewritten content still matches safety rules", "rules", out.Residual)
		}
	}
	out.States = append(out.States, StateScannedSafe)

	if !strings.Contains(strings.ToLower(text), "consult") {
		text += Disclaimer
		out.Disclaimed = true
		out.States = append(out.States, StateDisclaimed)
	}
	out.States = append(out.States, StateFinal)

	out.FinalOutput = text
	return out, nil
}

func (a *SafetyAgent) matches(text string) []string {
	var names []string
	for _, r := range a.opts.Rules {
		if r.Match(text) {
			names = append(names, r.Name())
		}
	}
	return names
}
