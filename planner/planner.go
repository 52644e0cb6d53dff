// Package planner decides which pipeline steps run for a request and in
// which order. It never generates content and has no side effects.
package planner

import "github.com/hupe1980/caremesh/core"

// Inputs describes which optional request inputs are present.
type Inputs struct {
	Intake   bool
	Image    bool
	Reports  bool
	Question bool
}

// InputsFor derives the planner inputs from a request. Empty strings, empty
// report lists and an intake without any field count as absent.
func InputsFor(req core.Request) Inputs {
	return Inputs{
		Intake:   !req.Intake.Empty(),
		Image:    req.ImagePath != "",
		Reports:  len(req.Reports) > 0,
		Question: req.Question != "",
	}
}

// Plan maps the present inputs to an ordered step list:
//
//	[intake] [vision] [retrieval] guidance safety
//
// intake runs when intake data is present, vision when an image is present,
// retrieval when both reports and a question are present. guidance and
// safety always run, safety last.
func Plan(in Inputs) []core.Step {
	plan := make([]core.Step, 0, len(core.AllSteps))
	if in.Intake {
		plan = append(plan, core.StepIntake)
	}
	if in.Image {
		plan = append(plan, core.StepVision)
	}
	if in.Reports && in.Question {
		plan = append(plan, core.StepRetrieval)
	}
	return append(plan, core.StepGuidance, core.StepSafety)
}
