package agent

import (
	"github.com/hupe1980/caremesh/core"
)

// IntakeOutput echoes the structured intake fields.
type IntakeOutput struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Context core.IntakeData `json:"context"`
}

// IntakeAgent writes patient-provided fields into the context store. It does
// not interpret them and calls no model.
type IntakeAgent struct {
	BaseAgent
}

// NewIntakeAgent creates an IntakeAgent.
func NewIntakeAgent() *IntakeAgent {
	a := &IntakeAgent{BaseAgent: NewBaseAgent(core.StepIntake)}
	a.SetDescription("Structures patient-provided intake data")
	return a
}

// Run replaces every intake field in store. Missing fields are written as
// empty values, never merged with earlier writes.
func (a *IntakeAgent) Run(store *core.ContextStore, in *core.IntakeData) IntakeOutput {
	data := normalizeIntake(in)

	store.SetDemographics(data.Demographics)
	store.SetSymptoms(data.Symptoms)
	store.SetMedications(data.Medications)
	store.SetAllergies(data.Allergies)
	store.SetVitals(data.Vitals)

	return IntakeOutput{
		Status:  StatusSuccess,
		Message: "Patient intake data structured successfully.",
		Context: data,
	}
}

func normalizeIntake(in *core.IntakeData) core.IntakeData {
	var data core.IntakeData
	if in != nil {
		data = *in
	}
	if data.Demographics == nil {
		data.Demographics = map[string]any{}
	}
	if data.Symptoms == nil {
		data.Symptoms = []string{}
	}
	if data.Medications == nil {
		data.Medications = []string{}
	}
	if data.Allergies == nil {
		data.Allergies = []string{}
	}
	if data.Vitals == nil {
		data.Vitals = map[string]any{}
	}
	return data
}
