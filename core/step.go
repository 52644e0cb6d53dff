package core

// Step identifies one pipeline step. The set is closed: AllSteps lists every
// member and orchestrators verify they can dispatch each of them.
type Step string

const (
	// StepIntake structures raw patient-provided fields into the context.
	StepIntake Step = "intake"
	// StepVision describes an uploaded image.
	StepVision Step = "vision"
	// StepRetrieval answers a question from uploaded reports.
	StepRetrieval Step = "retrieval"
	// StepGuidance drafts educational text from the context.
	StepGuidance Step = "guidance"
	// StepSafety reviews the guidance draft and produces the final response.
	StepSafety Step = "safety"
)

// AllSteps lists every step in canonical execution order.
var AllSteps = []Step{StepIntake, StepVision, StepRetrieval, StepGuidance, StepSafety}

// String returns the step identifier.
func (s Step) String() string { return string(s) }

// Valid reports whether s is a member of the closed step set.
func (s Step) Valid() bool {
	for _, known := range AllSteps {
		if s == known {
			return true
		}
	}
	return false
}
