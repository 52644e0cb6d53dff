package core

import (
	"maps"
	"time"
)

// Session is the ledger record of one request: the raw output of every
// executed step plus the single final response.
//
// Contract:
//   - AgentOutputs holds exactly one entry per executed step, keyed by step
//   - RAGReports only grows
//   - FinalResponse is set at most once, by the safety step
type Session struct {
	ID              string           `json:"id"`
	CreatedAt       time.Time        `json:"created_at"`
	PatientContext  *MedicalContext  `json:"patient_context,omitempty"`
	ImagingFindings *ImagingFindings `json:"imaging_findings,omitempty"`
	RAGReports      []ReportSummary  `json:"rag_reports"`
	AgentOutputs    map[Step]any     `json:"agent_outputs"`
	FinalResponse   *string          `json:"final_response,omitempty"`
}

// NewSession creates an empty session with the given ID.
func NewSession(id string) *Session {
	return &Session{
		ID:           id,
		CreatedAt:    time.Now().UTC(),
		RAGReports:   []ReportSummary{},
		AgentOutputs: map[Step]any{},
	}
}

// AgentOutput returns the recorded output of step and whether it exists.
func (s *Session) AgentOutput(step Step) (any, bool) {
	v, ok := s.AgentOutputs[step]
	return v, ok
}

// Clone returns a deep copy of the session safe for independent mutation.
// Recorded step outputs are copied by value.
func (s *Session) Clone() *Session {
	clone := &Session{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		RAGReports:   make([]ReportSummary, len(s.RAGReports)),
		AgentOutputs: maps.Clone(s.AgentOutputs),
	}
	if s.PatientContext != nil {
		pc := s.PatientContext.Clone()
		clone.PatientContext = &pc
	}
	if s.ImagingFindings != nil {
		img := *s.ImagingFindings
		clone.ImagingFindings = &img
	}
	for i, r := range s.RAGReports {
		r.Sources = cloneStrings(r.Sources)
		clone.RAGReports[i] = r
	}
	if s.FinalResponse != nil {
		fr := *s.FinalResponse
		clone.FinalResponse = &fr
	}
	return clone
}

// SessionStore is the session ledger. Every method except Create fails with
// ErrNotFound when the identifier is unknown.
type SessionStore interface {
	Create() (*Session, error)
	Get(id string) (*Session, error)
	SetPatientContext(id string, ctx MedicalContext) error
	SetImagingFindings(id string, findings ImagingFindings) error
	AppendRAGReport(id string, report ReportSummary) error
	RecordAgentOutput(id string, step Step, output any) error
	SetFinalResponse(id string, response string) error
	Delete(id string) error
}
