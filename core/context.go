package core

import (
	"maps"
	"slices"
	"sync"
)

// ImagingFindings is the single imaging record held by a MedicalContext.
// Observations come from the vision collaborator; Confidence and Note are
// fixed markers added by the vision step.
type ImagingFindings struct {
	Observations string `json:"observations" yaml:"observations"`
	Confidence   string `json:"confidence" yaml:"confidence"`
	Note         string `json:"note" yaml:"note"`
}

// ReportSummary is one retrieval answer grounded on uploaded reports.
type ReportSummary struct {
	Question string   `json:"question" yaml:"question"`
	Answer   string   `json:"answer" yaml:"answer"`
	Sources  []string `json:"sources" yaml:"sources"`
}

// MedicalContext is the structured, non-diagnostic patient record built up
// across the steps of a request.
type MedicalContext struct {
	Demographics map[string]any   `json:"demographics" yaml:"demographics"`
	Symptoms     []string         `json:"symptoms" yaml:"symptoms"`
	Medications  []string         `json:"medications" yaml:"medications"`
	Allergies    []string         `json:"allergies" yaml:"allergies"`
	Vitals       map[string]any   `json:"vitals" yaml:"vitals"`
	Imaging      *ImagingFindings `json:"imaging" yaml:"imaging"`
	Reports      []ReportSummary  `json:"reports" yaml:"reports"`
}

// NewMedicalContext returns an empty context with non-nil collections.
func NewMedicalContext() MedicalContext {
	return MedicalContext{
		Demographics: map[string]any{},
		Symptoms:     []string{},
		Medications:  []string{},
		Allergies:    []string{},
		Vitals:       map[string]any{},
		Reports:      []ReportSummary{},
	}
}

// Clone returns a copy whose maps and slices can be mutated independently.
// Map values are copied shallowly.
func (c MedicalContext) Clone() MedicalContext {
	out := MedicalContext{
		Demographics: cloneMap(c.Demographics),
		Symptoms:     cloneStrings(c.Symptoms),
		Medications:  cloneStrings(c.Medications),
		Allergies:    cloneStrings(c.Allergies),
		Vitals:       cloneMap(c.Vitals),
		Reports:      make([]ReportSummary, len(c.Reports)),
	}
	if c.Imaging != nil {
		img := *c.Imaging
		out.Imaging = &img
	}
	for i, r := range c.Reports {
		r.Sources = cloneStrings(r.Sources)
		out.Reports[i] = r
	}
	return out
}

// ContextStore is the context aggregator: a holder for one MedicalContext
// with field-level replace operations and an append-only report list.
//
// Contract:
//   - Every Set* call fully replaces its field (last write wins, no merge)
//   - SetImaging overwrites any previous imaging record
//   - AddReportSummary appends; reports are never removed
//   - Snapshot returns a copy consistent as of the call
//
// It is safe for concurrent access, but one store is meant to serve a single
// request.
type ContextStore struct {
	mu  sync.RWMutex
	ctx MedicalContext
}

// NewContextStore constructs an empty context store.
func NewContextStore() *ContextStore {
	return &ContextStore{ctx: NewMedicalContext()}
}

// SetDemographics replaces the demographics map.
func (s *ContextStore) SetDemographics(d map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.Demographics = cloneMap(d)
}

// SetSymptoms replaces the symptom list.
func (s *ContextStore) SetSymptoms(v []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.Symptoms = cloneStrings(v)
}

// SetMedications replaces the medication list.
func (s *ContextStore) SetMedications(v []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.Medications = cloneStrings(v)
}

// SetAllergies replaces the allergy list.
func (s *ContextStore) SetAllergies(v []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.Allergies = cloneStrings(v)
}

// SetVitals replaces the vitals map.
func (s *ContextStore) SetVitals(v map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.Vitals = cloneMap(v)
}

// SetImaging stores f as the sole imaging record.
func (s *ContextStore) SetImaging(f ImagingFindings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.Imaging = &f
}

// AddReportSummary appends a retrieval answer.
func (s *ContextStore) AddReportSummary(r ReportSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Sources = cloneStrings(r.Sources)
	s.ctx.Reports = append(s.ctx.Reports, r)
}

// Snapshot returns a copy of the full context.
func (s *ContextStore) Snapshot() MedicalContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.Clone()
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return maps.Clone(m)
}

func cloneStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return slices.Clone(v)
}
