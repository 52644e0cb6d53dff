package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextStore_EmptySnapshot(t *testing.T) {
	s := NewContextStore()
	snap := s.Snapshot()

	assert.NotNil(t, snap.Demographics)
	assert.NotNil(t, snap.Symptoms)
	assert.NotNil(t, snap.Vitals)
	assert.Nil(t, snap.Imaging)
	assert.Empty(t, snap.Reports)
}

func TestContextStore_LastWriteWins(t *testing.T) {
	s := NewContextStore()

	s.SetDemographics(map[string]any{"age": 40, "sex": "f"})
	s.SetDemographics(map[string]any{"age": 41})
	s.SetSymptoms([]string{"cough", "fever"})
	s.SetSymptoms([]string{"headache"})
	s.SetMedications([]string{"aspirin"})
	s.SetMedications(nil)
	s.SetAllergies([]string{"penicillin"})
	s.SetVitals(map[string]any{"heart_rate": 72})
	s.SetVitals(map[string]any{"blood_pressure": "120/80"})

	snap := s.Snapshot()
	assert.Equal(t, map[string]any{"age": 41}, snap.Demographics)
	assert.Equal(t, []string{"headache"}, snap.Symptoms)
	assert.Equal(t, []string{}, snap.Medications)
	assert.Equal(t, []string{"penicillin"}, snap.Allergies)
	assert.Equal(t, map[string]any{"blood_pressure": "120/80"}, snap.Vitals)
}

func TestContextStore_ImagingIsOverwritten(t *testing.T) {
	s := NewContextStore()
	s.SetImaging(ImagingFindings{Observations: "first"})
	s.SetImaging(ImagingFindings{Observations: "second", Confidence: "moderate"})

	snap := s.Snapshot()
	require.NotNil(t, snap.Imaging)
	assert.Equal(t, "second", snap.Imaging.Observations)
}

func TestContextStore_ReportsAccumulate(t *testing.T) {
	s := NewContextStore()
	for i := 0; i < 5; i++ {
		s.AddReportSummary(ReportSummary{Question: fmt.Sprintf("q%d", i), Sources: []string{"r.pdf"}})
	}

	snap := s.Snapshot()
	require.Len(t, snap.Reports, 5)
	assert.Equal(t, "q0", snap.Reports[0].Question)
	assert.Equal(t, "q4", snap.Reports[4].Question)
}

func TestContextStore_SnapshotIsolation(t *testing.T) {
	s := NewContextStore()
	symptoms := []string{"cough"}
	s.SetSymptoms(symptoms)
	s.AddReportSummary(ReportSummary{Sources: []string{"a.pdf"}})

	// caller-side mutation after the write does not leak in
	symptoms[0] = "changed"

	snap := s.Snapshot()
	snap.Symptoms[0] = "mutated"
	snap.Reports[0].Sources[0] = "b.pdf"
	snap.Demographics["age"] = 1

	again := s.Snapshot()
	assert.Equal(t, []string{"cough"}, again.Symptoms)
	assert.Equal(t, []string{"a.pdf"}, again.Reports[0].Sources)
	assert.Empty(t, again.Demographics)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindUnknown},
		{fmt.Errorf("x: %w", ErrInput), KindInput},
		{fmt.Errorf("x: %w", ErrNotFound), KindNotFound},
		{fmt.Errorf("x: %w", ErrUnsupportedFormat), KindUnsupportedFormat},
		{fmt.Errorf("x: %w", ErrCollaborator), KindCollaborator},
		{ErrFinalResponseSet, KindInvariant},
		{fmt.Errorf("x: %w: %w", ErrInvariantViolation, ErrNotFound), KindInvariant},
		{fmt.Errorf("plain"), KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), "%v", tt.err)
	}
}

func TestStep_Valid(t *testing.T) {
	for _, s := range AllSteps {
		assert.True(t, s.Valid(), s.String())
	}
	assert.False(t, Step("diagnosis").Valid())
}

func TestContent_Text(t *testing.T) {
	c := NewUserContent("hello ", ImagePart{Data: []byte{1}}, TextPart{Text: "world"})
	assert.Equal(t, "user", c.Role)
	assert.Equal(t, "hello world", c.Text())
}
