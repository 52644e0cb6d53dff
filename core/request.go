package core

// IntakeData carries raw patient-provided fields. Every field is optional;
// missing fields are treated as empty.
type IntakeData struct {
	Demographics map[string]any `json:"demographics,omitempty" yaml:"demographics,omitempty"`
	Symptoms     []string       `json:"symptoms,omitempty" yaml:"symptoms,omitempty"`
	Medications  []string       `json:"medications,omitempty" yaml:"medications,omitempty"`
	Allergies    []string       `json:"allergies,omitempty" yaml:"allergies,omitempty"`
	Vitals       map[string]any `json:"vitals,omitempty" yaml:"vitals,omitempty"`
}

// Empty reports whether no intake field carries a value. An empty intake is
// treated like a missing one.
func (d *IntakeData) Empty() bool {
	if d == nil {
		return true
	}
	return len(d.Demographics) == 0 && len(d.Symptoms) == 0 && len(d.Medications) == 0 &&
		len(d.Allergies) == 0 && len(d.Vitals) == 0
}

// ReportDocument is one uploaded report handed to the similarity index.
type ReportDocument struct {
	ID     string `json:"id" yaml:"id"`
	Text   string `json:"text" yaml:"text"`
	Source string `json:"source" yaml:"source"`
}

// Request is the payload of one analysis. All fields are optional.
type Request struct {
	Intake    *IntakeData      `json:"intake,omitempty"`
	ImagePath string           `json:"image_path,omitempty"`
	Reports   []ReportDocument `json:"reports,omitempty"`
	Question  string           `json:"user_query,omitempty"`
}

// Result is the assembled output of one analysis.
type Result struct {
	SessionID       string           `json:"session_id" yaml:"session_id"`
	Plan            []Step           `json:"plan" yaml:"plan"`
	PatientContext  MedicalContext   `json:"patient_context" yaml:"patient_context"`
	ImagingFindings *ImagingFindings `json:"imaging_findings" yaml:"imaging_findings"`
	UploadedReports []ReportSummary  `json:"uploaded_reports" yaml:"uploaded_reports"`
	FinalOutput     string           `json:"final_output" yaml:"final_output"`
}
