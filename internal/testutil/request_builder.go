package testutil

import (
	"github.com/hupe1980/caremesh/core"
)

// RequestBuilder helps construct analysis requests with fluent chaining.
// Example:
//
//	req := NewRequestBuilder().Symptoms("cough").Report("r1", "text", "r.pdf").Question("why?").Build()
type RequestBuilder struct {
	req core.Request
}

// NewRequestBuilder creates a builder for an empty request.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{}
}

func (b *RequestBuilder) intake() *core.IntakeData {
	if b.req.Intake == nil {
		b.req.Intake = &core.IntakeData{}
	}
	return b.req.Intake
}

// Demographic sets one demographics key (chainable).
func (b *RequestBuilder) Demographic(key string, val any) *RequestBuilder {
	in := b.intake()
	if in.Demographics == nil {
		in.Demographics = map[string]any{}
	}
	in.Demographics[key] = val
	return b
}

// Symptoms appends symptoms (chainable).
func (b *RequestBuilder) Symptoms(symptoms ...string) *RequestBuilder {
	in := b.intake()
	in.Symptoms = append(in.Symptoms, symptoms...)
	return b
}

// Medications appends medications (chainable).
func (b *RequestBuilder) Medications(meds ...string) *RequestBuilder {
	in := b.intake()
	in.Medications = append(in.Medications, meds...)
	return b
}

// Image sets the image path (chainable).
func (b *RequestBuilder) Image(path string) *RequestBuilder {
	b.req.ImagePath = path
	return b
}

// Report appends an uploaded report (chainable).
func (b *RequestBuilder) Report(id, text, source string) *RequestBuilder {
	b.req.Reports = append(b.req.Reports, core.ReportDocument{ID: id, Text: text, Source: source})
	return b
}

// Question sets the user question (chainable).
func (b *RequestBuilder) Question(q string) *RequestBuilder {
	b.req.Question = q
	return b
}

// Build returns the constructed request.
func (b *RequestBuilder) Build() core.Request {
	return b.req
}
