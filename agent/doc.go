// Package agent contains the step agents of the analysis pipeline. Each
// agent wraps exactly one responsibility:
//
//  1. IntakeAgent structures patient-provided fields into the context store
//  2. VisionAgent describes a medical image through a vision model
//  3. RetrievalAgent answers a question strictly from indexed reports
//  4. GuidanceAgent drafts educational guidance from the context snapshot
//  5. SafetyAgent reviews guidance and produces the final response
//
// Agents hold no per-request state. The context store, session namespace and
// prior outputs are passed in by the engine on every call.
//
// Model failures are wrapped with core.ErrCollaborator. Image validation
// failures keep their core.ErrNotFound / core.ErrUnsupportedFormat kinds.
package agent
