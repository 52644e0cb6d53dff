// Package core provides the foundational domain types, interfaces and
// sentinel errors used by caremesh. It defines the core abstractions for:
//
//   - MedicalContext / ContextStore (the structured, non-diagnostic patient
//     record accumulated across the steps of one request)
//   - Session / SessionStore (the per-request ledger of raw step outputs and
//     the single final response)
//   - Step (the closed set of pipeline step identifiers)
//   - Index (the similarity index collaborator used for report retrieval)
//   - Content / Part (provider-neutral prompt payloads)
//
// The package keeps implementation concerns (model providers, persistence,
// orchestration) out of scope, exposing small interfaces so backends can be
// swapped without touching the pipeline.
package core
