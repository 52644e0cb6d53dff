// Package engine implements the orchestrator of the analysis pipeline.
//
// # Flow
//
// For every request the Engine:
//
//  1. creates a ledger session and a fresh core.ContextStore
//  2. asks the planner for the ordered step list
//  3. executes the steps strictly in order, recording each raw output in
//     the ledger under its step name
//  4. assembles the core.Result from the context snapshot and the ledger
//
// Step dispatch goes through a handler map keyed by core.Step. New panics when
// a step of core.AllSteps has no handler, so adding a step without wiring it
// fails at construction time.
//
// # Ledger writes
//
//   - vision: imaging findings
//   - retrieval: one rag report per answer (refusals included)
//   - safety: the final response; no other step may set it
//   - after every data-gathering step and before returning: the patient
//     context snapshot
//
// # Errors
//
// Any step failure aborts the remaining plan and Analyze returns the error;
// there is no partial result and no retry. A planned step whose input is
// missing is an invariant violation (core.ErrInvariantViolation) and is
// logged at error level.
//
// # Concurrency
//
// Analyze is safe for concurrent use. Each call owns its context store, the
// ledger is keyed by session id and the similarity index is namespaced by
// session id.
package engine
