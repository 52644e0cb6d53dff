// Package session houses concrete implementations of core.SessionStore, the
// per-request ledger. The interface and the Session record live in the core
// package so the orchestrator never depends on a concrete storage backend.
//
// Ledger records live for the process lifetime unless a caller discards them
// explicitly with Delete.
package session
