// Package model defines the provider‑agnostic abstractions for the
// generation, vision and embedding collaborators used by caremesh agents.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Carry text and inline images in one request shape (core.Content)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI compatible endpoints including Ollama, Anthropic, Gemini)
// implement Model and, where supported, Embedder in sub packages so agents
// remain decoupled from vendor SDKs.
package model
