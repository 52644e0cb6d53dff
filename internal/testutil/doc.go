// Package testutil contains helpers used across tests: a fluent request
// builder, a deterministic keyword embedder, a testify-backed index mock and
// image fixtures. They are not intended for production usage.
package testutil
