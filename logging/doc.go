// Package logging provides a minimal logging interface and adapters for caremesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the engine and agents use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping an existing *slog.Logger
//   - CareLogger, a configurable slog logger with component / session scoping
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	eng := engine.New(textModel, func(o *engine.Options) { o.Logger = logger })
//
// Arguments after the message are slog key/value pairs. Patient data must
// never be passed as a logging argument.
package logging
