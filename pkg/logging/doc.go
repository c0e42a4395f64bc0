// Package logging provides structured logging utilities for the build pipeline.
//
// It wraps the standard library slog package with pipeline-specific defaults:
// JSON output to stderr, environment-based level configuration (LOG_LEVEL),
// module/version context on every record, and source location tracking for
// debug logs.
//
// Set the default logger early in main():
//
//	logging.SetDefaultStructuredLogger("wolfibuild", version)
//	slog.Info("starting", "repository", repo)
//
// The LOG_LEVEL environment variable controls verbosity (debug, info, warn,
// error; default info).
package logging
