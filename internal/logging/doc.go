// Package logging assembles structured slog loggers and formatting helpers used
// across the anonymizer server, CLI and client.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so request handlers tag log
// lines with the operation and correlation ID automatically. A no-op logger
// is provided for tests and wiring code that cannot fail.
//
// Log lines never carry request bodies or mapping contents; callers log
// counts and lengths instead.
package logging
