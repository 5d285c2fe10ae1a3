// Package services defines shared utilities consumed by the API server, the
// mapping stores and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp operation names and correlation identifiers
//     for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP statuses.
package services
