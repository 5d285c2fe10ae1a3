// Package api defines the wire-format types of the anonymizer HTTP API and
// the AnonymizerService that implements encode and decode on top of a
// mapping store.
//
// # Key Types
//
// TextIn: request body for /encode and /decode. The optional mapping is
// ORIGINAL→TOKEN in both directions.
//
// TextOut: response body with the processed text and the full ORIGINAL→TOKEN
// mapping known after the call.
//
// Health: liveness payload for /health.
//
// # Design Notes
//
// JSON field names are lowercase single words so browser clients and the Go
// client adapter share one shape. Mapping keys are originals; insertion order
// carries no meaning.
package api
