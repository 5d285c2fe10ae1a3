// Package client talks to the anonymizer HTTP API.
//
// Each call issues exactly one request with no retries and no timeout of its
// own; the caller's context is the only deadline. Every failure is reported
// as ErrCallFailed.
package client
