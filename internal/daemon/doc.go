// Package daemon hosts the anonymizer HTTP API.
//
// Daemon owns the single-instance lock, the mapping store and the API server.
// The server routes /encode, /decode and /health (also under /api) through
// request-ID, CORS, rate-limit and bearer-token middleware, and exposes
// Prometheus metrics on /metrics. Request bodies never reach the logs.
package daemon
