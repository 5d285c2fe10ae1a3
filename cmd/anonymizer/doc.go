// Command anonymizer is the CLI for the reversible text anonymizer. It runs
// the HTTP server (serve, start, stop), calls the API (encode, decode,
// health, form) and maintains the local mapping store (mapping, status,
// config).
package main
