// Package daemonrun wires configuration, logging, the mapping store and the
// HTTP server into the foreground server process.
package daemonrun
