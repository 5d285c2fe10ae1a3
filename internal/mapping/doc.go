// Package mapping persists the ORIGINAL→TOKEN table used by the anonymizer.
//
// Three backends share the Store interface: a human-editable text file
// ("TOKEN = ORIGINAL" per line), a SQLite database for container runtimes,
// and a Redis hash for deployments that run several API replicas. Open picks
// the backend from configuration; Export renders a mapping for humans.
package mapping
