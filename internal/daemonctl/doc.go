// Package daemonctl starts and stops the background anonymizer server
// process for the CLI.
package daemonctl
