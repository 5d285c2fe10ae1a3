// Package preflight provides readiness checks for the directories, mapping
// storage and HTTP API the anonymizer depends on.
//
// The CLI "anonymizer status" command runs RunAll and renders the results;
// individual checks can be used on their own.
package preflight
