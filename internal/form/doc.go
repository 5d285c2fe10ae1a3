// Package form holds the display state of the anonymizer form and drives the
// API adapter on encode and decode actions.
package form
