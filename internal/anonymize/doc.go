// Package anonymize implements marker-driven reversible substitution.
//
// Terms wrapped in [[double brackets]] receive an opaque random token that is
// recorded in an ORIGINAL→TOKEN mapping. Encoding replaces every marked term
// and every unmarked occurrence of an already known original with its token;
// decoding swaps known tokens back. Both directions run as a single
// left-to-right pass, so replacement output is never substituted again.
//
// The package holds no I/O. Persistence lives in internal/mapping.
package anonymize
