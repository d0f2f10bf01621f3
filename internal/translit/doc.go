// Package translit maps Arabic-script titles to a deterministic Latin
// approximation used as a fallback search key.
//
// The mapping is a fixed substitution table in the Buckwalter tradition:
// purely functional, no I/O, and total — unmapped runes pass through
// unchanged, so any string input yields a string output.
package translit
