// Package language classifies the dominant script of a show title.
//
// The Latin/NonLatin decision is an explicit codepoint-range majority vote so
// matching strategy selection stays deterministic and testable; whatlanggo
// contributes the human-readable script name carried into logs and the
// not-found audit trail. Classification is a pure function of the string: no
// network access and no caching.
package language
