// Package match resolves playlist show titles to provider metadata. It owns
// the search-cache discipline (hits are authoritative, including unexpired
// not-found markers), the script-aware search strategy with transliteration
// fallback, the candidate tie-break policy, and the append-only audit trail
// of titles that could not be resolved.
package match
