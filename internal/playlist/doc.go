// Package playlist is the JSON-over-POST client for the playlist editor API.
//
// Every call posts a token-bearing body. Transient faults (network errors,
// 5xx, 429) are retried with backoff before surfacing as a tagged transient
// error; undecodable bodies surface as malformed responses.
package playlist
