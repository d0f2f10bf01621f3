// Package bootstrap maintains the local snapshot of playlist categories and
// shows that sync runs iterate over. The snapshot lives as two JSON files in
// the data directory and is refreshed on demand from the playlist service, so
// repeated runs resume over a stable ordering instead of whatever the remote
// happens to return today.
package bootstrap
