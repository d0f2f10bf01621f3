// Package main hosts the showsync CLI entrypoint and command graph.
//
// The Cobra-based command tree drives sync runs, inspects resumable state and
// the metadata cache, refreshes the bootstrap snapshot, and scaffolds
// configuration. It centralizes configuration resolution, store wiring, and
// structured logging setup so subcommands can focus on user experience.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
