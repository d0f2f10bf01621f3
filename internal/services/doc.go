// Package services defines the error taxonomy and context plumbing shared by
// the sync engine and its collaborator clients.
//
// Errors are tagged with sentinel markers (transient, malformed, not found,
// configuration, state corruption) so the engine can decide whether a failure
// is recoverable per show or fatal for the whole run. Context helpers carry
// run, category, and show identity down through blocking calls for logging.
package services
