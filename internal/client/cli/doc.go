// Package cli provides the interactive lead console.
//
// It wires the console pages, the notice center, the mutation journal and
// the exporter into a line-oriented REPL. Every view command opens a fresh
// page and closes the one the operator is leaving, so late results of an
// abandoned view never touch the screen.
//
// Key features:
//   - Leads listing and the stats dashboard
//   - Board items: add, remove, move
//   - Visuals: add, approve, generate
//   - Weekly reports and the delayed re-fetch after a generation job
//   - Snapshot export, journal and notice history
//
// The REPL is started via App.Root(ctx), which blocks until the operator
// exits. See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
