// Package cli provides the interactive fieldentry command-line client.
//
// It wires configuration, local storage, the authenticated API client, and an
// interactive REPL that supports online/offline operation. Typical flow:
// store tokens, start a background connectivity watcher, and execute user
// commands.
//
// Key features:
//   - Login / Logout (token bundle stored locally)
//   - Cache-first listing of ERP systems
//   - Schema-graph resolution before a form renders, degrading gracefully
//     when dependencies are unavailable offline
//   - Guided document entry with submit-or-queue semantics
//   - Inspecting and draining the pending-submission queue
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
