// Package config provides configuration management for the castwave server.
//
// # Launch File vs Managed Store
//
// Configuration is split into two layers with different lifecycles:
//
// Launch file: A small viper-backed file read once at process start, before
// anything else exists. It only carries what is needed to find and open the
// rest: the base directory, the log level, and whether to watch the store
// for on-disk edits.
//   - Default location: $HOME/.castwave/castwave.yaml
//   - Purpose: Bootstrap settings, never rewritten by the server
//   - Examples: base_dir, log_level, watch_config
//
// Managed store: The Manager owns the root ServerConfiguration plus named
// fragments (such as the "encoding" fragment), persisted through a
// Repository. The server reads it constantly and replaces it through
// ReplaceRoot and ReplaceNamed, which persist atomically and notify
// subscribed observers.
//   - Default location: $HOME/.castwave/config/system.yaml and <key>.yaml
//   - Purpose: Everything the server can change while running
//   - Examples: server name, metadata path, library and streaming options
//
// Replacement Pattern: ReplaceRoot runs a fixed sequence so a bad candidate
// can never half-apply: validate the changed paths, give updating observers
// a chance to veto, persist, swap the active snapshot, recompute the
// derived paths, then tell updated observers. Readers holding the previous
// snapshot keep a consistent view; they pick up the new one on their next
// call to Current.
package config
