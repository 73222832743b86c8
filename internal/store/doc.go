// Package store provides SQLite-backed storage for generated events.
//
// The same layout serves as generator output and as the background sample
// for embedding:
//   - o2sim: one row per event, the serialized event header in
//     mc_event_header, keyed by a 0-based entry number
//   - tracks: the primaries submitted for each entry, in stack order
//   - runs: one row per generation run (run token, generator identity, seed)
//
// # Access Modes
//
// Create opens a store for writing: WAL journal, NORMAL synchronous, a
// single connection. OpenReadOnly opens an existing file without creating
// or migrating anything, so a foreign SQLite file can be inspected and
// rejected by its missing o2sim table.
//
// All reads are ordered by entry (and track) so repeated reads of an entry
// are identical.
package store
