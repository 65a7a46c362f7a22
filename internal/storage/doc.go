// Package storage provides JSON file persistence for venue event stores.
//
// Each venue is stored as a single JSON array in <venue>_events.json under
// the data directory (default ~/.local/share/eventsync/). Saves go through a
// temp file and rename, so a crash mid-write leaves the previous file intact.
// Records are never removed by the store; deletion is a flag on the record.
package storage
