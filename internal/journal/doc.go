// Package journal keeps an append-only audit trail of ingestion outcomes in
// SQLite: saved and skipped images, patient registrations, refresh requests,
// and cache clears.
//
// The journal is observational; the JSON index document remains the
// authoritative state. Schema changes bump schemaVersion in journal.go and
// surface as an error on open rather than rewriting an existing audit trail.
package journal
