// Package ingest receives uploaded images and turns them into index entries
// and stored files.
//
// Each upload resolves or creates its patient and study, is checked against
// existing image uids before anything touches disk, and ends with the
// patient's image count recomputed from the authoritative per-study lists.
// Registration and ingestion deliberately differ: registration is an
// idempotent create that never updates, while ingestion only ever backfills
// an empty clinic date on an existing patient.
package ingest
