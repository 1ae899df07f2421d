// Package pacs defines the shared error taxonomy for the preloader core.
//
// Sentinel errors classify failures across the ingestion, index, and
// recognition packages: unknown patient keys, malformed request metadata, a
// missing recognition engine, and engine failures with an underlying cause.
// Wrap attaches component context to an error while preserving the sentinel
// for errors.Is checks, so the HTTP layer can map failures to status codes
// without string matching.
package pacs
