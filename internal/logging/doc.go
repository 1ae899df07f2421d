// Package logging wraps log/slog with the handlers and helpers the daemon and
// CLI share.
//
// It renders either single-line console output (colored when the destination
// is a terminal) or canonical JSON, fans out to stdout and the log file, and
// supplies attribute helpers plus component-tagged sub-loggers so packages log
// with consistent field names.
package logging
