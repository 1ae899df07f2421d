// Package daemon wires the preloader's stores, ingestion pipeline, and HTTP
// server into a single long-running process. A flock-guarded lock file keeps
// a second instance from racing the first over the index document.
package daemon
