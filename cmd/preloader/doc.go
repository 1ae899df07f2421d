// Package main hosts the preloader CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the daemon in the foreground (serve),
// queries a running daemon over HTTP (patients, pending, clear, status),
// reads the ingestion journal directly (history), and scaffolds
// configuration files. It centralizes configuration resolution and daemon
// address discovery so subcommands can focus on output.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
