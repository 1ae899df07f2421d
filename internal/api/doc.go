// Package api provides a typed HTTP client for the preloader daemon. The CLI
// uses it for listings and maintenance actions; status codes map back onto
// the shared error taxonomy so command code can branch with errors.Is.
package api
