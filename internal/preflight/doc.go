// Package preflight provides readiness checks for filesystem paths and
// external binaries the preloader depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs any failures before
//     accepting uploads.
//   - The CLI "preloader status" command uses the individual check functions
//     to display readiness per concern.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
