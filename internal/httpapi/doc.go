// Package httpapi exposes the preloader's HTTP surface: image and
// registration uploads from the capture client, patient listings and image
// serving for the chairside viewer, refresh-request bookkeeping, and the
// schedule OCR endpoint.
//
// Responses are JSON envelopes with a "status" or "error" field. Service
// errors map onto status codes by taxonomy: unknown keys are 404, malformed
// metadata is 400, a missing recognition engine is 503, and anything else is
// 500. A deduplicated image is not an error; it returns 200 with status
// "skipped".
package httpapi
