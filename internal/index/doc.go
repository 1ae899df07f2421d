// Package index is the authoritative store for the patient, study, and image
// hierarchy plus pending refresh markers.
//
// State lives in one JSON document. Each operation loads the document,
// mutates it in memory, and persists it atomically (temp file + rename) under
// a single store-wide mutex, so partial writes and lost updates cannot occur
// within a process. Patients own studies, studies own ordered image lists;
// nothing references these entities outside the store.
//
// Documents written by older versions that lack the pending_refreshes field
// load with an empty map; upgrades are never destructive.
package index
