package testsupport

import (
	"testing"

	"preloader/internal/blob"
	"preloader/internal/config"
	"preloader/internal/index"
	"preloader/internal/journal"
	"preloader/internal/logging"
)

// MustOpenStore opens an index.Store backed by the test config's data
// directory, using the system clock.
func MustOpenStore(t testing.TB, cfg *config.Config) *index.Store {
	t.Helper()
	return MustOpenStoreWithClock(t, cfg, index.SystemClock())
}

// MustOpenStoreWithClock opens an index.Store with a caller-supplied clock so
// tests can pin timestamps.
func MustOpenStoreWithClock(t testing.TB, cfg *config.Config, clock index.Clock) *index.Store {
	t.Helper()

	blobs, err := blob.NewStore(cfg.ImagesDir())
	if err != nil {
		t.Fatalf("blob.NewStore: %v", err)
	}
	store, err := index.NewStore(cfg.IndexPath(), blobs, logging.NewNop(), clock)
	if err != nil {
		t.Fatalf("index.NewStore: %v", err)
	}
	return store
}

// MustOpenJournal opens the ingest journal for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	events, err := journal.Open(cfg.JournalPath())
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		events.Close()
	})
	return events
}
