package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"preloader/internal/blob"
	"preloader/internal/logging"
	"preloader/internal/pacs"
)

// Store owns the persisted index document. Every operation runs a full
// load-mutate-persist cycle under one mutex; interleaved read-modify-write
// cycles from two callers would silently drop one of them otherwise.
type Store struct {
	path   string
	blobs  *blob.Store
	logger *slog.Logger
	clock  Clock

	mu sync.Mutex
}

// NewStore creates a store persisting to path, deleting image files through
// blobs on ClearAll. A nil clock selects the system clock.
func NewStore(path string, blobs *blob.Store, logger *slog.Logger, clock Clock) (*Store, error) {
	if path == "" {
		return nil, errors.New("index path must be set")
	}
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Store{
		path:   path,
		blobs:  blobs,
		logger: logging.NewComponentLogger(logger, "index"),
		clock:  clock,
	}, nil
}

// Path returns the index document location.
func (s *Store) Path() string { return s.path }

// Load returns a snapshot of the current document.
func (s *Store) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Mutate runs fn against the loaded document and persists it when fn reports
// a change. The whole cycle holds the store lock.
func (s *Store) Mutate(fn func(doc *Document) (changed bool, err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.persist(doc)
}

// GetPatient returns the patient stored under key.
func (s *Store) GetPatient(key string) (*Patient, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	patient, ok := doc.Patients[key]
	if !ok {
		return nil, pacs.Wrap(pacs.ErrNotFound, "index", "get patient", fmt.Sprintf("unknown patient key %q", key), nil)
	}
	return patient, nil
}

// ListPatients returns patient summaries ordered for the schedule view:
// clinic_date descending with empty dates last, and created_at ascending
// within one clinic date. The secondary sort runs first as a stable pre-pass;
// the stable primary sort then preserves it inside each tie group.
func (s *Store) ListPatients() ([]PatientSummary, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}

	summaries := make([]PatientSummary, 0, len(doc.Patients))
	for key, patient := range doc.Patients {
		summaries = append(summaries, PatientSummary{
			Key:        key,
			Name:       patient.Name,
			DOB:        patient.DOB,
			ClinicDate: patient.ClinicDate,
			ImageCount: patient.ImageCount,
			StudyCount: len(patient.Studies),
			CreatedAt:  patient.CreatedAt,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].ClinicDate > summaries[j].ClinicDate
	})

	return summaries, nil
}

// RequestRefresh marks a patient for re-sync, overwriting any pending
// timestamp. Unknown keys fail with a not-found error.
func (s *Store) RequestRefresh(key string) error {
	return s.Mutate(func(doc *Document) (bool, error) {
		if _, ok := doc.Patients[key]; !ok {
			return false, pacs.Wrap(pacs.ErrNotFound, "index", "request refresh", fmt.Sprintf("unknown patient key %q", key), nil)
		}
		doc.PendingRefreshes[key] = s.clock.NowUTC()
		return true, nil
	})
}

// PendingRefreshes returns a copy of the outstanding refresh markers.
func (s *Store) PendingRefreshes() (map[string]time.Time, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	pending := make(map[string]time.Time, len(doc.PendingRefreshes))
	for key, ts := range doc.PendingRefreshes {
		pending[key] = ts
	}
	return pending, nil
}

// ClearRefresh removes a pending refresh marker. Clearing an absent key is
// not an error.
func (s *Store) ClearRefresh(key string) error {
	return s.Mutate(func(doc *Document) (bool, error) {
		if _, ok := doc.PendingRefreshes[key]; !ok {
			return false, nil
		}
		delete(doc.PendingRefreshes, key)
		return true, nil
	})
}

// ClearAll deletes every stored image file and resets the index to empty.
// Destructive and irreversible.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.blobs.DeleteTree(); err != nil {
		return err
	}
	if err := s.persist(newDocument()); err != nil {
		return err
	}
	s.logger.Info("cleared all cached data")
	return nil
}

// load reads the persisted document, returning a fresh empty document when
// none exists. Documents written before pending refreshes existed load with
// an empty map rather than failing.
func (s *Store) load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newDocument(), nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	if len(data) == 0 {
		return newDocument(), nil
	}

	doc := new(Document)
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	if doc.Patients == nil {
		doc.Patients = make(map[string]*Patient)
	}
	if doc.PendingRefreshes == nil {
		doc.PendingRefreshes = make(map[string]time.Time)
	}
	for _, patient := range doc.Patients {
		if patient.Studies == nil {
			patient.Studies = make(map[string]*Study)
		}
	}
	return doc, nil
}

// persist stamps the document and replaces the file atomically so a reader
// never observes a partial write.
func (s *Store) persist(doc *Document) error {
	now := s.clock.Now()
	doc.Updated = &now

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}
