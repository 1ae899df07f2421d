package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; the journal is an audit trail, so old databases are kept and the
// mismatch surfaces as an error instead of a silent rewrite.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("journal schema version mismatch")

// Kind classifies a journal event.
type Kind string

const (
	KindSaved            Kind = "saved"
	KindSkipped          Kind = "skipped"
	KindRegistered       Kind = "registered"
	KindRefreshRequested Kind = "refresh_requested"
	KindRefreshCleared   Kind = "refresh_cleared"
	KindCleared          Kind = "cleared"
)

// Event is one audited ingestion outcome.
type Event struct {
	ID         int64
	Kind       Kind
	PatientKey string
	StudyKey   string
	Filename   string
	Detail     string
	CreatedAt  time.Time
}

// Store appends and queries journal events backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Record appends one event. The timestamp is stamped here when the event
// carries none.
func (s *Store) Record(ctx context.Context, evt Event) error {
	ts := evt.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO events (kind, patient_key, study_key, filename, detail, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		string(evt.Kind),
		nullableString(evt.PatientKey),
		nullableString(evt.StudyKey),
		nullableString(evt.Filename),
		nullableString(evt.Detail),
		ts.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Recent returns the newest events, most recent first. Limit 0 defaults to 50.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

// ForPatient returns the newest events for one patient key, most recent first.
func (s *Store) ForPatient(ctx context.Context, patientKey string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+eventColumns+` FROM events WHERE patient_key = ? ORDER BY id DESC LIMIT ?`,
		patientKey,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query patient events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

const eventColumns = "id, kind, patient_key, study_key, filename, detail, created_at"

func scanEvent(scanner interface{ Scan(dest ...any) error }) (Event, error) {
	var (
		id         int64
		kind       string
		patientKey sql.NullString
		studyKey   sql.NullString
		filename   sql.NullString
		detail     sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(&id, &kind, &patientKey, &studyKey, &filename, &detail, &createdRaw); err != nil {
		return Event{}, err
	}
	evt := Event{
		ID:         id,
		Kind:       Kind(kind),
		PatientKey: patientKey.String,
		StudyKey:   studyKey.String,
		Filename:   filename.String,
		Detail:     detail.String,
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		evt.CreatedAt = created
	}
	return evt, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
