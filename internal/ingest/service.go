package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"preloader/internal/blob"
	"preloader/internal/index"
	"preloader/internal/journal"
	"preloader/internal/keys"
	"preloader/internal/logging"
	"preloader/internal/pacs"
)

// Status reports the outcome of an ingestion.
type Status string

const (
	// StatusSaved means the image was stored and indexed.
	StatusSaved Status = "saved"
	// StatusSkipped means the image uid already existed in the study; nothing
	// was written.
	StatusSkipped Status = "skipped"
)

// Upload carries one image plus the metadata the capture client supplies.
type Upload struct {
	Data             []byte
	PatientName      string
	PatientDOB       string
	StudyUID         string
	StudyDescription string
	StudyDate        string
	ImageIndex       int
	ImageUID         string
	ClinicDate       string
}

// Registration creates a patient placeholder before any images arrive.
type Registration struct {
	Name       string
	DOB        string
	ClinicDate string
}

// Result describes a completed ingestion.
type Result struct {
	Status     Status
	PatientKey string
	Filename   string
}

// Service turns uploads into index entries and stored files.
type Service struct {
	store   *index.Store
	blobs   *blob.Store
	events  *journal.Store
	logger  *slog.Logger
	clock   index.Clock
	imageNS string
}

// NewService wires the ingestion pipeline. The journal may be nil; auditing is
// then disabled. A nil clock selects the system clock.
func NewService(store *index.Store, blobs *blob.Store, events *journal.Store, logger *slog.Logger, clock index.Clock) (*Service, error) {
	if store == nil || blobs == nil {
		return nil, fmt.Errorf("ingest service requires index and blob stores")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if clock == nil {
		clock = index.SystemClock()
	}
	return &Service{
		store:   store,
		blobs:   blobs,
		events:  events,
		logger:  logging.NewComponentLogger(logger, "ingest"),
		clock:   clock,
		imageNS: "images",
	}, nil
}

// ParseImageIndex converts the image index form value. A non-numeric value is
// a caller contract violation and fails fast.
func ParseImageIndex(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, pacs.Wrap(pacs.ErrValidation, "ingest", "parse image index", fmt.Sprintf("%q is not an integer", value), nil)
	}
	return n, nil
}

// Register creates the patient if the derived key is new. Registration never
// updates an existing patient; repeated calls are idempotent.
func (s *Service) Register(ctx context.Context, reg Registration) (string, bool, error) {
	if strings.TrimSpace(reg.Name) == "" {
		return "", false, pacs.Wrap(pacs.ErrValidation, "ingest", "register", "patient name is required", nil)
	}

	key := keys.PatientKey(reg.Name, reg.DOB)
	created := false
	err := s.store.Mutate(func(doc *index.Document) (bool, error) {
		if _, ok := doc.Patients[key]; ok {
			return false, nil
		}
		doc.Patients[key] = &index.Patient{
			Name:       reg.Name,
			DOB:        reg.DOB,
			ClinicDate: reg.ClinicDate,
			Studies:    make(map[string]*index.Study),
			CreatedAt:  s.clock.Now(),
		}
		created = true
		return true, nil
	})
	if err != nil {
		return "", false, err
	}

	if created {
		s.record(ctx, journal.Event{Kind: journal.KindRegistered, PatientKey: key})
		s.logger.Info("registered patient", logging.String("patient", key))
	}
	return key, created, nil
}

// Ingest stores one uploaded image. Duplicate image uids within a study are
// detected before any file write and reported as StatusSkipped with no index
// mutation.
func (s *Service) Ingest(ctx context.Context, up Upload) (Result, error) {
	if strings.TrimSpace(up.PatientName) == "" {
		return Result{}, pacs.Wrap(pacs.ErrValidation, "ingest", "ingest", "patient name is required", nil)
	}

	patientKey := keys.PatientKey(up.PatientName, up.PatientDOB)
	studyKey := keys.StudyKey(up.StudyUID, up.StudyDescription, up.StudyDate, up.ClinicDate)

	result := Result{Status: StatusSaved, PatientKey: patientKey}
	err := s.store.Mutate(func(doc *index.Document) (bool, error) {
		patient, ok := doc.Patients[patientKey]
		if !ok {
			patient = &index.Patient{
				Name:       up.PatientName,
				DOB:        up.PatientDOB,
				ClinicDate: up.ClinicDate,
				Studies:    make(map[string]*index.Study),
				CreatedAt:  s.clock.Now(),
			}
			doc.Patients[patientKey] = patient
		} else if up.ClinicDate != "" && patient.ClinicDate == "" {
			// Ingestion is additive: clinic date backfill is the only field an
			// upload may set on an existing patient.
			patient.ClinicDate = up.ClinicDate
		}

		study, ok := patient.Studies[studyKey]
		if !ok {
			study = &index.Study{
				UID:         up.StudyUID,
				Description: up.StudyDescription,
				Date:        up.StudyDate,
			}
			patient.Studies[studyKey] = study
		}

		if study.HasImageUID(up.ImageUID) {
			result.Status = StatusSkipped
			return false, nil
		}

		filename := keys.ImageFileName(up.StudyDescription, up.StudyUID, up.ImageIndex)
		if _, err := s.blobs.Write(patientKey, filename, up.Data); err != nil {
			return false, err
		}

		study.Images = append(study.Images, index.Image{
			Filename: filename,
			Path:     path.Join(s.imageNS, patientKey, filename),
			Index:    up.ImageIndex,
			SavedAt:  s.clock.Now(),
			UID:      up.ImageUID,
		})
		patient.RecountImages()

		result.Filename = filename
		return true, nil
	})
	if err != nil {
		return Result{}, err
	}

	switch result.Status {
	case StatusSkipped:
		s.record(ctx, journal.Event{
			Kind:       journal.KindSkipped,
			PatientKey: patientKey,
			StudyKey:   studyKey,
			Detail:     "duplicate image uid " + up.ImageUID,
		})
		s.logger.Debug("skipped duplicate image",
			logging.String("patient", patientKey),
			logging.String("study", studyKey),
			logging.String("image_uid", up.ImageUID))
	default:
		s.record(ctx, journal.Event{
			Kind:       journal.KindSaved,
			PatientKey: patientKey,
			StudyKey:   studyKey,
			Filename:   result.Filename,
		})
		s.logger.Info("stored image",
			logging.String("patient", patientKey),
			logging.String("study", studyKey),
			logging.String("filename", result.Filename))
	}
	return result, nil
}

func (s *Service) record(ctx context.Context, evt journal.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(ctx, evt); err != nil {
		s.logger.Warn("journal write failed", logging.Error(err))
	}
}
