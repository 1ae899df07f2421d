package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"preloader/internal/blob"
	"preloader/internal/index"
	"preloader/internal/pacs"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *stepClock) NowUTC() time.Time { return c.Now().UTC() }

func newTestService(t *testing.T) (*Service, *index.Store, *blob.Store) {
	t.Helper()
	dir := t.TempDir()
	blobs, err := blob.NewStore(filepath.Join(dir, "images"))
	if err != nil {
		t.Fatalf("blob.NewStore: %v", err)
	}
	clock := &stepClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	store, err := index.NewStore(filepath.Join(dir, "index.json"), blobs, nil, clock)
	if err != nil {
		t.Fatalf("index.NewStore: %v", err)
	}
	svc, err := NewService(store, blobs, nil, nil, clock)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store, blobs
}

func upload(uid string) Upload {
	return Upload{
		Data:             []byte("jpeg"),
		PatientName:      "Doe Jane",
		PatientDOB:       "1980-02-01",
		StudyUID:         "1.2.3",
		StudyDescription: "Panoramic",
		StudyDate:        "2024-03-01",
		ImageIndex:       0,
		ImageUID:         uid,
		ClinicDate:       "2024-03-04",
	}
}

func TestIngestCreatesHierarchy(t *testing.T) {
	svc, store, blobs := newTestService(t)

	res, err := svc.Ingest(context.Background(), upload("img-1"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Status != StatusSaved {
		t.Fatalf("status = %q", res.Status)
	}
	if res.PatientKey != "Doe_Jane_1980-02-01" {
		t.Fatalf("patient key = %q", res.PatientKey)
	}

	patient, err := store.GetPatient(res.PatientKey)
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if patient.ImageCount != 1 {
		t.Fatalf("image count = %d", patient.ImageCount)
	}
	study := patient.Studies["1.2.3"]
	if study == nil || len(study.Images) != 1 {
		t.Fatalf("study missing: %+v", patient.Studies)
	}
	img := study.Images[0]
	if img.Filename != res.Filename || img.UID != "img-1" {
		t.Fatalf("image record mismatch: %+v", img)
	}
	if img.Path != "images/"+res.PatientKey+"/"+res.Filename {
		t.Fatalf("relative path = %q", img.Path)
	}
	if !blobs.Exists(res.PatientKey, res.Filename) {
		t.Fatal("image file not written")
	}
}

func TestIngestDeduplicatesOnImageUID(t *testing.T) {
	svc, store, blobs := newTestService(t)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, upload("img-1"))
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	second, err := svc.Ingest(ctx, upload("img-1"))
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if second.Status != StatusSkipped {
		t.Fatalf("status = %q, want skipped", second.Status)
	}
	if second.Filename != "" {
		t.Fatalf("skipped result should carry no filename, got %q", second.Filename)
	}

	patient, err := store.GetPatient(first.PatientKey)
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if patient.ImageCount != 1 {
		t.Fatalf("image count = %d after duplicate", patient.ImageCount)
	}
	// Exactly one file was written.
	entries := 0
	study := patient.Studies["1.2.3"]
	for _, img := range study.Images {
		if blobs.Exists(first.PatientKey, img.Filename) {
			entries++
		}
	}
	if entries != 1 {
		t.Fatalf("expected one stored file, found %d", entries)
	}
}

func TestIngestEmptyUIDNeverDeduplicates(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := svc.Ingest(ctx, upload(""))
		if err != nil {
			t.Fatalf("Ingest %d: %v", i, err)
		}
		if res.Status != StatusSaved {
			t.Fatalf("Ingest %d status = %q", i, res.Status)
		}
	}

	patient, err := store.GetPatient("Doe_Jane_1980-02-01")
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if patient.ImageCount != 3 {
		t.Fatalf("image count = %d, want 3", patient.ImageCount)
	}
}

func TestIngestBackfillsClinicDateOnly(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	up := upload("img-1")
	up.ClinicDate = ""
	if _, err := svc.Ingest(ctx, up); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// Backfill applies when the stored value is empty.
	up2 := upload("img-2")
	up2.ClinicDate = "2024-03-04"
	if _, err := svc.Ingest(ctx, up2); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	patient, err := store.GetPatient("Doe_Jane_1980-02-01")
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if patient.ClinicDate != "2024-03-04" {
		t.Fatalf("clinic date = %q, want backfilled", patient.ClinicDate)
	}

	// A later differing value never overwrites.
	up3 := upload("img-3")
	up3.ClinicDate = "2024-05-05"
	if _, err := svc.Ingest(ctx, up3); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	patient, err = store.GetPatient("Doe_Jane_1980-02-01")
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if patient.ClinicDate != "2024-03-04" {
		t.Fatalf("clinic date overwritten to %q", patient.ClinicDate)
	}
}

func TestImageCountSpansStudies(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	a := upload("img-1")
	if _, err := svc.Ingest(ctx, a); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	b := upload("img-2")
	b.StudyUID = "9.8.7"
	b.StudyDescription = "Bitewing"
	if _, err := svc.Ingest(ctx, b); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	patient, err := store.GetPatient("Doe_Jane_1980-02-01")
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if patient.ImageCount != 2 {
		t.Fatalf("image count = %d, want 2", patient.ImageCount)
	}
	if len(patient.Studies) != 2 {
		t.Fatalf("study count = %d, want 2", len(patient.Studies))
	}
}

func TestRegisterIsIdempotentCreate(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	key, created, err := svc.Register(ctx, Registration{Name: "Doe Jane", DOB: "1980", ClinicDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !created {
		t.Fatal("expected creation")
	}

	_, created, err = svc.Register(ctx, Registration{Name: "Doe Jane", DOB: "1980", ClinicDate: "2099-01-01"})
	if err != nil {
		t.Fatalf("second Register: %v", err)
	}
	if created {
		t.Fatal("expected no second creation")
	}

	patient, err := store.GetPatient(key)
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if patient.ClinicDate != "2024-01-01" {
		t.Fatalf("registration overwrote clinic date: %q", patient.ClinicDate)
	}
}

func TestRegisterRequiresName(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, _, err := svc.Register(context.Background(), Registration{Name: "  "}); !errors.Is(err, pacs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIngestRequiresName(t *testing.T) {
	svc, _, _ := newTestService(t)
	up := upload("")
	up.PatientName = ""
	if _, err := svc.Ingest(context.Background(), up); !errors.Is(err, pacs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseImageIndex(t *testing.T) {
	if n, err := ParseImageIndex("7"); err != nil || n != 7 {
		t.Fatalf("ParseImageIndex(7) = %d, %v", n, err)
	}
	if n, err := ParseImageIndex(""); err != nil || n != 0 {
		t.Fatalf("ParseImageIndex(empty) = %d, %v", n, err)
	}
	if _, err := ParseImageIndex("abc"); !errors.Is(err, pacs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStudyFallbackKeySeparatesClinicDates(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	a := upload("")
	a.StudyUID = ""
	a.StudyDate = ""
	a.ClinicDate = "2024-01-10"
	if _, err := svc.Ingest(ctx, a); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	b := upload("")
	b.StudyUID = ""
	b.StudyDate = ""
	b.ClinicDate = "2024-02-01"
	if _, err := svc.Ingest(ctx, b); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	patient, err := store.GetPatient("Doe_Jane_1980-02-01")
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if len(patient.Studies) != 2 {
		t.Fatalf("expected 2 studies for different clinic dates, got %d", len(patient.Studies))
	}
}
