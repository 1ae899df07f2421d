package index

import "time"

// Image records one stored file within a study.
type Image struct {
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	Index    int       `json:"index"`
	SavedAt  time.Time `json:"saved_at"`
	UID      string    `json:"uid,omitempty"`
}

// Study groups the images of one imaging study. Images append in arrival
// order; within a study no two images share a non-empty UID.
type Study struct {
	UID         string  `json:"uid"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Images      []Image `json:"images"`
}

// HasImageUID reports whether an image with the given non-empty uid already
// exists in the study.
func (s *Study) HasImageUID(uid string) bool {
	if uid == "" {
		return false
	}
	for _, img := range s.Images {
		if img.UID == uid {
			return true
		}
	}
	return false
}

// Patient holds one subject and their studies. CreatedAt is set once at
// creation and never changes.
type Patient struct {
	Name       string            `json:"name"`
	DOB        string            `json:"dob"`
	ClinicDate string            `json:"clinic_date"`
	Studies    map[string]*Study `json:"studies"`
	ImageCount int               `json:"image_count"`
	CreatedAt  time.Time         `json:"created_at"`
}

// RecountImages recomputes the image total from the per-study slices. The
// count is always derived, never incremented, so it cannot drift.
func (p *Patient) RecountImages() int {
	total := 0
	for _, study := range p.Studies {
		total += len(study.Images)
	}
	p.ImageCount = total
	return total
}

// Document is the root persisted structure: every patient, study, image, and
// pending refresh marker.
type Document struct {
	Patients         map[string]*Patient  `json:"patients"`
	PendingRefreshes map[string]time.Time `json:"pending_refreshes"`
	Updated          *time.Time           `json:"updated"`
}

// newDocument returns an empty index document with maps initialized.
func newDocument() *Document {
	return &Document{
		Patients:         make(map[string]*Patient),
		PendingRefreshes: make(map[string]time.Time),
	}
}

// PatientSummary is the listing view of a patient.
type PatientSummary struct {
	Key        string    `json:"key"`
	Name       string    `json:"name"`
	DOB        string    `json:"dob"`
	ClinicDate string    `json:"clinic_date"`
	ImageCount int       `json:"image_count"`
	StudyCount int       `json:"study_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Clock supplies timestamps. Local time stamps created_at and the document
// updated field; refresh requests use UTC. The two are distinct on purpose.
type Clock interface {
	Now() time.Time
	NowUTC() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time    { return time.Now() }
func (systemClock) NowUTC() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }
