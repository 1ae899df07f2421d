package keys

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// maxKeyLen bounds derived keys so they stay usable as directory names.
const maxKeyLen = 100

// Sanitize converts free text into a filesystem-safe key. Characters other
// than letters, digits, underscores, whitespace, hyphens, and dots are
// dropped; whitespace runs collapse to a single underscore; the result is
// truncated to 100 runes. Sanitize is pure and idempotent.
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			inSpace = true
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.':
			if inSpace {
				b.WriteByte('_')
				inSpace = false
			}
			b.WriteRune(r)
		default:
			// dropped; does not terminate a whitespace run
		}
	}

	out := b.String()
	runes := []rune(out)
	if len(runes) > maxKeyLen {
		out = string(runes[:maxKeyLen])
	}
	return out
}

// PatientKey derives the stable identity key for a patient from the free-text
// name and date of birth.
func PatientKey(name, dob string) string {
	return Sanitize(name + "_" + dob)
}

// StudyKey derives the identity key for a study within a patient. A non-empty
// uid is used verbatim so studies with a real unique identifier never collide.
// The fallback combines description and date; the date component keeps studies
// from different clinic dates apart even when descriptions are identical.
func StudyKey(uid, description, studyDate, clinicDate string) string {
	if uid != "" {
		return uid
	}
	if description == "" {
		description = "study"
	}
	date := studyDate
	if date == "" {
		date = clinicDate
	}
	key := Sanitize(description + "_" + date)
	if key == "" {
		return "unknown"
	}
	return key
}

// ImageFileName generates a unique stored filename for an image. The random
// suffix only avoids collisions among concurrently arriving images with the
// same index; it plays no part in deduplication.
func ImageFileName(description, uid string, index int) string {
	prefix := description
	if prefix == "" {
		prefix = uid
	}
	if prefix == "" {
		prefix = "study"
	}
	return fmt.Sprintf("%s_%d_%s.jpg", Sanitize(prefix), index, randomSuffix())
}

func randomSuffix() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:6]
}
